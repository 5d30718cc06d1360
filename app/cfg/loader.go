package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

const (
	LoggerFile    = "file"
	LoggerConsole = "console"

	DefaultLogFile = "rssfetcher.log"
)

// ErrMissingConfigPath is returned when no configuration file argument is given
var ErrMissingConfigPath = errors.New("the required argument `CONFIG` was not provided")

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Logging configuration
	Logger  string `long:"logger" env:"RSSFETCHER_LOGGER" default:"file" choice:"file" choice:"console" description:"Diagnostic sink"`
	LogFile string `long:"log-file" env:"RSSFETCHER_LOG_FILE" default:"rssfetcher.log" description:"Log file used when the file sink is selected"`
	Debug   bool   `long:"debug" env:"RSSFETCHER_DEBUG" description:"Enable debug logging"`

	// Run configuration
	StrictExit bool `long:"strict-exit" env:"RSSFETCHER_STRICT_EXIT" description:"Exit with a non-zero code when the run fails"`

	// Application metadata
	ShowVersion bool `long:"version" description:"Print version and exit"`

	Args struct {
		ConfigPath string `positional-arg-name:"CONFIG" description:"Path to the YAML configuration file"`
	} `positional-args:"yes"`
}

// Load parses command-line arguments and environment overrides.
// A .env file in the working directory is read first when present.
// It returns nil, nil when help was requested. A missing CONFIG argument is
// reported by Validate so it can go through the configured logger.
func Load(args []string) (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	parser.Name = "rssfetcher"

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Logger:      raw.Logger,
		LogFile:     raw.LogFile,
		Debug:       raw.Debug,
		ConfigPath:  raw.Args.ConfigPath,
		StrictExit:  raw.StrictExit,
		ShowVersion: raw.ShowVersion,
		Version:     GetVersion(),
	}

	return cfg, nil
}
