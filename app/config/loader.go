package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDatabase       = "rss.sqlite3"
	DefaultUserAgent      = "rssfetcher/1.0"
	DefaultWorkers        = 1
	DefaultConnectTimeout = 5  // seconds
	DefaultReadTimeout    = 60 // seconds
)

// ErrConfigMissing is returned when the configuration file does not exist
var ErrConfigMissing = errors.New("no such file")

// Loader handles loading and validation of the fetcher configuration
type Loader struct {
	path string
}

// NewLoader creates a new configuration loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads, defaults and validates the configuration file
func (l *Loader) Load() (*Config, error) {
	info, err := os.Stat(l.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, fmt.Errorf("%w: %s", ErrConfigMissing, l.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	config, err := l.loadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", l.path, err)
	}

	if err := l.validate(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, err)
	}

	return config, nil
}

// loadFile loads a single YAML configuration file
func (l *Loader) loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&config)

	return &config, nil
}

// setDefaults applies default values to configuration
func (l *Loader) setDefaults(config *Config) {
	if config.Database == "" {
		config.Database = DefaultDatabase
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Workers == 0 {
		config.Workers = DefaultWorkers
	}
	if config.Timeouts.Connect == 0 {
		config.Timeouts.Connect = DefaultConnectTimeout
	}
	if config.Timeouts.Read == 0 {
		config.Timeouts.Read = DefaultReadTimeout
	}
}

// validate validates the configuration
func (l *Loader) validate(config *Config) error {
	if config.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if config.Timeouts.Connect < 0 || config.Timeouts.Read < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}

	seen := make(map[string]bool, len(config.Feeds))
	for _, feed := range config.Feeds {
		if feed.ID == "" {
			return fmt.Errorf("feed id must not be empty")
		}
		if seen[feed.ID] {
			return fmt.Errorf("feed %q: duplicate feed id", feed.ID)
		}
		seen[feed.ID] = true

		if feed.URL == "" {
			return fmt.Errorf("feed %q: url is required", feed.ID)
		}
		if _, err := url.Parse(feed.URL); err != nil {
			return fmt.Errorf("feed %q: invalid url: %w", feed.ID, err)
		}

		for scheme, proxy := range feed.Proxies {
			if _, err := url.Parse(proxy); err != nil {
				return fmt.Errorf("feed %q: invalid proxy for %s: %w", feed.ID, scheme, err)
			}
		}
	}

	return nil
}
