package cfg

type Cfg struct {
	// Logging configuration
	Logger  string
	LogFile string
	Debug   bool

	// Run configuration
	ConfigPath string
	StrictExit bool

	// Application metadata
	ShowVersion bool
	Version     string
}

// Console reports whether diagnostics go to the console instead of the log file
func (c *Cfg) Console() bool {
	return c.Logger == LoggerConsole
}

// Validate reports arguments the run cannot start without
func (c *Cfg) Validate() error {
	if c.ConfigPath == "" {
		return ErrMissingConfigPath
	}
	return nil
}
