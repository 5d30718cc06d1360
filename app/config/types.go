package config

// Config represents the fetcher configuration document
type Config struct {
	Database  string   `yaml:"database"`
	UserAgent string   `yaml:"user_agent"`
	Workers   int      `yaml:"workers"`
	Timeouts  Timeouts `yaml:"timeouts"`
	Feeds     Feeds    `yaml:"feeds"`
}

// Timeouts holds the HTTP timeouts applied to every feed request
type Timeouts struct {
	Connect int `yaml:"connect"` // seconds
	Read    int `yaml:"read"`    // seconds
}

// Feed is a single configured feed source
type Feed struct {
	ID      string            `yaml:"-"` // key of the feed section in the document
	URL     string            `yaml:"url"`
	Proxy   string            `yaml:"proxy"`
	Proxies map[string]string `yaml:"proxies"`
}

// Feeds keeps feed sections in document order
type Feeds []Feed
