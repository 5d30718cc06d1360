package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rssfetcher.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
database: feeds.db
user_agent: "Test Agent/1.0"
workers: 4
timeouts:
  connect: 2
  read: 30
feeds:
  zeta:
    url: https://example.com/zeta.xml
  alpha:
    url: https://example.com/alpha.xml
    proxy: myproxy:8080
  mid:
    url: http://example.com/mid.xml
    proxies:
      http: http://proxy.local:3128
      https: http://proxy.local:3129
`)

	config, err := NewLoader(path).Load()
	if err != nil {
		t.Fatal(err)
	}

	if config.Database != "feeds.db" {
		t.Errorf("Expected database 'feeds.db', got '%s'", config.Database)
	}
	if config.UserAgent != "Test Agent/1.0" {
		t.Errorf("Expected user agent 'Test Agent/1.0', got '%s'", config.UserAgent)
	}
	if config.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", config.Workers)
	}
	if config.Timeouts.GetConnectTimeout() != 2*time.Second {
		t.Errorf("Expected connect timeout 2s, got %v", config.Timeouts.GetConnectTimeout())
	}
	if config.Timeouts.GetReadTimeout() != 30*time.Second {
		t.Errorf("Expected read timeout 30s, got %v", config.Timeouts.GetReadTimeout())
	}

	ids := config.Feeds.IDs()
	expected := []string{"zeta", "alpha", "mid"}
	if len(ids) != len(expected) {
		t.Fatalf("Expected %d feeds, got %d", len(expected), len(ids))
	}
	for i := range expected {
		if ids[i] != expected[i] {
			t.Errorf("Expected feed %d to be '%s', got '%s'", i, expected[i], ids[i])
		}
	}

	alpha := config.Feeds[1]
	if alpha.Proxy != "myproxy:8080" {
		t.Errorf("Expected proxy 'myproxy:8080', got '%s'", alpha.Proxy)
	}
	if alpha.Proxies != nil {
		t.Errorf("Expected no proxies mapping, got %v", alpha.Proxies)
	}

	mid := config.Feeds[2]
	if mid.Proxies["https"] != "http://proxy.local:3129" {
		t.Errorf("Expected https proxy 'http://proxy.local:3129', got '%s'", mid.Proxies["https"])
	}
}

func TestLoadConfigWithDefaults(t *testing.T) {
	path := writeConfig(t, `
feeds:
  only:
    url: https://example.com/feed.xml
`)

	config, err := NewLoader(path).Load()
	if err != nil {
		t.Fatal(err)
	}

	if config.Database != DefaultDatabase {
		t.Errorf("Expected default database '%s', got '%s'", DefaultDatabase, config.Database)
	}
	if config.UserAgent != DefaultUserAgent {
		t.Errorf("Expected default user agent '%s', got '%s'", DefaultUserAgent, config.UserAgent)
	}
	if config.Workers != 1 {
		t.Errorf("Expected default workers 1, got %d", config.Workers)
	}
	if config.Timeouts.GetConnectTimeout() != 5*time.Second {
		t.Errorf("Expected default connect timeout 5s, got %v", config.Timeouts.GetConnectTimeout())
	}
	if config.Timeouts.GetReadTimeout() != 60*time.Second {
		t.Errorf("Expected default read timeout 60s, got %v", config.Timeouts.GetReadTimeout())
	}
}

func TestLoadConfigWithoutFeeds(t *testing.T) {
	path := writeConfig(t, "database: empty.db\n")

	config, err := NewLoader(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(config.Feeds) != 0 {
		t.Errorf("Expected 0 feeds, got %d", len(config.Feeds))
	}
}

func TestLoadMissingConfig(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	if !errors.Is(err, ErrConfigMissing) {
		t.Errorf("Expected ErrConfigMissing, got %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "feed without url",
			content: `
feeds:
  broken:
    proxy: myproxy:8080
`,
		},
		{
			name: "feeds is a list",
			content: `
feeds:
  - url: https://example.com/feed.xml
`,
		},
		{
			name: "negative workers",
			content: `
workers: -2
feeds:
  a:
    url: https://example.com/feed.xml
`,
		},
		{
			name: "invalid proxy url",
			content: `
feeds:
  a:
    url: https://example.com/feed.xml
    proxies:
      http: "http://[::1"
`,
		},
		{
			name:    "malformed yaml",
			content: "feeds: [unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(writeConfig(t, tt.content)).Load()
			if err == nil {
				t.Error("Expected error for invalid configuration")
			}
			if errors.Is(err, ErrConfigMissing) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}
