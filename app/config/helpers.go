package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// GetConnectTimeout returns the connect timeout as time.Duration
func (t *Timeouts) GetConnectTimeout() time.Duration {
	if t.Connect <= 0 {
		return DefaultConnectTimeout * time.Second
	}
	return time.Duration(t.Connect) * time.Second
}

// GetReadTimeout returns the read timeout as time.Duration
func (t *Timeouts) GetReadTimeout() time.Duration {
	if t.Read <= 0 {
		return DefaultReadTimeout * time.Second
	}
	return time.Duration(t.Read) * time.Second
}

// UnmarshalYAML decodes the feeds mapping while preserving key order
func (f *Feeds) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: feeds must be a mapping of feed id to feed section", node.Line)
	}

	feeds := make(Feeds, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var feed Feed
		if err := value.Decode(&feed); err != nil {
			return fmt.Errorf("feed %q: %w", key.Value, err)
		}
		feed.ID = key.Value
		feeds = append(feeds, feed)
	}

	*f = feeds
	return nil
}

// IDs returns feed identifiers in configuration order
func (f Feeds) IDs() []string {
	ids := make([]string, 0, len(f))
	for _, feed := range f {
		ids = append(ids, feed.ID)
	}
	return ids
}
