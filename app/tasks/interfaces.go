package tasks

import (
	"context"

	"github.com/lysyi3m/rss-fetcher/app/database"
	"github.com/lysyi3m/rss-fetcher/app/feed"
)

// FeedFetcher retrieves a feed body through a resolved proxy mapping.
// Implemented by *feed.Client.
type FeedFetcher interface {
	Fetch(ctx context.Context, rawURL string, proxies map[string]string) ([]byte, error)
}

// ItemParser extracts items from a feed body. Implemented by *feed.Parser.
type ItemParser interface {
	Parse(feedID string, body []byte) ([]feed.Item, error)
	DetectType(body []byte) string
}

// ItemStore persists a batch of items and reports how many rows were new.
// Implemented by *database.ItemRepository.
type ItemStore interface {
	Store(ctx context.Context, items []database.Item) (int, error)
	CountByFeed(ctx context.Context) (map[string]int, error)
}

// TaskSchedulerInterface runs tasks on a bounded worker pool.
//
//	scheduler := NewScheduler(workers, logger)
//	scheduler.Start(ctx)
//	scheduler.EnqueueTask(ctx, task)
//	scheduler.Stop() // waits for queued tasks
type TaskSchedulerInterface interface {
	Start(ctx context.Context)
	Stop()
	EnqueueTask(ctx context.Context, task TaskInterface) error
}
