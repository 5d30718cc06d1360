package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lysyi3m/rss-fetcher/app/config"
	"github.com/lysyi3m/rss-fetcher/app/database"
	"github.com/lysyi3m/rss-fetcher/app/feed"
)

// FeedResult is the outcome of one feed in a run
type FeedResult struct {
	FeedID string
	URL    string
	Type   string // rss, atom, json or unknown; empty when nothing was downloaded
	Items  int
	Err    error
}

// Result summarizes a pipeline run
type Result struct {
	Feeds    []FeedResult
	Fetched  int // items collected across all feeds
	Added    int // rows new to the store
	Duration time.Duration
}

// NotRSS returns the feeds whose document was downloaded but is not RSS,
// such as Atom or JSON feeds. They contribute no items.
func (r Result) NotRSS() []FeedResult {
	return lo.Filter(r.Feeds, func(f FeedResult, _ int) bool {
		return f.Err == nil && f.Type != feed.TypeRSS
	})
}

// Failed returns the feeds that contributed no items because of an error
func (r Result) Failed() []FeedResult {
	return lo.Filter(r.Feeds, func(f FeedResult, _ int) bool { return f.Err != nil })
}

// Pipeline fetches every configured feed once and stores the new items
type Pipeline struct {
	fetcher FeedFetcher
	parser  ItemParser
	store   ItemStore
	workers int
	logger  *zap.Logger
}

func NewPipeline(fetcher FeedFetcher, parser ItemParser, store ItemStore, workers int, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		parser:  parser,
		store:   store,
		workers: workers,
		logger:  logger,
	}
}

// Run processes feeds in configuration order. Fetch and parse failures only
// cost the affected feed its items; a store failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, feeds []config.Feed) (Result, error) {
	start := time.Now()

	fetchTasks := lo.Map(feeds, func(source config.Feed, _ int) *FetchFeedTask {
		return NewFetchFeedTask(source, p.fetcher, p.parser, p.logger)
	})

	scheduler := NewScheduler(p.workers, p.logger)
	scheduler.Start(ctx)
	for _, task := range fetchTasks {
		if err := scheduler.EnqueueTask(ctx, task); err != nil {
			scheduler.Stop()
			return Result{}, fmt.Errorf("run interrupted: %w", err)
		}
	}
	scheduler.Stop()

	// Merge in configuration order; completion order does not matter.
	rows := lo.FlatMap(fetchTasks, func(task *FetchFeedTask, _ int) []database.Item {
		return task.Rows()
	})

	result := Result{
		Feeds: lo.Map(fetchTasks, func(task *FetchFeedTask, _ int) FeedResult {
			return FeedResult{
				FeedID: task.FeedID,
				URL:    task.Feed.URL,
				Type:   task.FeedType,
				Items:  len(task.Items),
				Err:    task.GetError(),
			}
		}),
		Fetched: len(rows),
	}

	added, err := p.store.Store(ctx, rows)
	if err != nil {
		return result, fmt.Errorf("failed to store items: %w", err)
	}
	result.Added = added
	result.Duration = time.Since(start)

	p.logger.Info("total added rss",
		zap.Int("count", added),
		zap.Int("fetched", result.Fetched),
		zap.Int("feeds", len(feeds)),
		zap.Int("failed", len(result.Failed())),
		zap.Int("not_rss", len(result.NotRSS())),
		zap.Duration("duration", result.Duration))

	if counts, err := p.store.CountByFeed(ctx); err != nil {
		p.logger.Warn("failed to summarize stored items", zap.Error(err))
	} else {
		for _, source := range feeds {
			p.logger.Debug("stored items", zap.String("feed", source.ID), zap.Int("count", counts[source.ID]))
		}
	}

	return result, nil
}
