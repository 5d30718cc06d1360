package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lysyi3m/rss-fetcher/app/config"
	"github.com/lysyi3m/rss-fetcher/app/database"
	"github.com/lysyi3m/rss-fetcher/app/feed"
)

// FetchFeedTask downloads and parses one feed. Failures are logged against
// the feed URL and leave the task with no items.
type FetchFeedTask struct {
	Task
	Feed     config.Feed
	FeedType string // format of the downloaded document, empty when the fetch failed
	Items    []feed.Item
	fetcher  FeedFetcher
	parser   ItemParser
	logger   *zap.Logger
}

func NewFetchFeedTask(source config.Feed, fetcher FeedFetcher, parser ItemParser, logger *zap.Logger) *FetchFeedTask {
	return &FetchFeedTask{
		Task:    NewTask(TaskTypeFetchFeed, source.ID),
		Feed:    source,
		fetcher: fetcher,
		parser:  parser,
		logger:  logger.Named(source.URL),
	}
}

func (t *FetchFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	proxies := feed.ResolveProxies(t.Feed.URL, t.Feed.Proxy, t.Feed.Proxies)
	if len(proxies) > 0 {
		t.logger.Info("use proxies", zap.Any("proxies", proxies))
	}

	data, err := t.fetcher.Fetch(ctx, t.Feed.URL, proxies)
	if err != nil {
		t.logFailure(err)
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	t.FeedType = t.parser.DetectType(data)

	items, err := t.parser.Parse(t.FeedID, data)
	if err != nil {
		t.logFailure(err)
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	t.Items = items
	t.logger.Info("total found items",
		zap.Int("count", len(items)),
		zap.String("type", t.FeedType),
		zap.Duration("duration", t.GetDuration()))

	return nil
}

func (t *FetchFeedTask) logFailure(err error) {
	fields := []zap.Field{zap.String("feed", t.FeedID), zap.Error(err)}

	var fetchErr *feed.FetchError
	var parseErr *feed.ParseError
	switch {
	case errors.As(err, &fetchErr):
		fields = append(fields, zap.String("kind", string(fetchErr.Kind)))
		if fetchErr.StatusCode != 0 {
			fields = append(fields, zap.Int("status", fetchErr.StatusCode))
		}
		t.logger.Error("fetch failed", fields...)
	case errors.As(err, &parseErr):
		t.logger.Error("parse failed", fields...)
	default:
		t.logger.Error("feed failed", fields...)
	}
}

// Rows converts the extracted items into store rows. Only feed_id, rss_id,
// title and raw are persisted; pubDate and description stay behind.
func (t *FetchFeedTask) Rows() []database.Item {
	rows := make([]database.Item, 0, len(t.Items))
	for _, item := range t.Items {
		rows = append(rows, toRow(item))
	}
	return rows
}

func toRow(item feed.Item) database.Item {
	row := database.Item{
		FeedID: item.FeedID,
		RSSID:  item.RSSID,
		Raw:    item.Raw,
	}
	if item.Title != nil {
		row.Title = sql.NullString{String: *item.Title, Valid: true}
	}
	return row
}
