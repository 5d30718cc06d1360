package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Item is a row of the rss table. Column names and order are a stable
// contract with other tooling reading the store.
type Item struct {
	FeedID string         `db:"feed_id"`
	RSSID  string         `db:"rss_id"`
	Title  sql.NullString `db:"title"`
	Raw    string         `db:"raw"`
}

const (
	insertItemSQL = `INSERT INTO rss (feed_id, rss_id, title, raw)
		VALUES (:feed_id, :rss_id, :title, :raw)
		ON CONFLICT (feed_id, rss_id) DO NOTHING`
	countItemsSQL       = `SELECT COUNT(feed_id) FROM rss`
	countItemsByFeedSQL = `SELECT feed_id, COUNT(rss_id) AS items FROM rss GROUP BY feed_id`
	selectFeedItemsSQL  = `SELECT feed_id, rss_id, title, raw FROM rss WHERE feed_id = ? ORDER BY rss_id`
)

// ItemRepository handles database operations for feed items
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Store inserts items in a single transaction and returns how many rows
// were added. Rows whose (feed_id, rss_id) already exist are skipped
// silently. The count is taken before and after the inserts inside the
// same transaction; any failure rolls back the whole batch.
func (r *ItemRepository) Store(ctx context.Context, items []Item) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	before, err := r.count(ctx, tx)
	if err != nil {
		return 0, err
	}

	if err := r.InsertMany(ctx, tx, items); err != nil {
		return 0, err
	}

	after, err := r.count(ctx, tx)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit items: %w", err)
	}

	return after - before, nil
}

// InsertMany inserts items, ignoring rows that already exist
func (r *ItemRepository) InsertMany(ctx context.Context, q Querier, items []Item) error {
	for _, item := range items {
		if _, err := sqlx.NamedExecContext(ctx, q, insertItemSQL, item); err != nil {
			return fmt.Errorf("failed to insert item %s/%s: %w", item.FeedID, item.RSSID, err)
		}
	}

	return nil
}

// Count returns the total number of stored items
func (r *ItemRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, r.db)
}

func (r *ItemRepository) count(ctx context.Context, q Querier) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, q, &count, countItemsSQL); err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

// CountByFeed returns the number of stored items per feed
func (r *ItemRepository) CountByFeed(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		FeedID string `db:"feed_id"`
		Items  int    `db:"items"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &rows, countItemsByFeedSQL); err != nil {
		return nil, fmt.Errorf("failed to count items by feed: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.FeedID] = row.Items
	}
	return counts, nil
}

// GetFeedItems returns the stored items of one feed ordered by rss_id
func (r *ItemRepository) GetFeedItems(ctx context.Context, feedID string) ([]Item, error) {
	var items []Item
	if err := sqlx.SelectContext(ctx, r.db, &items, r.db.Rebind(selectFeedItemsSQL), feedID); err != nil {
		return nil, fmt.Errorf("failed to get feed items: %w", err)
	}
	return items, nil
}
