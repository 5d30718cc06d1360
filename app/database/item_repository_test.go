package database

import (
	"context"
	"database/sql"
	"testing"
)

func testItem(feedID, rssID, title string) Item {
	return Item{
		FeedID: feedID,
		RSSID:  rssID,
		Title:  sql.NullString{String: title, Valid: title != ""},
		Raw:    "<item><guid>" + rssID + "</guid></item>",
	}
}

func TestStoreReportsAddedRows(t *testing.T) {
	repo := NewItemRepository(openTestDB(t))
	ctx := context.Background()

	added, err := repo.Store(ctx, []Item{
		testItem("news", "a", "First"),
		testItem("news", "b", "Second"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if added != 2 {
		t.Errorf("Expected 2 added rows, got %d", added)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}
}

func TestStoreIgnoresExistingKeys(t *testing.T) {
	repo := NewItemRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.Store(ctx, []Item{testItem("news", "a", "Original")}); err != nil {
		t.Fatal(err)
	}

	added, err := repo.Store(ctx, []Item{
		testItem("news", "a", "Changed title"),
		testItem("news", "b", "New"),
	})
	if err != nil {
		t.Fatalf("Expected duplicate key to be ignored, got: %v", err)
	}
	if added != 1 {
		t.Errorf("Expected 1 added row, got %d", added)
	}

	items, err := repo.GetFeedItems(ctx, "news")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 stored items, got %d", len(items))
	}
	if items[0].Title.String != "Original" {
		t.Errorf("Expected existing row to keep its title, got %q", items[0].Title.String)
	}
}

func TestStoreDuplicatesWithinBatch(t *testing.T) {
	repo := NewItemRepository(openTestDB(t))

	added, err := repo.Store(context.Background(), []Item{
		testItem("news", "a", "One"),
		testItem("news", "a", "Two"),
		testItem("other", "a", "Same guid, other feed"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if added != 2 {
		t.Errorf("Expected 2 added rows, got %d", added)
	}
}

func TestStoreIsIdempotent(t *testing.T) {
	repo := NewItemRepository(openTestDB(t))
	ctx := context.Background()
	batch := []Item{testItem("news", "a", "A"), testItem("news", "b", "B")}

	if _, err := repo.Store(ctx, batch); err != nil {
		t.Fatal(err)
	}
	added, err := repo.Store(ctx, batch)
	if err != nil {
		t.Fatal(err)
	}
	if added != 0 {
		t.Errorf("Expected 0 added rows on second store, got %d", added)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("Expected count to stay 2, got %d", count)
	}
}

func TestStoreEmptyBatch(t *testing.T) {
	repo := NewItemRepository(openTestDB(t))

	added, err := repo.Store(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if added != 0 {
		t.Errorf("Expected 0 added rows, got %d", added)
	}
}

func TestStoreNullTitle(t *testing.T) {
	repo := NewItemRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.Store(ctx, []Item{testItem("news", "untitled", "")}); err != nil {
		t.Fatal(err)
	}

	items, err := repo.GetFeedItems(ctx, "news")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Title.Valid {
		t.Errorf("Expected NULL title, got %+v", items)
	}
}

func TestStoreRollsBackOnFailure(t *testing.T) {
	db := openTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	if _, err := db.Exec(`CREATE TRIGGER reject_bad BEFORE INSERT ON rss
		WHEN NEW.rss_id = 'bad' BEGIN SELECT RAISE(ABORT, 'rejected'); END`); err != nil {
		t.Fatal(err)
	}

	_, err := repo.Store(ctx, []Item{testItem("news", "good", "Good"), testItem("news", "bad", "Bad")})
	if err == nil {
		t.Fatal("Expected error from rejected insert")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Expected rollback to leave 0 rows, got %d", count)
	}
}

func TestCountByFeed(t *testing.T) {
	repo := NewItemRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.Store(ctx, []Item{
		testItem("a", "1", "x"),
		testItem("a", "2", "x"),
		testItem("b", "1", "x"),
	}); err != nil {
		t.Fatal(err)
	}

	counts, err := repo.CountByFeed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["a"] != 2 || counts["b"] != 1 {
		t.Errorf("Expected a=2 b=1, got %v", counts)
	}
}
