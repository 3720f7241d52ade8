package index_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/chikage/tgsearchbot/internal/index"
	"github.com/chikage/tgsearchbot/internal/model"
)

func newMessage(chatID int64, id int, text string) model.Message {
	return model.Message{
		Key:    model.NewKey(chatID, id),
		Text:   text,
		From:   "Alice@Gophers",
		ID:     id,
		ChatID: chatID,
		Date:   time.Unix(1689699600, 0).UTC(),
	}
}

func openIndex(t *testing.T) *index.Index {
	t.Helper()

	idx, err := index.Open(filepath.Join(t.TempDir(), "messages.bleve"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() {
		if err := idx.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return idx
}

func TestIndexSearchFiltersByChat(t *testing.T) {
	t.Parallel()

	idx := openIndex(t)
	ctx := context.Background()

	err := idx.Upsert(ctx, []model.Message{
		newMessage(-1001, 1, "gophers love concurrency"),
		newMessage(-1001, 2, "channels beat mutexes sometimes"),
		newMessage(-1002, 1, "gophers also live here"),
	})
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	hits, err := idx.Search(ctx, "gophers", []int64{-1001}, 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Search() returned %d hits, want 1", len(hits))
	}
	if hits[0].Message.Key != "-1001_1" {
		t.Errorf("hit key = %q, want %q", hits[0].Message.Key, "-1001_1")
	}
	if hits[0].Message.ChatID != -1001 {
		t.Errorf("hit chat = %d, want -1001", hits[0].Message.ChatID)
	}
}

func TestIndexSearchEmptyAllowedSetYieldsNothing(t *testing.T) {
	t.Parallel()

	idx := openIndex(t)
	ctx := context.Background()

	if err := idx.Upsert(ctx, []model.Message{newMessage(-1001, 1, "gophers love concurrency")}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	hits, err := idx.Search(ctx, "gophers", nil, 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Search() returned %d hits, want 0 for an empty allowed set", len(hits))
	}
}

func TestIndexSearchCJK(t *testing.T) {
	t.Parallel()

	idx := openIndex(t)
	ctx := context.Background()

	err := idx.Upsert(ctx, []model.Message{
		newMessage(-1001, 1, "今天天气不错"),
		newMessage(-1001, 2, "明天下雨"),
	})
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	hits, err := idx.Search(ctx, "天气", []int64{-1001}, 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Search() returned %d hits, want 1", len(hits))
	}
	if hits[0].Message.ID != 1 {
		t.Errorf("hit id = %d, want 1", hits[0].Message.ID)
	}
	if hits[0].Fragment == "" {
		t.Error("expected a highlighted fragment")
	}
}

func TestIndexUpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	idx := openIndex(t)
	ctx := context.Background()

	msg := newMessage(-1001, 1, "first version")
	if err := idx.Upsert(ctx, []model.Message{msg}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	msg.Text = "second version"
	if err := idx.Upsert(ctx, []model.Message{msg}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	count, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount() error: %v", err)
	}
	if count != 1 {
		t.Errorf("DocCount() = %d, want 1 (same key must overwrite)", count)
	}

	hits, err := idx.Search(ctx, "second", []int64{-1001}, 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) != 1 || hits[0].Message.Text != "second version" {
		t.Errorf("Search() = %+v, want the replaced document", hits)
	}
}

func TestIndexUpsertEmptyBatch(t *testing.T) {
	t.Parallel()

	idx := openIndex(t)
	if err := idx.Upsert(context.Background(), nil); err != nil {
		t.Errorf("Upsert(nil) error: %v", err)
	}
}

func TestIndexReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "messages.bleve")
	ctx := context.Background()

	idx, err := index.Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := idx.Upsert(ctx, []model.Message{newMessage(-1001, 1, "persisted")}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := index.Open(path)
	if err != nil {
		t.Fatalf("Open() after close error: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.DocCount()
	if err != nil {
		t.Fatalf("DocCount() error: %v", err)
	}
	if count != 1 {
		t.Errorf("DocCount() = %d after reopen, want 1", count)
	}
}
