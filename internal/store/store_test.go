package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

// fakeSource serves pages from a fixed recency-ordered list, cutting
// pages the way the repository does.
type fakeSource struct {
	all   []models.ConversationSummary
	err   error
	calls int
}

func (f *fakeSource) List(ctx context.Context, cursorToken string, pageSize int) (*models.Page, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	start := 0
	if cursorToken != "" {
		cursor, err := models.DecodeCursor(cursorToken)
		if err != nil {
			return nil, err
		}
		start = len(f.all)
		for i := range f.all {
			if cursor.Before(f.all[i]) {
				start = i
				break
			}
		}
	}

	end := start + pageSize
	if end > len(f.all) {
		end = len(f.all)
	}
	page := &models.Page{
		Conversations: f.all[start:end],
		HasMore:       end < len(f.all),
	}
	if page.HasMore && end > start {
		last := f.all[end-1]
		page.NextCursor = models.Cursor{LastMessageAt: last.LastMessageAt, ID: last.ID}.Encode()
	}
	return page, nil
}

func summaries(n int) []models.ConversationSummary {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	out := make([]models.ConversationSummary, n)
	for i := 0; i < n; i++ {
		out[i] = models.ConversationSummary{
			ID:            string(rune('a' + n - 1 - i)),
			Title:         "conv",
			LastMessageAt: base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return out
}

func newTestStore(src Source, pageSize int) *Store {
	return New(src, pageSize, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoadNextPageNoDuplicatesNoGaps(t *testing.T) {
	src := &fakeSource{all: summaries(7)}
	s := newTestStore(src, 3)
	ctx := context.Background()

	total := 0
	for i := 0; i < 3; i++ {
		added, err := s.LoadNextPage(ctx)
		if err != nil {
			t.Fatalf("page %d: %v", i+1, err)
		}
		total += added
	}

	if total != 7 {
		t.Errorf("total added = %d, want 7", total)
	}
	window := s.Window()
	if len(window) != 7 {
		t.Fatalf("window size = %d, want 7", len(window))
	}
	seen := map[string]bool{}
	for i, c := range window {
		if seen[c.ID] {
			t.Errorf("duplicate conversation %s", c.ID)
		}
		seen[c.ID] = true
		if i > 0 && window[i-1].LastMessageAt.Before(c.LastMessageAt) {
			t.Errorf("window out of recency order at %d", i)
		}
	}
	if s.HasMore() {
		t.Error("HasMore = true after exhausting source")
	}
}

func TestLoadNextPageExhaustedIsNoop(t *testing.T) {
	src := &fakeSource{all: summaries(2)}
	s := newTestStore(src, 5)
	ctx := context.Background()

	if _, err := s.LoadNextPage(ctx); err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := src.calls

	added, err := s.LoadNextPage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if added != 0 {
		t.Errorf("added = %d, want 0", added)
	}
	if src.calls != callsAfterFirst {
		t.Error("exhausted store still hit the source")
	}
}

func TestLoadNextPageError(t *testing.T) {
	src := &fakeSource{err: errors.New("store down")}
	s := newTestStore(src, 3)

	if _, err := s.LoadNextPage(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if s.Len() != 0 {
		t.Errorf("window size = %d after failed load, want 0", s.Len())
	}
}

func TestUpsertReordersWindow(t *testing.T) {
	src := &fakeSource{all: summaries(3)}
	s := newTestStore(src, 10)
	if _, err := s.LoadNextPage(context.Background()); err != nil {
		t.Fatal(err)
	}

	window := s.Window()
	oldest := window[len(window)-1]

	touched := models.Conversation{
		ID:            oldest.ID,
		Title:         oldest.Title,
		LastMessageAt: time.Now().UTC(),
	}
	s.Upsert(touched)

	if got := s.Window(); got[0].ID != oldest.ID {
		t.Errorf("touched conversation not at top, got %s", got[0].ID)
	}
	if s.Len() != 3 {
		t.Errorf("window size = %d, want 3 (upsert must not duplicate)", s.Len())
	}
}

func TestWindowSnapshotIsolation(t *testing.T) {
	src := &fakeSource{all: summaries(2)}
	s := newTestStore(src, 10)
	if _, err := s.LoadNextPage(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := s.Window()
	snap[0].Title = "mutated"

	if got := s.Window(); got[0].Title == "mutated" {
		t.Error("mutating the snapshot leaked into the store")
	}
}

func TestRefreshKeepsLoadedMessages(t *testing.T) {
	src := &fakeSource{all: summaries(2)}
	s := newTestStore(src, 10)
	ctx := context.Background()
	if _, err := s.LoadNextPage(ctx); err != nil {
		t.Fatal(err)
	}

	id := s.Window()[0].ID
	s.AttachMessages(id, []models.Message{{ID: "m1", Content: "hello"}})

	// A reload of the same page must not drop loaded history.
	s.hasMore = true
	s.cursor = ""
	if _, err := s.LoadNextPage(ctx); err != nil {
		t.Fatal(err)
	}

	conv, ok := s.Get(id)
	if !ok {
		t.Fatalf("conversation %s missing", id)
	}
	if len(conv.Messages) != 1 {
		t.Errorf("messages dropped on refresh, len = %d", len(conv.Messages))
	}
}

func TestRemoveAndReset(t *testing.T) {
	src := &fakeSource{all: summaries(3)}
	s := newTestStore(src, 10)
	if _, err := s.LoadNextPage(context.Background()); err != nil {
		t.Fatal(err)
	}

	id := s.Window()[0].ID
	s.Remove(id)
	if _, ok := s.Get(id); ok {
		t.Error("removed conversation still present")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	s.Reset()
	if s.Len() != 0 || !s.HasMore() {
		t.Error("Reset did not return store to initial state")
	}
}
