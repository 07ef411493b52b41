// Package store maintains the in-memory conversation window backing
// the sidebar: a recency-ordered prefix of the user's conversations,
// grown page by page from a paginated source.
package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

// Source supplies conversation pages in recency order.
type Source interface {
	List(ctx context.Context, cursorToken string, pageSize int) (*models.Page, error)
}

// Store is the loaded conversation window. It never contains
// duplicates: a page row whose ID is already present refreshes the
// existing entry's metadata but keeps its loaded messages. Search
// results never enter the window; search reads a snapshot and renders
// its own list.
type Store struct {
	source   Source
	pageSize int
	logger   *slog.Logger

	mu      sync.Mutex
	order   []string
	byID    map[string]*models.Conversation
	cursor  string
	hasMore bool
	loaded  bool
}

// New creates an empty store over the given page source.
func New(source Source, pageSize int, logger *slog.Logger) *Store {
	return &Store{
		source:   source,
		pageSize: pageSize,
		logger:   logger,
		byID:     map[string]*models.Conversation{},
		hasMore:  true,
	}
}

// LoadNextPage fetches the next page and merges it into the window.
// It returns the number of conversations newly added. Calling it when
// the source is exhausted is a no-op.
func (s *Store) LoadNextPage(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.loaded && !s.hasMore {
		s.mu.Unlock()
		return 0, nil
	}
	cursor := s.cursor
	s.mu.Unlock()

	page, err := s.source.List(ctx, cursor, s.pageSize)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for i := range page.Conversations {
		summ := page.Conversations[i]
		if existing, ok := s.byID[summ.ID]; ok {
			refresh(existing, summ)
			continue
		}
		s.byID[summ.ID] = fromSummary(summ)
		s.order = append(s.order, summ.ID)
		added++
	}

	s.cursor = page.NextCursor
	s.hasMore = page.HasMore
	s.loaded = true
	s.sortLocked()

	s.logger.Debug("conversation page loaded",
		"added", added,
		"window_size", len(s.order),
		"has_more", s.hasMore,
	)

	return added, nil
}

// Window returns a snapshot copy of the loaded conversations in
// recency order. Mutating the snapshot does not affect the store.
func (s *Store) Window() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// Get returns the loaded conversation with the given ID, if present.
func (s *Store) Get(id string) (models.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byID[id]
	if !ok {
		return models.Conversation{}, false
	}
	return *conv, true
}

// Upsert inserts or replaces a conversation in the window, re-sorting
// it into its recency position. A just-created or just-touched
// conversation therefore surfaces at the top without a reload.
func (s *Store) Upsert(conv models.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[conv.ID]; !ok {
		s.order = append(s.order, conv.ID)
	}
	c := conv
	s.byID[conv.ID] = &c
	s.sortLocked()
}

// AttachMessages stores loaded message history on a window entry so
// local search can see the content.
func (s *Store) AttachMessages(convID string, msgs []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.byID[convID]; ok {
		conv.Messages = msgs
	}
}

// Remove drops a conversation from the window.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Reset empties the window, e.g. after an identity change.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.byID = map[string]*models.Conversation{}
	s.cursor = ""
	s.hasMore = true
	s.loaded = false
}

// HasMore reports whether the source has pages beyond the window.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Len reports the window size.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Store) sortLocked() {
	sort.SliceStable(s.order, func(i, j int) bool {
		a, b := s.byID[s.order[i]], s.byID[s.order[j]]
		if !a.LastMessageAt.Equal(b.LastMessageAt) {
			return a.LastMessageAt.After(b.LastMessageAt)
		}
		return a.ID > b.ID
	})
}

func fromSummary(summ models.ConversationSummary) *models.Conversation {
	return &models.Conversation{
		ID:                 summ.ID,
		OwnerID:            summ.OwnerID,
		Title:              summ.Title,
		MessageCount:       summ.MessageCount,
		LastMessagePreview: summ.LastMessagePreview,
		LastMessageAt:      summ.LastMessageAt,
		CreatedAt:          summ.CreatedAt,
		UpdatedAt:          summ.UpdatedAt,
	}
}

// refresh updates metadata in place, keeping loaded messages.
func refresh(conv *models.Conversation, summ models.ConversationSummary) {
	conv.Title = summ.Title
	conv.MessageCount = summ.MessageCount
	conv.LastMessagePreview = summ.LastMessagePreview
	conv.LastMessageAt = summ.LastMessageAt
	conv.UpdatedAt = summ.UpdatedAt
}
