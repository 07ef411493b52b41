// Package localstore persists conversations for anonymous sessions in
// a single JSON file. It is the device-local half of the conversation
// model: nothing here ever reaches the server until the user signs in
// and explicitly imports.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

// Store reads and writes the anonymous conversation file. Writes are
// atomic (temp file then rename) so a crash mid-save never leaves a
// half-written file behind.
type Store struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

// New creates a store backed by the given file path.
func New(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// Load reads all stored conversations. A missing file is an empty
// store. A corrupt file also degrades to empty rather than failing:
// losing anonymous history beats making the whole app unusable.
func (s *Store) Load() ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read local store: %w", err)
	}

	var convs []models.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		s.logger.Warn("local store corrupt, starting empty",
			"path", s.path,
			"error", err,
		)
		return nil, nil
	}

	return convs, nil
}

// List adapts the file store to the paged source shape the in-memory
// window expects. Everything is already local, so the whole set comes
// back in one page and the cursor is ignored.
func (s *Store) List(ctx context.Context, cursorToken string, pageSize int) (*models.Page, error) {
	convs, err := s.Load()
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(convs))
	for i := range convs {
		if convs[i].DeletedAt != nil {
			continue
		}
		summaries = append(summaries, convs[i].Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].LastMessageAt.Equal(summaries[j].LastMessageAt) {
			return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
		}
		return summaries[i].ID > summaries[j].ID
	})

	return &models.Page{
		Conversations: summaries,
		HasMore:       false,
	}, nil
}

// Save replaces the stored conversations.
func (s *Store) Save(convs []models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(convs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode local store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create local store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".conversations-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write local store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close local store: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace local store: %w", err)
	}

	return nil
}

// Clear removes the stored file, typically after a successful import.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
