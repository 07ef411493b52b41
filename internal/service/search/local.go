// Package search implements the dual-path conversation search: an
// in-memory filter over the loaded window, an authoritative store
// search, and the coordinator that sequences the two.
package search

import (
	"sort"
	"strings"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

// LocalEngine filters conversations already held in memory. It does no
// I/O and only sees message content that has actually been loaded, so
// its results are a best-effort subset of what the store would return.
type LocalEngine struct{}

// NewLocalEngine creates a local filter engine.
func NewLocalEngine() *LocalEngine {
	return &LocalEngine{}
}

// Filter returns the conversations whose title, preview, or any loaded
// message matches the query, case-insensitive substring. A blank query
// matches nothing. Results come back in recency order regardless of
// input order.
func (e *LocalEngine) Filter(window []models.Conversation, query string) []models.ConversationSummary {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var out []models.ConversationSummary
	for i := range window {
		if window[i].DeletedAt != nil {
			continue
		}
		if matches(&window[i], query) {
			out = append(out, window[i].Summary())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].LastMessageAt.After(out[j].LastMessageAt)
		}
		return out[i].ID > out[j].ID
	})

	return out
}

func matches(conv *models.Conversation, loweredQuery string) bool {
	if strings.Contains(strings.ToLower(conv.Title), loweredQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(conv.LastMessagePreview), loweredQuery) {
		return true
	}
	for i := range conv.Messages {
		if strings.Contains(strings.ToLower(conv.Messages[i].Content), loweredQuery) {
			return true
		}
	}
	return false
}
