package repositories

import (
	"context"
	"time"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

// ConversationRepository defines data access for conversations and
// their messages. Every query is scoped to an owner: a conversation
// belonging to another user is indistinguishable from a missing one
// (domain.ErrNotFound in both cases).
type ConversationRepository interface {
	// CreateConversation inserts a new conversation in summary form.
	CreateConversation(ctx context.Context, conv *models.Conversation) error

	// GetConversation retrieves a conversation summary by ID.
	// Returns domain.ErrNotFound if absent, deleted, or owned by
	// someone else.
	GetConversation(ctx context.Context, convID, ownerID string) (*models.Conversation, error)

	// ListPage fetches one page of summaries ordered by
	// (last_message_at DESC, id DESC), strictly after the cursor row
	// when a cursor is given. Fetching with the same cursor twice
	// yields the same page (idempotent under retry).
	ListPage(ctx context.Context, ownerID string, limit int, cursor *models.Cursor) (*models.Page, error)

	// ListMessages retrieves a conversation's messages ordered by
	// timestamp ascending, optionally restricted to those strictly
	// after since.
	ListMessages(ctx context.Context, convID, ownerID string, since *time.Time) ([]models.Message, error)

	// AppendMessage atomically inserts the message and refreshes the
	// conversation's message_count, last_message_preview,
	// last_message_at and updated_at.
	AppendMessage(ctx context.Context, convID, ownerID string, msg *models.Message) error

	// SearchConversations finds the owner's conversations whose title
	// or message content matches the query, capped at opts.Limit and
	// ordered by recency, together with the true match count.
	SearchConversations(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error)

	// DeleteConversation soft-deletes a conversation.
	// Returns domain.ErrNotFound if not found or already deleted.
	DeleteConversation(ctx context.Context, convID, ownerID string) error
}
