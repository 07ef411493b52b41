package models

import (
	"strings"
	"time"
)

// Conversation is a chat session owned by exactly one user.
//
// Messages are lazily populated: a conversation loaded in summary form
// carries an empty Messages slice, and MessageCount remains the
// authoritative count. When populated, Messages are ordered by
// timestamp ascending and MessageCount >= len(Messages) always holds.
type Conversation struct {
	ID                 string     `json:"id" db:"id"`
	OwnerID            string     `json:"owner_id" db:"owner_id"`
	Title              string     `json:"title" db:"title"`
	MessageCount       int        `json:"message_count" db:"message_count"`
	LastMessagePreview string     `json:"last_message_preview,omitempty" db:"last_message_preview"`
	LastMessageAt      time.Time  `json:"last_message_at" db:"last_message_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`

	Messages []Message `json:"messages,omitempty"`
}

// Summary returns the conversation in summary form (metadata only,
// no message array).
func (c *Conversation) Summary() ConversationSummary {
	return ConversationSummary{
		ID:                 c.ID,
		OwnerID:            c.OwnerID,
		Title:              c.Title,
		MessageCount:       c.MessageCount,
		LastMessagePreview: c.LastMessagePreview,
		LastMessageAt:      c.LastMessageAt,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// ConversationSummary is a conversation without its messages, used by
// list and search responses.
type ConversationSummary struct {
	ID                 string    `json:"id"`
	OwnerID            string    `json:"owner_id"`
	Title              string    `json:"title"`
	MessageCount       int       `json:"message_count"`
	LastMessagePreview string    `json:"last_message_preview,omitempty"`
	LastMessageAt      time.Time `json:"last_message_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// MessageRole is the author role of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single message within a conversation. Token counts and
// the completion reference are set once at creation and never mutated.
type Message struct {
	ID               string      `json:"id" db:"id"`
	SessionID        string      `json:"session_id" db:"session_id"`
	Role             MessageRole `json:"role" db:"role"`
	Content          string      `json:"content" db:"content"`
	Model            string      `json:"model,omitempty" db:"model"`
	PromptTokens     int         `json:"prompt_tokens,omitempty" db:"prompt_tokens"`
	CompletionTokens int         `json:"completion_tokens,omitempty" db:"completion_tokens"`
	CompletionID     string      `json:"completion_id,omitempty" db:"completion_id"`
	ElapsedMs        int64       `json:"elapsed_ms,omitempty" db:"elapsed_ms"`
	Timestamp        time.Time   `json:"timestamp" db:"created_at"`
}

// MaxPreviewLength bounds the stored last-message snippet.
const MaxPreviewLength = 100

// PreviewOf derives the bounded preview snippet for a message body.
func PreviewOf(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= MaxPreviewLength {
		return content
	}
	return string(runes[:MaxPreviewLength])
}
