package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/config"
)

// SearchOptions describes one authoritative-store search. Scope is
// always the requesting user's own conversations; owner scoping is
// enforced in SQL, not by the caller.
type SearchOptions struct {
	OwnerID string
	Query   string
	Limit   int
}

// ApplyDefaults trims the query and fills the limit with the server
// default, clamped to the ceiling. Length preconditions apply to the
// trimmed query, so this runs before Validate.
func (o *SearchOptions) ApplyDefaults() {
	o.Query = strings.TrimSpace(o.Query)
	if o.Limit <= 0 {
		o.Limit = config.DefaultSearchLimit
	}
	if o.Limit > config.MaxSearchLimit {
		o.Limit = config.MaxSearchLimit
	}
}

// Validate rejects malformed searches before any I/O happens. Query
// bounds count runes, matching how the client-side gate measures input.
func (o *SearchOptions) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.OwnerID, validation.Required),
		validation.Field(&o.Query,
			validation.Required,
			validation.RuneLength(config.MinSearchQueryLength, config.MaxSearchQueryLength),
		),
	)
}

// SearchResults is a capped result window plus the true match count,
// so callers can render "showing N of M".
type SearchResults struct {
	Results      []ConversationSummary `json:"results"`
	TotalMatches int                   `json:"total_matches"`
}

// Page is one window of a user's paginated conversation list.
type Page struct {
	Conversations []ConversationSummary `json:"conversations"`
	NextCursor    string                `json:"next_cursor,omitempty"`
	HasMore       bool                  `json:"has_more"`
}
