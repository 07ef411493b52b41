package config

import "time"

const (
	// MaxConversationTitleLength is the maximum length for conversation
	// titles. Limited to 255 to fit in PostgreSQL VARCHAR(255) and keep
	// titles short and descriptive.
	MaxConversationTitleLength = 255

	// MaxMessageLength bounds a single message body. Oversize payloads
	// are rejected as validation errors before hitting the store.
	MaxMessageLength = 32_000

	// MinSearchQueryLength is the shortest query server search accepts.
	// Shorter input is handled locally over the loaded window.
	MinSearchQueryLength = 2

	// MaxSearchQueryLength bounds the search query string.
	MaxSearchQueryLength = 100

	// DefaultSearchLimit is the result cap applied when the caller does
	// not ask for one.
	DefaultSearchLimit = 50

	// MaxSearchLimit is the hard ceiling on search results per request.
	MaxSearchLimit = 100

	// DefaultPageSize is the conversation list page size when the
	// caller does not specify a limit.
	DefaultPageSize = 20

	// MaxPageSize is the hard ceiling on conversation list page size.
	MaxPageSize = 100

	// LocalSearchDebounce delays local filtering until typing pauses.
	LocalSearchDebounce = 300 * time.Millisecond

	// ServerSearchDebounce is deliberately longer than the local delay:
	// server search is real I/O with rate-limit cost, so request volume
	// matters more than latency.
	ServerSearchDebounce = 800 * time.Millisecond
)
