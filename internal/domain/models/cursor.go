package models

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursor is an opaque pagination token encoding the sort key of the
// last row the client has seen. The (timestamp, id) composite gives a
// strict total order: ties on last_message_at break on id, so pages
// never duplicate or skip rows even when new conversations are
// inserted between fetches.
type Cursor struct {
	LastMessageAt time.Time
	ID            string
}

// Encode serializes the cursor to its opaque wire form.
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%d:%s", c.LastMessageAt.UnixMicro(), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque cursor token. An empty token yields a
// nil cursor (first page).
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor: %w", err)
	}

	micros, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return nil, fmt.Errorf("malformed cursor: missing id")
	}

	us, err := strconv.ParseInt(micros, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor: %w", err)
	}

	return &Cursor{
		LastMessageAt: time.UnixMicro(us).UTC(),
		ID:            id,
	}, nil
}

// Before reports whether the summary sorts strictly after the cursor
// position in (last_message_at DESC, id DESC) order - i.e. whether the
// row belongs on a later page than the cursor row.
func (c Cursor) Before(s ConversationSummary) bool {
	at := s.LastMessageAt.Truncate(time.Microsecond)
	cat := c.LastMessageAt.Truncate(time.Microsecond)
	if !at.Equal(cat) {
		return at.Before(cat)
	}
	return s.ID < c.ID
}
