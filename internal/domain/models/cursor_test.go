package models

import (
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 45, 123456000, time.UTC)
	c := Cursor{LastMessageAt: at, ID: "b2c3d4"}

	decoded, err := DecodeCursor(c.Encode())
	if err != nil {
		t.Fatalf("DecodeCursor() error = %v", err)
	}
	if !decoded.LastMessageAt.Equal(at) {
		t.Errorf("LastMessageAt = %v, want %v", decoded.LastMessageAt, at)
	}
	if decoded.ID != "b2c3d4" {
		t.Errorf("ID = %q, want %q", decoded.ID, "b2c3d4")
	}
}

func TestDecodeCursorEmpty(t *testing.T) {
	c, err := DecodeCursor("")
	if err != nil {
		t.Fatalf("DecodeCursor(\"\") error = %v", err)
	}
	if c != nil {
		t.Errorf("DecodeCursor(\"\") = %+v, want nil", c)
	}
}

func TestDecodeCursorMalformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"no separator", "MTIzNDU2"},
		{"missing id", "MTIzNDU2Og"},
		{"non-numeric timestamp", "YWJjOmRlZg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeCursor(tt.token); err == nil {
				t.Errorf("DecodeCursor(%q) expected error, got nil", tt.token)
			}
		})
	}
}

func TestCursorBefore(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cursor := Cursor{LastMessageAt: base, ID: "m"}

	tests := []struct {
		name string
		at   time.Time
		id   string
		want bool
	}{
		{"older timestamp", base.Add(-time.Hour), "z", true},
		{"newer timestamp", base.Add(time.Hour), "a", false},
		{"same timestamp smaller id", base, "a", true},
		{"same timestamp larger id", base, "z", false},
		{"identical row", base, "m", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ConversationSummary{ID: tt.id, LastMessageAt: tt.at}
			if got := cursor.Before(s); got != tt.want {
				t.Errorf("Before() = %t, want %t", got, tt.want)
			}
		})
	}
}
