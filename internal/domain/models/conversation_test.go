package models

import (
	"strings"
	"testing"
)

func TestPreviewOf(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short content unchanged", "hello world", "hello world"},
		{"whitespace trimmed", "  hi  ", "hi"},
		{"exactly at limit", strings.Repeat("a", MaxPreviewLength), strings.Repeat("a", MaxPreviewLength)},
		{"over limit truncated", strings.Repeat("b", MaxPreviewLength+50), strings.Repeat("b", MaxPreviewLength)},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreviewOf(tt.content); got != tt.want {
				t.Errorf("PreviewOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Truncation must count runes, not bytes, so multibyte text never gets
// split mid-character.
func TestPreviewOfMultibyte(t *testing.T) {
	content := strings.Repeat("日", MaxPreviewLength+10)
	got := PreviewOf(content)
	if len([]rune(got)) != MaxPreviewLength {
		t.Errorf("rune length = %d, want %d", len([]rune(got)), MaxPreviewLength)
	}
	if !strings.HasPrefix(content, got) {
		t.Errorf("preview is not a prefix of the content")
	}
}

func TestSearchOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    SearchOptions
		wantErr bool
	}{
		{"valid", SearchOptions{OwnerID: "u1", Query: "hello"}, false},
		{"missing owner", SearchOptions{Query: "hello"}, true},
		{"missing query", SearchOptions{OwnerID: "u1"}, true},
		{"query too short", SearchOptions{OwnerID: "u1", Query: "a"}, true},
		{"query at minimum", SearchOptions{OwnerID: "u1", Query: "ab"}, false},
		{"query too long", SearchOptions{OwnerID: "u1", Query: strings.Repeat("x", 101)}, true},
		{"single multibyte rune too short", SearchOptions{OwnerID: "u1", Query: "é"}, true},
		{"100 multibyte runes at maximum", SearchOptions{OwnerID: "u1", Query: strings.Repeat("é", 100)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestSearchOptionsApplyDefaults(t *testing.T) {
	o := SearchOptions{OwnerID: "u1", Query: "hi"}
	o.ApplyDefaults()
	if o.Limit != 50 {
		t.Errorf("default limit = %d, want 50", o.Limit)
	}

	o.Limit = 500
	o.ApplyDefaults()
	if o.Limit != 100 {
		t.Errorf("clamped limit = %d, want 100", o.Limit)
	}
}

func TestSearchOptionsApplyDefaultsTrimsQuery(t *testing.T) {
	o := SearchOptions{OwnerID: "u1", Query: "  deploy  "}
	o.ApplyDefaults()
	if o.Query != "deploy" {
		t.Errorf("query = %q, want %q", o.Query, "deploy")
	}

	// Padding must not rescue a sub-minimum query.
	padded := SearchOptions{OwnerID: "u1", Query: " a "}
	padded.ApplyDefaults()
	if err := padded.Validate(); err == nil {
		t.Error("whitespace-padded single-character query passed validation")
	}
}
