package ratelimit

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain"
)

func testLimiter(at time.Time) *Limiter {
	l := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.now = func() time.Time { return at }
	return l
}

func TestAllowWithinLimit(t *testing.T) {
	l := testLimiter(time.Date(2025, 6, 1, 10, 15, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		if err := l.Allow("u1", ClassChat, 5, time.Hour); err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
	}
}

func TestAllowExceedsLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 15, 0, 0, time.UTC)
	l := testLimiter(now)

	for i := 0; i < 3; i++ {
		if err := l.Allow("u1", ClassSearch, 3, time.Hour); err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
	}

	err := l.Allow("u1", ClassSearch, 3, time.Hour)
	var rateErr *domain.RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rateErr.Limit != 3 {
		t.Errorf("Limit = %d, want 3", rateErr.Limit)
	}
	wantReset := now.Truncate(time.Hour).Add(time.Hour)
	if !rateErr.ResetAt.Equal(wantReset) {
		t.Errorf("ResetAt = %v, want %v", rateErr.ResetAt, wantReset)
	}
}

func TestAllowWindowRollover(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 59, 0, 0, time.UTC)
	l := testLimiter(now)

	if err := l.Allow("u1", ClassChat, 1, time.Hour); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := l.Allow("u1", ClassChat, 1, time.Hour); err == nil {
		t.Fatal("second request in same window should be rejected")
	}

	// The next window starts fresh.
	l.now = func() time.Time { return now.Add(2 * time.Minute) }
	if err := l.Allow("u1", ClassChat, 1, time.Hour); err != nil {
		t.Fatalf("request in new window: %v", err)
	}
}

func TestAllowZeroLimitForbidden(t *testing.T) {
	l := testLimiter(time.Now())

	err := l.Allow("u1", ClassSync, 0, time.Hour)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAllowIsolatedPerUserAndClass(t *testing.T) {
	l := testLimiter(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	if err := l.Allow("u1", ClassChat, 1, time.Hour); err != nil {
		t.Fatalf("u1 chat: %v", err)
	}
	// Different user, same class.
	if err := l.Allow("u2", ClassChat, 1, time.Hour); err != nil {
		t.Fatalf("u2 chat: %v", err)
	}
	// Same user, different class.
	if err := l.Allow("u1", ClassSearch, 1, time.Hour); err != nil {
		t.Fatalf("u1 search: %v", err)
	}
}

func TestRemaining(t *testing.T) {
	l := testLimiter(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	if got := l.Remaining("u1", ClassChat, 5, time.Hour); got != 5 {
		t.Errorf("Remaining before use = %d, want 5", got)
	}
	for i := 0; i < 3; i++ {
		_ = l.Allow("u1", ClassChat, 5, time.Hour)
	}
	if got := l.Remaining("u1", ClassChat, 5, time.Hour); got != 2 {
		t.Errorf("Remaining after 3 uses = %d, want 2", got)
	}
}
