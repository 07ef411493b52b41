// Package ratelimit enforces per-user, per-endpoint-class request
// ceilings over fixed time windows.
package ratelimit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain"
)

// Class identifies an endpoint class with its own independent ceiling.
type Class string

const (
	ClassChat   Class = "chat"
	ClassSearch Class = "search"
	ClassSync   Class = "sync"
)

// Limiter counts requests per (user, class, window). Counters live in
// a TTL cache so idle users cost nothing; the TTL outlives the window
// by one interval so a counter can never expire mid-window.
type Limiter struct {
	counters *gocache.Cache
	now      func() time.Time
	logger   *slog.Logger

	mu sync.Mutex
}

// New creates a limiter. The window duration is supplied per call so
// different tiers can use different windows against the same limiter.
func New(logger *slog.Logger) *Limiter {
	return &Limiter{
		counters: gocache.New(2*time.Hour, 10*time.Minute),
		now:      time.Now,
		logger:   logger,
	}
}

// Allow consumes one request from the caller's window. A non-positive
// limit means the class is not permitted for this caller at all.
// When the ceiling is exceeded it returns a RateLimitError carrying
// the window reset time; it never queues and never silently drops.
func (l *Limiter) Allow(userID string, class Class, limit int, window time.Duration) error {
	if limit <= 0 {
		return fmt.Errorf("%s: %w", class, domain.ErrForbidden)
	}

	now := l.now()
	windowStart := now.Truncate(window)
	resetAt := windowStart.Add(window)
	key := fmt.Sprintf("%s|%s|%d", userID, class, windowStart.Unix())

	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	if v, ok := l.counters.Get(key); ok {
		count = v.(int)
	}

	if count >= limit {
		l.logger.Debug("rate limit exceeded",
			"user_id", userID,
			"class", string(class),
			"limit", limit,
			"reset_at", resetAt,
		)
		return &domain.RateLimitError{
			Class:   string(class),
			Limit:   limit,
			ResetAt: resetAt,
		}
	}

	l.counters.Set(key, count+1, window+time.Minute)
	return nil
}

// Remaining reports how many requests are left in the current window.
func (l *Limiter) Remaining(userID string, class Class, limit int, window time.Duration) int {
	windowStart := l.now().Truncate(window)
	key := fmt.Sprintf("%s|%s|%d", userID, class, windowStart.Unix())

	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	if v, ok := l.counters.Get(key); ok {
		count = v.(int)
	}
	if remaining := limit - count; remaining > 0 {
		return remaining
	}
	return 0
}
