package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the service layer - match with errors.Is()
var (
	// ErrValidation indicates malformed input, rejected before any I/O
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a resource that does not exist or does not
	// belong to the caller. Ownership violations intentionally map to
	// the same error so callers cannot probe other users' data.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing or invalid credential
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller's tier does not permit the operation
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates the resource already exists
	ErrConflict = errors.New("already exists")

	// ErrStoreUnavailable indicates a transient storage failure.
	// Safe to retry with backoff; local state is never left half-updated.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSyncInProgress indicates a catalog sync was rejected because
	// another run holds the sync lock. Rejected, never queued.
	ErrSyncInProgress = errors.New("catalog sync already in progress")
)

// RateLimitError indicates a per-tier request ceiling was exceeded.
// Carries the window reset time so callers can back off instead of
// retrying immediately.
type RateLimitError struct {
	Class   string
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit %d, resets %s)",
		e.Class, e.Limit, e.ResetAt.UTC().Format(time.RFC3339))
}

// Retryable reports whether the error is transient and worth retrying.
// Validation, auth and not-found errors are terminal; storage outages
// and rate limits are not.
func Retryable(err error) bool {
	var rl *RateLimitError
	return errors.Is(err, ErrStoreUnavailable) || errors.As(err, &rl)
}
