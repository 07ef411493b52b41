package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/config"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

// Phase is the coordinator's current position in the search lifecycle.
type Phase string

const (
	// PhaseIdle means no search is active.
	PhaseIdle Phase = "idle"
	// PhaseLocal means results come from the in-memory filter and no
	// server round-trip is planned.
	PhaseLocal Phase = "local"
	// PhaseServerPending shows local results while a store search is
	// debouncing or in flight.
	PhaseServerPending Phase = "server_pending"
	// PhaseServer means the results are authoritative store results.
	PhaseServer Phase = "server"
	// PhaseServerFailed means the store search failed; local results
	// remain on display with the error attached.
	PhaseServerFailed Phase = "server_failed"
)

// Snapshot is an immutable view of the coordinator state.
type Snapshot struct {
	Phase        Phase
	Query        string
	Results      []models.ConversationSummary
	TotalMatches int
	Err          error
}

// WindowProvider exposes the conversations currently loaded in memory.
type WindowProvider interface {
	Window() []models.Conversation
}

// ServerSearcher runs a search against the authoritative store.
type ServerSearcher interface {
	Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error)
}

// Coordinator sequences local and server search for a live query box.
// Keystrokes are debounced on two clocks: the local filter fires
// quickly for responsiveness, the server search waits longer because
// it spends real I/O and rate budget. A monotonic sequence number
// guards against stale completions: any result arriving for a
// superseded query is dropped, so displayed results always belong to
// the text currently in the box.
type Coordinator struct {
	local  *LocalEngine
	window WindowProvider
	server ServerSearcher
	logger *slog.Logger

	localDelay  time.Duration
	serverDelay time.Duration
	onChange    func(Snapshot)

	mu            sync.Mutex
	seq           uint64
	query         string
	ownerID       string
	serverAllowed bool
	localTimer    *time.Timer
	serverTimer   *time.Timer
	cancelFlight  context.CancelFunc
	snap          Snapshot
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDelays overrides the debounce delays, mainly for tests.
func WithDelays(local, server time.Duration) Option {
	return func(c *Coordinator) {
		c.localDelay = local
		c.serverDelay = server
	}
}

// WithOnChange registers a callback invoked after every state change.
// It runs outside the coordinator lock and receives a copy.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Coordinator) {
		c.onChange = fn
	}
}

// NewCoordinator creates a coordinator in the idle state.
func NewCoordinator(window WindowProvider, server ServerSearcher, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		local:       NewLocalEngine(),
		window:      window,
		server:      server,
		logger:      logger,
		localDelay:  config.LocalSearchDebounce,
		serverDelay: config.ServerSearchDebounce,
		snap:        Snapshot{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetIdentity sets the search scope. serverSearch gates the store
// path; anonymous and under-tier callers run local-only. Changing
// identity mid-query re-runs the query under the new scope.
func (c *Coordinator) SetIdentity(ownerID string, serverSearch bool) {
	c.mu.Lock()
	c.ownerID = ownerID
	c.serverAllowed = serverSearch && ownerID != ""
	query := c.query
	if query != "" {
		c.scheduleLocked()
	}
	snap := c.snap
	c.mu.Unlock()

	if query != "" {
		c.notify(snap)
	}
}

// SetQuery reacts to one edit of the query text. Blank input clears
// immediately; anything else restarts the debounce clocks.
func (c *Coordinator) SetQuery(query string) {
	trimmed := strings.TrimSpace(query)

	c.mu.Lock()
	if trimmed == "" {
		snap := c.clearLocked()
		c.mu.Unlock()
		c.notify(snap)
		return
	}

	c.query = trimmed
	c.scheduleLocked()
	snap := c.snap
	c.mu.Unlock()

	c.notify(snap)
}

// Clear cancels all pending and in-flight work and returns to idle.
// It is synchronous and performs no I/O; any search still in flight
// will find its sequence number stale and discard itself.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	snap := c.clearLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *Coordinator) clearLocked() Snapshot {
	c.seq++
	c.query = ""
	c.stopTimersLocked()
	c.snap = Snapshot{Phase: PhaseIdle}
	return c.snap
}

// scheduleLocked restarts the debounce clocks for the current query.
// Callers hold c.mu.
func (c *Coordinator) scheduleLocked() {
	c.seq++
	seq := c.seq
	c.stopTimersLocked()

	c.snap.Query = c.query
	c.snap.Err = nil

	useServer := c.serverAllowed && len([]rune(c.query)) >= config.MinSearchQueryLength
	if useServer {
		c.snap.Phase = PhaseServerPending
	} else {
		c.snap.Phase = PhaseLocal
	}

	c.localTimer = time.AfterFunc(c.localDelay, func() {
		c.runLocal(seq)
	})
	if useServer {
		c.serverTimer = time.AfterFunc(c.serverDelay, func() {
			c.runServer(seq)
		})
	}
}

func (c *Coordinator) stopTimersLocked() {
	if c.localTimer != nil {
		c.localTimer.Stop()
		c.localTimer = nil
	}
	if c.serverTimer != nil {
		c.serverTimer.Stop()
		c.serverTimer = nil
	}
	if c.cancelFlight != nil {
		c.cancelFlight()
		c.cancelFlight = nil
	}
}

func (c *Coordinator) runLocal(seq uint64) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	results := c.local.Filter(c.window.Window(), c.query)

	// Server results, if any already arrived for this sequence, win.
	if c.snap.Phase == PhaseServer {
		c.mu.Unlock()
		return
	}
	c.snap.Results = results
	c.snap.TotalMatches = len(results)
	snap := c.snap
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Coordinator) runServer(seq uint64) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelFlight = cancel
	opts := &models.SearchOptions{
		OwnerID: c.ownerID,
		Query:   c.query,
	}
	c.mu.Unlock()

	results, err := c.server.Search(ctx, opts)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.cancelFlight = nil
	if err != nil {
		c.snap.Phase = PhaseServerFailed
		c.snap.Err = err
		c.logger.Warn("server search failed, keeping local results",
			"owner_id", opts.OwnerID,
			"error", err,
		)
	} else {
		c.snap.Phase = PhaseServer
		c.snap.Err = nil
		c.snap.Results = results.Results
		c.snap.TotalMatches = results.TotalMatches
	}
	snap := c.snap
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Coordinator) notify(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}
