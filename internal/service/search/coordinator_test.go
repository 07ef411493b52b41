package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

type fakeWindow struct {
	convs []models.Conversation
}

func (f *fakeWindow) Window() []models.Conversation { return f.convs }

type fakeServer struct {
	mu      sync.Mutex
	calls   []models.SearchOptions
	err     error
	release chan struct{} // when non-nil, Search blocks until closed
}

func (f *fakeServer) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	f.mu.Lock()
	f.calls = append(f.calls, *opts)
	release := f.release
	err := f.err
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	return &models.SearchResults{
		Results: []models.ConversationSummary{
			{ID: "server-" + opts.Query, Title: opts.Query},
		},
		TotalMatches: 7,
	}, nil
}

func (f *fakeServer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func coordinatorWindow() *fakeWindow {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &fakeWindow{convs: []models.Conversation{
		{ID: "c1", Title: "Kyoto trip", LastMessageAt: base},
		{ID: "c2", Title: "Groceries", LastMessageAt: base.Add(time.Hour)},
	}}
}

func waitFor(t *testing.T, ch <-chan Snapshot, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if cond(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return Snapshot{}
		}
	}
}

func newTestCoordinator(server ServerSearcher) (*Coordinator, chan Snapshot) {
	ch := make(chan Snapshot, 32)
	c := NewCoordinator(coordinatorWindow(), server, testLogger(),
		WithDelays(time.Millisecond, 5*time.Millisecond),
		WithOnChange(func(s Snapshot) { ch <- s }),
	)
	return c, ch
}

func TestCoordinatorLocalOnlyWithoutServerAccess(t *testing.T) {
	server := &fakeServer{}
	c, ch := newTestCoordinator(server)

	c.SetIdentity("", false)
	c.SetQuery("kyoto")

	snap := waitFor(t, ch, func(s Snapshot) bool {
		return s.Phase == PhaseLocal && len(s.Results) > 0
	})
	if snap.Results[0].ID != "c1" {
		t.Errorf("result = %s, want c1", snap.Results[0].ID)
	}

	time.Sleep(30 * time.Millisecond)
	if server.callCount() != 0 {
		t.Errorf("server called %d times, want 0", server.callCount())
	}
}

func TestCoordinatorServerSupersedesLocal(t *testing.T) {
	server := &fakeServer{}
	c, ch := newTestCoordinator(server)

	c.SetIdentity("u1", true)
	c.SetQuery("kyoto")

	snap := waitFor(t, ch, func(s Snapshot) bool { return s.Phase == PhaseServer })
	if snap.TotalMatches != 7 {
		t.Errorf("TotalMatches = %d, want 7", snap.TotalMatches)
	}
	if snap.Results[0].ID != "server-kyoto" {
		t.Errorf("result = %s, want server-kyoto", snap.Results[0].ID)
	}
}

func TestCoordinatorServerFailureKeepsLocalResults(t *testing.T) {
	server := &fakeServer{err: errors.New("store down")}
	c, ch := newTestCoordinator(server)

	c.SetIdentity("u1", true)
	c.SetQuery("kyoto")

	snap := waitFor(t, ch, func(s Snapshot) bool { return s.Phase == PhaseServerFailed })
	if snap.Err == nil {
		t.Error("Err = nil, want the search failure")
	}
	if len(snap.Results) != 1 || snap.Results[0].ID != "c1" {
		t.Errorf("local results not preserved: %+v", snap.Results)
	}
}

func TestCoordinatorStaleServerResultDiscarded(t *testing.T) {
	release := make(chan struct{})
	server := &fakeServer{release: release}
	c, ch := newTestCoordinator(server)

	c.SetIdentity("u1", true)
	c.SetQuery("first")

	// Wait until the first server call is in flight, then supersede it.
	deadline := time.After(2 * time.Second)
	for server.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("server never called")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	c.SetQuery("second")
	close(release)

	snap := waitFor(t, ch, func(s Snapshot) bool { return s.Phase == PhaseServer })
	if snap.Query != "second" {
		t.Errorf("Query = %q, want %q", snap.Query, "second")
	}
	if snap.Results[0].ID != "server-second" {
		t.Errorf("result = %s, want server-second", snap.Results[0].ID)
	}
}

func TestCoordinatorClearIsSynchronous(t *testing.T) {
	release := make(chan struct{})
	server := &fakeServer{release: release}
	c, _ := newTestCoordinator(server)

	c.SetIdentity("u1", true)
	c.SetQuery("kyoto")
	c.Clear()

	if got := c.Snapshot(); got.Phase != PhaseIdle {
		t.Errorf("Phase after Clear = %s, want %s", got.Phase, PhaseIdle)
	}

	// Anything still in flight must be discarded, not displayed.
	close(release)
	time.Sleep(30 * time.Millisecond)
	if got := c.Snapshot(); got.Phase != PhaseIdle || len(got.Results) != 0 {
		t.Errorf("state mutated after Clear: %+v", got)
	}
}

func TestCoordinatorShortQueryStaysLocal(t *testing.T) {
	server := &fakeServer{}
	c, ch := newTestCoordinator(server)

	c.SetIdentity("u1", true)
	c.SetQuery("k")

	waitFor(t, ch, func(s Snapshot) bool { return s.Phase == PhaseLocal })
	time.Sleep(30 * time.Millisecond)
	if server.callCount() != 0 {
		t.Errorf("server called for sub-minimum query, calls = %d", server.callCount())
	}
}

func TestCoordinatorIdentityUpgradeRerunsQuery(t *testing.T) {
	server := &fakeServer{}
	c, ch := newTestCoordinator(server)

	c.SetIdentity("", false)
	c.SetQuery("kyoto")
	waitFor(t, ch, func(s Snapshot) bool { return s.Phase == PhaseLocal && len(s.Results) > 0 })

	c.SetIdentity("u1", true)
	snap := waitFor(t, ch, func(s Snapshot) bool { return s.Phase == PhaseServer })
	if snap.Results[0].ID != "server-kyoto" {
		t.Errorf("result = %s, want server-kyoto", snap.Results[0].ID)
	}
}

func TestCoordinatorBlankQueryClears(t *testing.T) {
	server := &fakeServer{}
	c, _ := newTestCoordinator(server)

	c.SetIdentity("u1", true)
	c.SetQuery("kyoto")
	c.SetQuery("   ")

	if got := c.Snapshot(); got.Phase != PhaseIdle {
		t.Errorf("Phase = %s, want %s", got.Phase, PhaseIdle)
	}
}
