package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

// searchRepo is a conversation repository fake that only implements the
// search path; the rest of the interface is inert.
type searchRepo struct {
	calls   []models.SearchOptions
	results *models.SearchResults
	err     error
}

func (f *searchRepo) SearchConversations(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	f.calls = append(f.calls, *opts)
	if f.err != nil {
		return nil, f.err
	}
	if f.results != nil {
		return f.results, nil
	}
	return &models.SearchResults{Results: []models.ConversationSummary{}}, nil
}

func (f *searchRepo) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	return nil
}

func (f *searchRepo) GetConversation(ctx context.Context, convID, ownerID string) (*models.Conversation, error) {
	return nil, domain.ErrNotFound
}

func (f *searchRepo) ListPage(ctx context.Context, ownerID string, limit int, cursor *models.Cursor) (*models.Page, error) {
	return &models.Page{}, nil
}

func (f *searchRepo) ListMessages(ctx context.Context, convID, ownerID string, since *time.Time) ([]models.Message, error) {
	return nil, nil
}

func (f *searchRepo) AppendMessage(ctx context.Context, convID, ownerID string, msg *models.Message) error {
	return nil
}

func (f *searchRepo) DeleteConversation(ctx context.Context, convID, ownerID string) error {
	return nil
}

func newTestServerClient(repo *searchRepo) *ServerClient {
	return NewServerClient(repo, testLogger())
}

func TestServerSearchRejectsShortQueryBeforeIO(t *testing.T) {
	repo := &searchRepo{}
	c := newTestServerClient(repo)

	_, err := c.Search(context.Background(), &models.SearchOptions{OwnerID: "u1", Query: "a"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if len(repo.calls) != 0 {
		t.Error("short query reached the store")
	}
}

func TestServerSearchTrimsBeforeLengthCheck(t *testing.T) {
	repo := &searchRepo{}
	c := newTestServerClient(repo)

	// One character wrapped in whitespace is still below the minimum.
	_, err := c.Search(context.Background(), &models.SearchOptions{OwnerID: "u1", Query: " a "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if len(repo.calls) != 0 {
		t.Error("padded sub-minimum query reached the store")
	}

	// A valid padded query reaches the store trimmed.
	if _, err := c.Search(context.Background(), &models.SearchOptions{OwnerID: "u1", Query: "  deploy  "}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(repo.calls) != 1 || repo.calls[0].Query != "deploy" {
		t.Errorf("store received %+v, want trimmed query %q", repo.calls, "deploy")
	}
}

func TestServerSearchRejectsOverlongQuery(t *testing.T) {
	repo := &searchRepo{}
	c := newTestServerClient(repo)

	_, err := c.Search(context.Background(), &models.SearchOptions{
		OwnerID: "u1",
		Query:   strings.Repeat("x", 101),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if len(repo.calls) != 0 {
		t.Error("overlong query reached the store")
	}
}

func TestServerSearchLimitDefaultsAndCeiling(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero gets default", 0, 50},
		{"negative gets default", -3, 50},
		{"within range kept", 25, 25},
		{"above ceiling clamped", 500, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &searchRepo{}
			c := newTestServerClient(repo)

			if _, err := c.Search(context.Background(), &models.SearchOptions{
				OwnerID: "u1",
				Query:   "deploy",
				Limit:   tt.limit,
			}); err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(repo.calls) != 1 {
				t.Fatalf("store called %d times, want 1", len(repo.calls))
			}
			if got := repo.calls[0].Limit; got != tt.want {
				t.Errorf("limit passed to store = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestServerSearchReportsTrueTotal(t *testing.T) {
	capped := make([]models.ConversationSummary, 50)
	for i := range capped {
		capped[i] = models.ConversationSummary{ID: fmt.Sprintf("c%03d", i)}
	}
	repo := &searchRepo{results: &models.SearchResults{Results: capped, TotalMatches: 547}}
	c := newTestServerClient(repo)

	got, err := c.Search(context.Background(), &models.SearchOptions{OwnerID: "u1", Query: "the"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got.Results) != 50 {
		t.Errorf("results = %d, want 50", len(got.Results))
	}
	if got.TotalMatches != 547 {
		t.Errorf("TotalMatches = %d, want 547", got.TotalMatches)
	}
}

func TestServerSearchNoMatchesIsNotAnError(t *testing.T) {
	repo := &searchRepo{}
	c := newTestServerClient(repo)

	got, err := c.Search(context.Background(), &models.SearchOptions{OwnerID: "u1", Query: "zzzzz"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got.Results) != 0 {
		t.Errorf("results = %d, want 0", len(got.Results))
	}
}

func TestServerSearchPropagatesStoreFailure(t *testing.T) {
	repo := &searchRepo{err: fmt.Errorf("search: %w", domain.ErrStoreUnavailable)}
	c := newTestServerClient(repo)

	_, err := c.Search(context.Background(), &models.SearchOptions{OwnerID: "u1", Query: "deploy"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}
}
