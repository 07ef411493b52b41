package repositories

import (
	"context"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

// UpsertResult classifies what an upsert did to a catalog row, so sync
// runs can count real changes and stay idempotent.
type UpsertResult int

const (
	// UpsertUnchanged means the row already matched the incoming
	// metadata; only last_synced_at was refreshed.
	UpsertUnchanged UpsertResult = iota
	// UpsertInserted means a new row was created.
	UpsertInserted
	// UpsertChanged means an existing row's metadata was rewritten.
	UpsertChanged
)

// CatalogRepository defines data access for the local model catalog.
type CatalogRepository interface {
	// ListEntries returns every catalog entry, active or not.
	ListEntries(ctx context.Context) ([]models.CatalogEntry, error)

	// GetEntry retrieves one entry by model ID.
	// Returns domain.ErrNotFound if absent.
	GetEntry(ctx context.Context, modelID string) (*models.CatalogEntry, error)

	// UpsertEntry inserts a new entry or updates the metadata of an
	// existing one. New entries keep status "new" and all tier flags
	// false regardless of input; updates never touch status or flags.
	// An existing row whose metadata already matches reports
	// UpsertUnchanged (last_synced_at still refreshes).
	UpsertEntry(ctx context.Context, entry *models.CatalogEntry) (UpsertResult, error)

	// MarkInactiveExcept transitions to "inactive" every entry whose
	// model ID is not in keep, and returns how many rows changed.
	// Entries are never deleted.
	MarkInactiveExcept(ctx context.Context, keep []string) (int, error)

	// SetEntryAccess updates an entry's lifecycle status and tier
	// flags. This is the operator promotion path; sync never calls it.
	SetEntryAccess(ctx context.Context, modelID string, status models.ModelStatus, isFree, isPro, isEnterprise bool) error
}

// SyncRunRepository records catalog sync run summaries.
type SyncRunRepository interface {
	// RecordRun persists a sync run summary.
	RecordRun(ctx context.Context, run *models.SyncRun) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
}
