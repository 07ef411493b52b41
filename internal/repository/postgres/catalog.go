package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/repositories"
)

// PostgresCatalogRepository implements CatalogRepository using PostgreSQL
type PostgresCatalogRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewCatalogRepository creates a new PostgresCatalogRepository
func NewCatalogRepository(config *RepositoryConfig) repositories.CatalogRepository {
	return &PostgresCatalogRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const catalogColumns = `model_id, name, description, context_length,
	prompt_price, completion_price, status, is_free, is_pro, is_enterprise,
	created_at, last_synced_at`

// ListEntries returns every catalog entry
func (r *PostgresCatalogRepository) ListEntries(ctx context.Context) ([]models.CatalogEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY model_id ASC
	`, catalogColumns, r.tables.ModelCatalog)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list catalog entries: %w", err)
	}
	defer rows.Close()

	entries := []models.CatalogEntry{}
	for rows.Next() {
		var e models.CatalogEntry
		err := rows.Scan(
			&e.ModelID,
			&e.Name,
			&e.Description,
			&e.ContextLength,
			&e.PromptPrice,
			&e.CompletionPrice,
			&e.Status,
			&e.IsFree,
			&e.IsPro,
			&e.IsEnterprise,
			&e.CreatedAt,
			&e.LastSyncedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog entries: %w", err)
	}

	return entries, nil
}

// GetEntry retrieves one entry by model ID
func (r *PostgresCatalogRepository) GetEntry(ctx context.Context, modelID string) (*models.CatalogEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE model_id = $1
	`, catalogColumns, r.tables.ModelCatalog)

	var e models.CatalogEntry
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, modelID).Scan(
		&e.ModelID,
		&e.Name,
		&e.Description,
		&e.ContextLength,
		&e.PromptPrice,
		&e.CompletionPrice,
		&e.Status,
		&e.IsFree,
		&e.IsPro,
		&e.IsEnterprise,
		&e.CreatedAt,
		&e.LastSyncedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("catalog entry %s: %w", modelID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get catalog entry: %w", err)
	}

	return &e, nil
}

// UpsertEntry inserts a model first seen in the external catalog, or
// refreshes the metadata of a known one. The conflict arm deliberately
// leaves status and tier flags alone: sync updates what a model *is*,
// never who may use it. Inserts hard-code status "new" and all-false
// flags regardless of what the caller filled in (fail-safe default).
//
// The DO UPDATE arm only fires when the metadata actually differs, so
// a sync against an unchanged registry reports every row unchanged and
// only refreshes last_synced_at.
func (r *PostgresCatalogRepository) UpsertEntry(ctx context.Context, entry *models.CatalogEntry) (repositories.UpsertResult, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (model_id, name, description, context_length, prompt_price, completion_price,
		                status, is_free, is_pro, is_enterprise, created_at, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'new', FALSE, FALSE, FALSE, $7, $7)
		ON CONFLICT (model_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			context_length = EXCLUDED.context_length,
			prompt_price = EXCLUDED.prompt_price,
			completion_price = EXCLUDED.completion_price,
			last_synced_at = EXCLUDED.last_synced_at
		WHERE (%[1]s.name, %[1]s.description, %[1]s.context_length, %[1]s.prompt_price, %[1]s.completion_price)
			IS DISTINCT FROM (EXCLUDED.name, EXCLUDED.description, EXCLUDED.context_length, EXCLUDED.prompt_price, EXCLUDED.completion_price)
		RETURNING (xmax = 0)
	`, r.tables.ModelCatalog)

	now := time.Now().UTC()
	var inserted bool
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		entry.ModelID,
		entry.Name,
		entry.Description,
		entry.ContextLength,
		entry.PromptPrice,
		entry.CompletionPrice,
		now,
	).Scan(&inserted)
	if err != nil {
		if IsPgNoRowsError(err) {
			// Conflict with identical metadata: the guarded update did
			// not fire. Refresh the sync timestamp on its own.
			touch := fmt.Sprintf(`UPDATE %s SET last_synced_at = $1 WHERE model_id = $2`, r.tables.ModelCatalog)
			if _, err := executor.Exec(ctx, touch, now, entry.ModelID); err != nil {
				return repositories.UpsertUnchanged, fmt.Errorf("touch catalog entry %s: %w", entry.ModelID, err)
			}
			return repositories.UpsertUnchanged, nil
		}
		return repositories.UpsertUnchanged, fmt.Errorf("upsert catalog entry %s: %w", entry.ModelID, err)
	}

	if inserted {
		return repositories.UpsertInserted, nil
	}
	return repositories.UpsertChanged, nil
}

// MarkInactiveExcept soft-removes every entry missing from the latest
// external fetch. Already-inactive and disabled entries are left alone
// so repeated syncs with an unchanged catalog report zero deltas.
func (r *PostgresCatalogRepository) MarkInactiveExcept(ctx context.Context, keep []string) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'inactive', last_synced_at = $1
		WHERE status IN ('new', 'active') AND NOT (model_id = ANY($2))
	`, r.tables.ModelCatalog)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, time.Now().UTC(), keep)
	if err != nil {
		return 0, fmt.Errorf("mark catalog entries inactive: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// SetEntryAccess updates lifecycle status and tier flags (operator
// promotion path)
func (r *PostgresCatalogRepository) SetEntryAccess(ctx context.Context, modelID string, status models.ModelStatus, isFree, isPro, isEnterprise bool) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, is_free = $2, is_pro = $3, is_enterprise = $4
		WHERE model_id = $5
	`, r.tables.ModelCatalog)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, status, isFree, isPro, isEnterprise, modelID)
	if err != nil {
		return fmt.Errorf("set catalog entry access: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog entry %s: %w", modelID, domain.ErrNotFound)
	}

	return nil
}

// PostgresSyncRunRepository implements SyncRunRepository using PostgreSQL
type PostgresSyncRunRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSyncRunRepository creates a new PostgresSyncRunRepository
func NewSyncRunRepository(config *RepositoryConfig) repositories.SyncRunRepository {
	return &PostgresSyncRunRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// RecordRun persists a sync run summary
func (r *PostgresSyncRunRepository) RecordRun(ctx context.Context, run *models.SyncRun) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, status, added, updated, marked_inactive, duration_ms, error, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
	`, r.tables.SyncRuns)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		run.ID,
		run.Status,
		run.Added,
		run.Updated,
		run.MarkedInactive,
		run.DurationMs,
		run.Error,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs, newest first
func (r *PostgresSyncRunRepository) ListRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	query := fmt.Sprintf(`
		SELECT id, status, added, updated, marked_inactive, duration_ms, COALESCE(error, ''), started_at
		FROM %s
		ORDER BY started_at DESC
		LIMIT $1
	`, r.tables.SyncRuns)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	runs := []models.SyncRun{}
	for rows.Next() {
		var run models.SyncRun
		err := rows.Scan(
			&run.ID,
			&run.Status,
			&run.Added,
			&run.Updated,
			&run.MarkedInactive,
			&run.DurationMs,
			&run.Error,
			&run.StartedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync runs: %w", err)
	}

	return runs, nil
}
