package catalogsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/repositories"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/metrics"
)

// Syncer reconciles the catalog table against the external registry.
// Only one run executes at a time; concurrent triggers get
// domain.ErrSyncInProgress instead of queueing.
type Syncer struct {
	fetcher     Fetcher
	catalogRepo repositories.CatalogRepository
	runRepo     repositories.SyncRunRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
	now         func() time.Time

	mu sync.Mutex
}

// NewSyncer creates a syncer.
func NewSyncer(
	fetcher Fetcher,
	catalogRepo repositories.CatalogRepository,
	runRepo repositories.SyncRunRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *Syncer {
	return &Syncer{
		fetcher:     fetcher,
		catalogRepo: catalogRepo,
		runRepo:     runRepo,
		txManager:   txManager,
		logger:      logger,
		now:         time.Now,
	}
}

// Run executes one sync. The catalog changes atomically: either every
// upsert and the inactive sweep land together, or none do. A failed
// run is still recorded in the run history.
func (s *Syncer) Run(ctx context.Context) (*models.SyncRun, error) {
	if !s.mu.TryLock() {
		return nil, domain.ErrSyncInProgress
	}
	defer s.mu.Unlock()

	started := s.now()
	run := &models.SyncRun{
		ID:        uuid.NewString(),
		StartedAt: started.UTC(),
	}

	entries, err := s.fetcher.FetchModels(ctx)
	if err == nil && len(entries) == 0 {
		// An empty registry response would inactivate the whole
		// catalog; refuse it.
		err = fmt.Errorf("registry returned no models")
	}
	if err == nil {
		err = s.apply(ctx, entries, run)
	}

	run.DurationMs = s.now().Sub(started).Milliseconds()
	metrics.CatalogSyncDuration.Observe(s.now().Sub(started).Seconds())

	if err != nil {
		run.Status = models.SyncStatusFailed
		run.Error = err.Error()
		metrics.CatalogSyncRuns.WithLabelValues("failed").Inc()
		s.recordRun(ctx, run)
		s.logger.Error("catalog sync failed",
			"run_id", run.ID,
			"error", err,
		)
		return run, err
	}

	run.Status = models.SyncStatusSuccess
	metrics.CatalogSyncRuns.WithLabelValues("success").Inc()
	s.recordRun(ctx, run)
	s.logger.Info("catalog sync completed",
		"run_id", run.ID,
		"added", run.Added,
		"updated", run.Updated,
		"marked_inactive", run.MarkedInactive,
		"duration_ms", run.DurationMs,
	)

	return run, nil
}

func (s *Syncer) apply(ctx context.Context, entries []models.CatalogEntry, run *models.SyncRun) error {
	return s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		keep := make([]string, 0, len(entries))
		for i := range entries {
			result, err := s.catalogRepo.UpsertEntry(ctx, &entries[i])
			if err != nil {
				return fmt.Errorf("upsert %s: %w", entries[i].ModelID, err)
			}
			// Unchanged rows are not counted: a sync against an
			// unchanged registry reports zero deltas.
			switch result {
			case repositories.UpsertInserted:
				run.Added++
			case repositories.UpsertChanged:
				run.Updated++
			}
			keep = append(keep, entries[i].ModelID)
		}

		marked, err := s.catalogRepo.MarkInactiveExcept(ctx, keep)
		if err != nil {
			return fmt.Errorf("mark inactive: %w", err)
		}
		run.MarkedInactive = marked
		return nil
	})
}

// recordRun persists the run summary outside the sync transaction so
// failed runs leave a trace too.
func (s *Syncer) recordRun(ctx context.Context, run *models.SyncRun) {
	if err := s.runRepo.RecordRun(ctx, run); err != nil {
		s.logger.Warn("failed to record sync run",
			"run_id", run.ID,
			"error", err,
		)
	}
}
