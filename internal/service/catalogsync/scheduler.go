package catalogsync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain"
)

// Scheduler runs catalog syncs on a fixed interval until its context
// is cancelled.
type Scheduler struct {
	syncer   *Syncer
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler. A non-positive interval disables
// periodic syncs entirely.
func NewScheduler(syncer *Syncer, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the sync loop in a goroutine. One sync runs
// immediately so a fresh deployment has a catalog before the first
// tick.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("periodic catalog sync disabled")
		return
	}

	go func() {
		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("catalog sync scheduler stopped")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	_, err := s.syncer.Run(ctx)
	if errors.Is(err, domain.ErrSyncInProgress) {
		s.logger.Debug("catalog sync already running, skipping tick")
	}
	// Other failures are logged by the syncer itself.
}
