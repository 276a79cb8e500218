package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// EventPurger is satisfied by *database.AttributionRepository.
type EventPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionWorker periodically drops attribution events older than the
// retention window. Leads keep their own copy of attribution, so only the
// raw event trail is purged.
type RetentionWorker struct {
	repo         EventPurger
	retention    time.Duration
	tickInterval time.Duration
	now          func() time.Time
}

func NewRetentionWorker(repo EventPurger, retentionDays int) *RetentionWorker {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &RetentionWorker{
		repo:         repo,
		retention:    time.Duration(retentionDays) * 24 * time.Hour,
		tickInterval: time.Hour,
		now:          time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (w *RetentionWorker) Start(ctx context.Context) {
	zap.L().Info("retention worker started", zap.Duration("window", w.retention))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.purge(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("retention worker stopped")
			return
		case <-ticker.C:
			w.purge(ctx)
		}
	}
}

func (w *RetentionWorker) purge(ctx context.Context) int64 {
	cutoff := w.now().Add(-w.retention)
	n, err := w.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		zap.L().Error("retention purge failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		zap.L().Info("attribution events purged", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n
}
