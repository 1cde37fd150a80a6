package inventory

import (
	"context"
	"time"

	"storefront/internal/metrics"

	"go.uber.org/zap"
)

const (
	defaultCleanupInterval  = time.Minute
	defaultCleanupBatchSize = 500
)

// CleanupWorker periodically purges expired entries from the reservation
// journal so the dedup window does not grow without bound.
type CleanupWorker struct {
	journal   *Journal
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
}

// NewCleanupWorker creates a journal cleanup worker. Non-positive interval or
// batch size fall back to defaults.
func NewCleanupWorker(journal *Journal, logger *zap.Logger, interval time.Duration, batchSize int) *CleanupWorker {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	if batchSize <= 0 {
		batchSize = defaultCleanupBatchSize
	}

	return &CleanupWorker{
		journal:   journal,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run purges expired entries until ctx is cancelled.
func (w *CleanupWorker) Run(ctx context.Context) {
	w.cleanup(time.Now().UTC())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Reservation journal cleanup stopped")
			return
		case <-ticker.C:
			w.cleanup(time.Now().UTC())
		}
	}
}

func (w *CleanupWorker) cleanup(before time.Time) {
	total := 0
	for {
		deleted := w.journal.DeleteExpired(before, w.batchSize)
		total += deleted
		if deleted < w.batchSize {
			break
		}
	}

	if total > 0 {
		metrics.JournalCleanupDeletedTotal.Add(float64(total))
		w.logger.Debug("Purged expired reservation journal entries",
			zap.Int("deleted", total),
		)
	}
}
