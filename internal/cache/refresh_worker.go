package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultRefreshInterval = 30 * time.Second

// RefreshWorker re-warms the aggregate listing key in the background so the
// first read after an invalidation usually hits the cache. It is a latency
// optimization only: foreground reads never wait on it, and the coherence
// guarantees come from synchronous invalidation in the coordinator.
type RefreshWorker struct {
	reader   *ProductReader
	logger   *zap.Logger
	interval time.Duration
}

// NewRefreshWorker creates a background cache refresh worker.
func NewRefreshWorker(reader *ProductReader, logger *zap.Logger, interval time.Duration) *RefreshWorker {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	return &RefreshWorker{
		reader:   reader,
		logger:   logger,
		interval: interval,
	}
}

// Run refreshes the listing until ctx is cancelled.
func (w *RefreshWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Cache refresh worker stopped")
			return
		case <-ticker.C:
			if _, err := w.reader.ListProducts(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Warn("Background cache refresh failed", zap.Error(err))
			}
		}
	}
}
