package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReservationsTotal counts reserve calls grouped by outcome
	// (committed, insufficient_stock, not_found, conflict, timeout, storage_unavailable, invalid, replayed).
	ReservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_reservations_total",
		Help: "Total number of stock reservation attempts grouped by outcome.",
	}, []string{"outcome"})

	// ReservationDuration observes end-to-end reserve latency.
	ReservationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_reservation_duration_seconds",
		Help:    "Duration of stock reservation calls.",
		Buckets: prometheus.DefBuckets,
	})

	// CacheRequestsTotal counts cache lookups grouped by result (hit, miss, expired).
	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cache_requests_total",
		Help: "Total number of cache lookups grouped by result.",
	}, []string{"result"})

	// CacheEvictionsTotal counts entries evicted by the LRU policy.
	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cache_evictions_total",
		Help: "Total number of cache entries evicted due to capacity limits.",
	})

	// CacheInvalidationsTotal counts entries dropped by invalidation signals.
	CacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cache_invalidations_total",
		Help: "Total number of cache entries removed by invalidation.",
	})

	// JournalCleanupDeletedTotal counts reservation journal entries removed by the cleanup worker.
	JournalCleanupDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_journal_cleanup_deleted_total",
		Help: "Total number of expired reservation journal entries deleted.",
	})
)
