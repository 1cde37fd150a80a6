package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidQuantity is returned for non-positive purchase quantities.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrNotFound is returned when the product does not exist.
	ErrNotFound = errors.New("product not found")

	// ErrConflict is returned when the conditional stock update keeps losing to
	// writers outside the coordinator and the retry budget runs out.
	ErrConflict = errors.New("stock update conflict, retries exhausted")

	// ErrTimeout is returned when the caller's deadline expires while waiting
	// for the per-product critical section.
	ErrTimeout = errors.New("timed out waiting for product lock")

	// ErrStorageUnavailable is returned when the inventory store fails. The
	// coordinator does not retry it; callers back off and resubmit.
	ErrStorageUnavailable = errors.New("inventory store unavailable")
)

// Status is the business result of a reservation.
type Status string

const (
	StatusCommitted         Status = "committed"
	StatusInsufficientStock Status = "insufficient_stock"
)

// Outcome is the result of a committed or rejected reservation. For
// StatusCommitted, NewStock and Version reflect the committed write; for
// StatusInsufficientStock no mutation occurred and Stock reports the level
// that was observed.
type Outcome struct {
	Status    Status    `json:"status"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	NewStock  int       `json:"stock"`
	Version   int64     `json:"version"`
}

// Store is the slice of the inventory store the coordinator depends on.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ConditionalUpdateStock(ctx context.Context, id uuid.UUID, expectedVersion int64, newStock int) (*domain.Product, error)
}

// Invalidator receives synchronous cache invalidation signals for committed
// stock mutations.
type Invalidator interface {
	InvalidateProduct(id uuid.UUID)
}

// noopInvalidator is used when no cache is attached.
type noopInvalidator struct{}

func (noopInvalidator) InvalidateProduct(uuid.UUID) {}

const defaultUpdateRetries = 5

// Coordinator serializes conflicting stock mutations per product. The
// read-check-write sequence of a reservation runs inside a per-product critical
// section, and the write itself is a version-conditioned update so that stock
// mutations arriving through other paths are still detected. Reservations on
// different products never contend.
type Coordinator struct {
	store         Store
	invalidator   Invalidator
	journal       *Journal
	locks         *keyedMutex
	logger        *zap.Logger
	updateRetries int
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithInvalidator attaches the cache coherence layer. Every committed
// reservation invalidates the product's cache entries before Reserve returns.
func WithInvalidator(inv Invalidator) CoordinatorOption {
	return func(c *Coordinator) {
		if inv != nil {
			c.invalidator = inv
		}
	}
}

// WithUpdateRetries bounds the conditional-update retry loop.
func WithUpdateRetries(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.updateRetries = n
		}
	}
}

// NewCoordinator creates a stock reservation coordinator.
func NewCoordinator(store Store, journal *Journal, logger *zap.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:         store,
		invalidator:   noopInvalidator{},
		journal:       journal,
		locks:         newKeyedMutex(),
		logger:        logger,
		updateRetries: defaultUpdateRetries,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Reserve atomically decrements the product's stock by quantity. Concurrent
// calls for the same product are serialized; a replayed requestID that already
// committed returns the recorded outcome without decrementing again.
//
// The returned error is one of ErrInvalidQuantity, ErrNotFound, ErrConflict,
// ErrTimeout or ErrStorageUnavailable; insufficient stock is not an error but
// an Outcome with StatusInsufficientStock.
func (c *Coordinator) Reserve(ctx context.Context, productID uuid.UUID, quantity int, requestID string) (Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.ReservationDuration.Observe(time.Since(start).Seconds())
	}()

	if quantity <= 0 {
		metrics.ReservationsTotal.WithLabelValues("invalid").Inc()
		return Outcome{}, ErrInvalidQuantity
	}

	// Fast path: a committed retry never touches the store.
	if outcome, ok := c.journal.Lookup(requestID); ok {
		metrics.ReservationsTotal.WithLabelValues("replayed").Inc()
		c.logger.Debug("Reservation replayed from journal",
			zap.String("request_id", requestID),
			zap.String("product_id", productID.String()),
		)
		return outcome, nil
	}

	if err := c.locks.Acquire(ctx, productID); err != nil {
		metrics.ReservationsTotal.WithLabelValues("timeout").Inc()
		return Outcome{}, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	defer c.locks.Release(productID)

	// A retry that raced us may have committed while we waited on the lock.
	if outcome, ok := c.journal.Lookup(requestID); ok {
		metrics.ReservationsTotal.WithLabelValues("replayed").Inc()
		return outcome, nil
	}

	return c.reserveLocked(ctx, productID, quantity, requestID)
}

func (c *Coordinator) reserveLocked(ctx context.Context, productID uuid.UUID, quantity int, requestID string) (Outcome, error) {
	for attempt := 1; attempt <= c.updateRetries; attempt++ {
		product, err := c.store.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				metrics.ReservationsTotal.WithLabelValues("not_found").Inc()
				return Outcome{}, ErrNotFound
			}
			metrics.ReservationsTotal.WithLabelValues("storage_unavailable").Inc()
			return Outcome{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}

		if product.Stock < quantity {
			metrics.ReservationsTotal.WithLabelValues("insufficient_stock").Inc()
			c.logger.Info("Reservation rejected, insufficient stock",
				zap.String("product_id", productID.String()),
				zap.Int("requested", quantity),
				zap.Int("available", product.Stock),
			)
			return Outcome{
				Status:    StatusInsufficientStock,
				ProductID: productID,
				Quantity:  quantity,
				NewStock:  product.Stock,
				Version:   product.Version,
			}, nil
		}

		updated, err := c.store.ConditionalUpdateStock(ctx, productID, product.Version, product.Stock-quantity)
		if err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				// An out-of-band writer moved the version; re-read and retry.
				c.logger.Debug("Stock version moved, retrying",
					zap.String("product_id", productID.String()),
					zap.Int("attempt", attempt),
				)
				continue
			}
			if errors.Is(err, repository.ErrProductNotFound) {
				metrics.ReservationsTotal.WithLabelValues("not_found").Inc()
				return Outcome{}, ErrNotFound
			}
			metrics.ReservationsTotal.WithLabelValues("storage_unavailable").Inc()
			return Outcome{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}

		outcome := Outcome{
			Status:    StatusCommitted,
			ProductID: productID,
			Quantity:  quantity,
			NewStock:  updated.Stock,
			Version:   updated.Version,
		}

		// Journal before invalidation so a replay arriving mid-invalidation
		// still observes the committed outcome.
		c.journal.Record(requestID, outcome)
		c.invalidator.InvalidateProduct(productID)

		metrics.ReservationsTotal.WithLabelValues("committed").Inc()
		c.logger.Info("Reservation committed",
			zap.String("product_id", productID.String()),
			zap.String("request_id", requestID),
			zap.Int("quantity", quantity),
			zap.Int("new_stock", updated.Stock),
			zap.Int64("version", updated.Version),
		)
		return outcome, nil
	}

	metrics.ReservationsTotal.WithLabelValues("conflict").Inc()
	return Outcome{}, ErrConflict
}
