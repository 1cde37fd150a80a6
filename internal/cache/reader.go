package cache

import (
	"context"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Aggregate cache keys. Both depend on every product they contain, so any
// committed stock mutation drops them via the reverse index.
const (
	KeyAllProducts = "products:all"
	KeyTopProducts = "products:top"
)

const topProductsLimit = 5

// ProductKey returns the cache key for a single product.
func ProductKey(id uuid.UUID) string {
	return "product:" + id.String()
}

// Store is the slice of the inventory store the reader fetches from on a miss.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListAll(ctx context.Context) ([]*domain.Product, error)
	TopByPrice(ctx context.Context, limit int) ([]*domain.Product, error)
	FindMaxStock(ctx context.Context) (*domain.Product, error)
}

// TopProducts is the aggregate served by the top-products endpoint: the most
// expensive in-stock products plus the product with the highest stock level.
type TopProducts struct {
	TopByPrice  []*domain.Product `json:"top_by_price"`
	MostStocked *domain.Product   `json:"most_stocked"`
}

// ProductReader is the read-through layer in front of the inventory store.
// Concurrent misses for the same key collapse into a single store fetch, and
// results are published with PutIfFresh so a fetch racing a committed write
// never reinstalls stale data.
type ProductReader struct {
	cache  *Cache
	store  Store
	group  singleflight.Group
	logger *zap.Logger
}

// NewProductReader creates a read-through product reader.
func NewProductReader(c *Cache, store Store, logger *zap.Logger) *ProductReader {
	return &ProductReader{
		cache:  c,
		store:  store,
		logger: logger,
	}
}

// Cache exposes the underlying cache, e.g. to wire it into the coordinator as
// the invalidation target.
func (r *ProductReader) Cache() *Cache {
	return r.cache
}

// ListProducts returns the full product listing, cached under KeyAllProducts.
func (r *ProductReader) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	if cached, ok := r.cache.Get(KeyAllProducts); ok {
		return cached.([]*domain.Product), nil
	}

	value, err, shared := r.group.Do(KeyAllProducts, func() (interface{}, error) {
		gen := r.cache.Generation(KeyAllProducts)

		products, err := r.store.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch product listing: %w", err)
		}

		ids := productIDs(products)
		if !r.cache.PutIfFresh(KeyAllProducts, products, maxVersion(products), gen, ids...) {
			r.logger.Debug("Listing fetch raced an invalidation, not cached")
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.logger.Debug("Listing fetch shared across concurrent misses")
	}

	return value.([]*domain.Product), nil
}

// GetProduct returns one product, cached under its own key.
func (r *ProductReader) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	key := ProductKey(id)

	if cached, ok := r.cache.Get(key); ok {
		return cached.(*domain.Product), nil
	}

	value, err, _ := r.group.Do(key, func() (interface{}, error) {
		gen := r.cache.Generation(key)

		product, err := r.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		r.cache.PutIfFresh(key, product, product.Version, gen, product.ID)
		return product, nil
	})
	if err != nil {
		return nil, err
	}

	return value.(*domain.Product), nil
}

// TopProducts returns the top-products aggregate, cached under KeyTopProducts.
func (r *ProductReader) TopProducts(ctx context.Context) (*TopProducts, error) {
	if cached, ok := r.cache.Get(KeyTopProducts); ok {
		return cached.(*TopProducts), nil
	}

	value, err, _ := r.group.Do(KeyTopProducts, func() (interface{}, error) {
		gen := r.cache.Generation(KeyTopProducts)

		top, err := r.store.TopByPrice(ctx, topProductsLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch top products: %w", err)
		}

		mostStocked, err := r.store.FindMaxStock(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch most stocked product: %w", err)
		}

		result := &TopProducts{TopByPrice: top, MostStocked: mostStocked}

		ids := productIDs(top)
		ids = append(ids, mostStocked.ID)
		r.cache.PutIfFresh(KeyTopProducts, result, maxVersion(top), gen, ids...)
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return value.(*TopProducts), nil
}

func productIDs(products []*domain.Product) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
	}
	return ids
}

func maxVersion(products []*domain.Product) int64 {
	var max int64
	for _, product := range products {
		if product.Version > max {
			max = product.Version
		}
	}
	return max
}
