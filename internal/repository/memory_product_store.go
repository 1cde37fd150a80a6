package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// MemoryProductStore is an in-memory ProductRepository guarded by a RWMutex.
// It backs the concurrency tests and serves as a development-mode store; the
// version semantics of ConditionalUpdateStock match the Postgres implementation.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[uuid.UUID]domain.Product
}

// NewMemoryProductStore creates an empty in-memory product store.
func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{
		products: make(map[uuid.UUID]domain.Product),
	}
}

func (s *MemoryProductStore) Create(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[product.ID] = *product
	return nil
}

func (s *MemoryProductStore) Update(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return ErrProductNotFound
	}

	// Display attributes only; stock and version stay untouched.
	existing.Name = product.Name
	existing.Description = product.Description
	existing.Price = product.Price
	existing.CategoryID = product.CategoryID
	existing.ImageURL = product.ImageURL
	existing.UpdatedAt = product.UpdatedAt
	s.products[product.ID] = existing
	return nil
}

func (s *MemoryProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryProductStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

func (s *MemoryProductStore) List(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.Product, 0, len(s.products))
	for _, product := range s.products {
		if categoryID != nil && (product.CategoryID == nil || *product.CategoryID != *categoryID) {
			continue
		}
		p := product
		all = append(all, &p)
	}

	sort.Slice(all, func(i, j int) bool {
		less := sortProductsLess(all[i], all[j], sortBy)
		if sortOrder == SortOrderAsc {
			return less
		}
		return !less
	})

	total := len(all)
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return all, total, nil
	}

	start := (page - 1) * pageSize
	if start >= total {
		return []*domain.Product{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *MemoryProductStore) ListAll(ctx context.Context) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.Product, 0, len(s.products))
	for _, product := range s.products {
		p := product
		all = append(all, &p)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

func (s *MemoryProductStore) TopByPrice(ctx context.Context, limit int) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inStock := make([]*domain.Product, 0, len(s.products))
	for _, product := range s.products {
		if product.Stock <= 0 {
			continue
		}
		p := product
		inStock = append(inStock, &p)
	}

	sort.Slice(inStock, func(i, j int) bool {
		return inStock[i].Price > inStock[j].Price
	})

	if limit > 0 && len(inStock) > limit {
		inStock = inStock[:limit]
	}
	return inStock, nil
}

func (s *MemoryProductStore) FindMaxStock(ctx context.Context) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.Product
	for _, product := range s.products {
		if best == nil || product.Stock > best.Stock {
			p := product
			best = &p
		}
	}

	if best == nil {
		return nil, ErrProductNotFound
	}
	return best, nil
}

func (s *MemoryProductStore) ConditionalUpdateStock(ctx context.Context, id uuid.UUID, expectedVersion int64, newStock int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newStock < 0 {
		return nil, ErrNegativeStock
	}

	product, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	if product.Version != expectedVersion {
		return nil, ErrVersionConflict
	}

	product.Stock = newStock
	product.Version++
	product.UpdatedAt = time.Now().UTC()
	s.products[id] = product

	updated := product
	return &updated, nil
}

func sortProductsLess(a, b *domain.Product, sortBy string) bool {
	switch sortBy {
	case "name":
		return a.Name < b.Name
	case "price":
		return a.Price < b.Price
	case "stock":
		return a.Stock < b.Stock
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

var _ ProductRepository = (*MemoryProductStore)(nil)
