package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryProduct(name string, price float64, stock int) *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryStoreConditionalUpdateStock(t *testing.T) {
	store := NewMemoryProductStore()
	ctx := context.Background()

	product := memoryProduct("widget", 1.00, 10)
	require.NoError(t, store.Create(ctx, product))

	updated, err := store.ConditionalUpdateStock(ctx, product.ID, 0, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Stock)
	assert.Equal(t, int64(1), updated.Version)

	_, err = store.ConditionalUpdateStock(ctx, product.ID, 0, 5)
	assert.ErrorIs(t, err, ErrVersionConflict)

	_, err = store.ConditionalUpdateStock(ctx, uuid.New(), 0, 5)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMemoryStoreConditionalUpdateStockRejectsNegative(t *testing.T) {
	store := NewMemoryProductStore()
	ctx := context.Background()

	product := memoryProduct("widget", 1.00, 10)
	require.NoError(t, store.Create(ctx, product))

	_, err := store.ConditionalUpdateStock(ctx, product.ID, 0, -1)
	assert.ErrorIs(t, err, ErrNegativeStock)

	current, err := store.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, current.Stock, "a rejected write must not touch the product")
	assert.Equal(t, int64(0), current.Version)
}

// Concurrent CAS writers against the same product: exactly one wins per version.
func TestMemoryStoreConcurrentConditionalUpdates(t *testing.T) {
	store := NewMemoryProductStore()
	ctx := context.Background()

	product := memoryProduct("contended", 1.00, 100)
	require.NoError(t, store.Create(ctx, product))

	const writers = 20
	var wg sync.WaitGroup
	wins := make(chan struct{}, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(stock int) {
			defer wg.Done()
			if _, err := store.ConditionalUpdateStock(ctx, product.ID, 0, stock); err == nil {
				wins <- struct{}{}
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "only one writer may consume version 0")

	current, err := store.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current.Version)
}

func TestMemoryStoreFindByIDReturnsCopy(t *testing.T) {
	store := NewMemoryProductStore()
	ctx := context.Background()

	product := memoryProduct("widget", 1.00, 10)
	require.NoError(t, store.Create(ctx, product))

	first, err := store.FindByID(ctx, product.ID)
	require.NoError(t, err)
	first.Stock = 0

	second, err := store.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, second.Stock, "mutating a returned product must not affect the store")
}

func TestMemoryStoreUpdateKeepsStockAndVersion(t *testing.T) {
	store := NewMemoryProductStore()
	ctx := context.Background()

	product := memoryProduct("widget", 1.00, 10)
	require.NoError(t, store.Create(ctx, product))

	_, err := store.ConditionalUpdateStock(ctx, product.ID, 0, 4)
	require.NoError(t, err)

	renamed := *product
	renamed.Name = "gadget"
	renamed.Stock = 999
	require.NoError(t, store.Update(ctx, &renamed))

	current, err := store.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "gadget", current.Name)
	assert.Equal(t, 4, current.Stock)
	assert.Equal(t, int64(1), current.Version)
}

func TestMemoryStoreListPagination(t *testing.T) {
	store := NewMemoryProductStore()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		product := memoryProduct("item", float64(i+1), i)
		product.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Create(ctx, product))
	}

	page, total, err := store.List(ctx, nil, 2, 2, "price", SortOrderAsc)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, float64(3), page[0].Price)
	assert.Equal(t, float64(4), page[1].Price)
}
