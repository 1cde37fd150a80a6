package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/inventory"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const stockAdjustRetries = 5

var (
	// ErrStockConflict is returned when an administrative stock adjustment keeps
	// losing the version race against concurrent buyers.
	ErrStockConflict = errors.New("stock adjustment conflict, retries exhausted")
)

// ProductInput carries the writable product attributes. Stock is optional on
// update: when nil the stock level is left untouched.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	CategoryID  *uuid.UUID
	ImageURL    string
	Stock       *int
}

// ProductService defines the interface for catalog business logic. Reads go
// through the cache coherence layer; the buy path goes through the reservation
// coordinator.
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	TopProducts(ctx context.Context) (*cache.TopProducts, error)
	Buy(ctx context.Context, productID uuid.UUID, quantity int, requestID string) (inventory.Outcome, error)
}

type productService struct {
	repo           repository.ProductRepository
	reader         *cache.ProductReader
	coordinator    *inventory.Coordinator
	logger         *zap.Logger
	reserveTimeout time.Duration
}

// NewProductService creates a new instance of ProductService.
func NewProductService(
	repo repository.ProductRepository,
	reader *cache.ProductReader,
	coordinator *inventory.Coordinator,
	logger *zap.Logger,
	reserveTimeout time.Duration,
) ProductService {
	return &productService{
		repo:           repo,
		reader:         reader,
		coordinator:    coordinator,
		logger:         logger,
		reserveTimeout: reserveTimeout,
	}
}

// Create inserts a new catalog product with version zero.
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	now := time.Now().UTC()
	stock := 0
	if input.Stock != nil {
		stock = *input.Stock
	}

	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		ImageURL:    input.ImageURL,
		Stock:       stock,
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	// A new product changes the aggregate listings.
	s.reader.Cache().Invalidate(cache.KeyAllProducts, cache.KeyTopProducts)

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
		zap.Int("stock", product.Stock),
	)
	return product, nil
}

// Update modifies display attributes and, when input.Stock is set, resets the
// stock level through the same version-conditioned write the coordinator uses,
// so concurrent purchases are never silently overwritten.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	product.ImageURL = input.ImageURL
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	if input.Stock != nil {
		product, err = s.adjustStock(ctx, id, *input.Stock)
		if err != nil {
			return nil, err
		}
	}

	s.reader.Cache().InvalidateProduct(id)
	s.reader.Cache().Invalidate(cache.KeyAllProducts, cache.KeyTopProducts)

	return product, nil
}

func (s *productService) adjustStock(ctx context.Context, id uuid.UUID, newStock int) (*domain.Product, error) {
	for attempt := 0; attempt < stockAdjustRetries; attempt++ {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		updated, err := s.repo.ConditionalUpdateStock(ctx, id, current.Version, newStock)
		if err == nil {
			s.logger.Info("Stock adjusted",
				zap.String("product_id", id.String()),
				zap.Int("stock", newStock),
				zap.Int64("version", updated.Version),
			)
			return updated, nil
		}
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("%w: product %s", ErrStockConflict, id)
}

// Delete removes a product and drops its cache entries.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.reader.Cache().InvalidateProduct(id)
	s.reader.Cache().Invalidate(cache.KeyAllProducts, cache.KeyTopProducts)

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

// Get returns a single product through the cache.
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.reader.GetProduct(ctx, id)
}

// List returns the full product listing through the cache.
func (s *productService) List(ctx context.Context) ([]*domain.Product, error) {
	return s.reader.ListProducts(ctx)
}

// TopProducts returns the top-products aggregate through the cache.
func (s *productService) TopProducts(ctx context.Context) (*cache.TopProducts, error) {
	return s.reader.TopProducts(ctx)
}

// Buy reserves quantity units of the product. The wait for the per-product
// critical section is bounded by the configured reserve timeout.
func (s *productService) Buy(ctx context.Context, productID uuid.UUID, quantity int, requestID string) (inventory.Outcome, error) {
	if s.reserveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.reserveTimeout)
		defer cancel()
	}

	return s.coordinator.Reserve(ctx, productID, quantity, requestID)
}
