package transport

import (
	"errors"
	"net/http"

	"storefront/internal/inventory"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	CategoryID  *string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	ImageURL    string  `json:"image_url"`
	Stock       *int    `json:"stock" validate:"required,gte=0"`
}

// UpdateProductRequest represents the product update payload. Stock is
// optional; when omitted the stock level is left untouched.
type UpdateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	CategoryID  *string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	ImageURL    string  `json:"image_url"`
	Stock       *int    `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

// BuyRequest represents the purchase payload
type BuyRequest struct {
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	RequestID string `json:"requestId"`
}

// BuyResponse represents a committed purchase
type BuyResponse struct {
	Status    string `json:"status"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Stock     int    `json:"stock"`
	Version   int64  `json:"version"`
}

// ProductHandler handles HTTP requests for catalog and purchase operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, buyLimiter func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	r.Get("/top-products", h.TopProducts)

	r.Group(func(r chi.Router) {
		if buyLimiter != nil {
			r.Use(buyLimiter)
		}
		r.Post("/buy/{id}", h.Buy)
	})
}

// List handles the cached product listing
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "failed to fetch products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Get handles fetching a single product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err), zap.String("product_id", id.String()))
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "failed to fetch product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	categoryID, err := parseOptionalUUID(req.CategoryID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	product, err := h.productService.Create(r.Context(), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  categoryID,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	})
	if err != nil {
		h.logger.Error("Product creation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles product updates
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	categoryID, err := parseOptionalUUID(req.CategoryID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	product, err := h.productService.Update(r.Context(), id, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  categoryID,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		if errors.Is(err, service.ErrStockConflict) {
			middleware.RespondWithError(w, http.StatusConflict, "stock adjustment conflict, please retry")
			return
		}
		h.logger.Error("Product update failed", zap.Error(err), zap.String("product_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles product removal
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Product deletion failed", zap.Error(err), zap.String("product_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TopProducts handles the cached top-products aggregate
func (h *ProductHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	top, err := h.productService.TopProducts(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			// Empty catalog
			middleware.RespondWithJSON(w, http.StatusOK, struct{}{})
			return
		}
		h.logger.Error("Failed to fetch top products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "failed to fetch top products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, top)
}

// Buy handles a purchase request and maps reservation outcomes to status codes
func (h *ProductHandler) Buy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req BuyRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Buy validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.productService.Buy(r.Context(), id, req.Quantity, req.RequestID)
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrInvalidQuantity):
			middleware.RespondWithError(w, http.StatusBadRequest, "quantity must be a positive integer")
		case errors.Is(err, inventory.ErrNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, inventory.ErrConflict):
			middleware.RespondWithError(w, http.StatusConflict, "purchase conflicted with concurrent updates, please retry")
		case errors.Is(err, inventory.ErrTimeout):
			middleware.RespondWithError(w, http.StatusConflict, "purchase timed out waiting for contended product, please retry")
		case errors.Is(err, inventory.ErrStorageUnavailable):
			h.logger.Error("Inventory store unavailable", zap.Error(err))
			middleware.RespondWithError(w, http.StatusServiceUnavailable, "inventory temporarily unavailable")
		default:
			h.logger.Error("Buy failed", zap.Error(err), zap.String("product_id", id.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to process purchase")
		}
		return
	}

	if outcome.Status == inventory.StatusInsufficientStock {
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, "not enough stock", map[string]interface{}{
			"available": outcome.NewStock,
			"requested": outcome.Quantity,
		})
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, BuyResponse{
		Status:    string(outcome.Status),
		ProductID: outcome.ProductID.String(),
		Quantity:  outcome.Quantity,
		Stock:     outcome.NewStock,
		Version:   outcome.Version,
	})
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
