package transport

import (
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateCommentRequest represents the comment creation payload
type CreateCommentRequest struct {
	Text     string  `json:"text" validate:"required"`
	ParentID *string `json:"parentId,omitempty" validate:"omitempty,uuid"`
}

// CommentHandler handles HTTP requests for nested comments
type CommentHandler struct {
	commentService service.CommentService
	logger         *zap.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentService service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger,
	}
}

// RegisterRoutes registers all comment routes
func (h *CommentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/comments", func(r chi.Router) {
		r.Get("/", h.Thread)
		r.Post("/", h.Create)
	})
}

// Create handles comment creation, optionally as a reply
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Comment creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid parent ID")
		return
	}

	comment, err := h.commentService.Create(r.Context(), req.Text, parentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "parent comment not found")
			return
		}
		h.logger.Error("Comment creation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create comment")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, comment)
}

// Thread handles hierarchical comment retrieval
func (h *CommentHandler) Thread(w http.ResponseWriter, r *http.Request) {
	thread, err := h.commentService.Thread(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrCyclicHierarchy) {
			h.logger.Warn("Cyclic comment thread detected")
			middleware.RespondWithError(w, http.StatusUnprocessableEntity, "comment thread contains a cycle")
			return
		}
		h.logger.Error("Failed to fetch comment thread", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch comments")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, thread)
}
