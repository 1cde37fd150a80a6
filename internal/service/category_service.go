package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrCyclicHierarchy is returned when the category graph contains a cycle.
	// A malformed hierarchy must fail instead of recursing indefinitely.
	ErrCyclicHierarchy = errors.New("category hierarchy contains a cycle")
)

// CategoryService defines the interface for category business logic.
type CategoryService interface {
	Create(ctx context.Context, name, description string, parentID *uuid.UUID) (*domain.Category, error)
	Hierarchy(ctx context.Context, rootID uuid.UUID) (*domain.CategoryNode, error)
	List(ctx context.Context) ([]*domain.Category, error)
}

type categoryService struct {
	repo   repository.CategoryRepository
	logger *zap.Logger
}

// NewCategoryService creates a new instance of CategoryService.
func NewCategoryService(repo repository.CategoryRepository, logger *zap.Logger) CategoryService {
	return &categoryService{
		repo:   repo,
		logger: logger,
	}
}

// Create inserts a new category, optionally parented to an existing one.
func (s *categoryService) Create(ctx context.Context, name, description string, parentID *uuid.UUID) (*domain.Category, error) {
	if parentID != nil {
		if _, err := s.repo.FindByID(ctx, *parentID); err != nil {
			return nil, fmt.Errorf("invalid parent: %w", err)
		}
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		ParentID:    parentID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("Category created",
		zap.String("category_id", category.ID.String()),
		zap.String("name", category.Name),
	)
	return category, nil
}

// List returns all categories.
func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.List(ctx)
}

// Hierarchy builds the category tree rooted at rootID. The traversal keeps a
// visited set; revisiting a category means the stored graph has a cycle and the
// call fails with ErrCyclicHierarchy.
func (s *categoryService) Hierarchy(ctx context.Context, rootID uuid.UUID) (*domain.CategoryNode, error) {
	root, err := s.repo.FindByID(ctx, rootID)
	if err != nil {
		return nil, err
	}

	// One read for the whole tree; children are resolved in memory.
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	children := make(map[uuid.UUID][]*domain.Category)
	for _, category := range all {
		if category.ParentID == nil {
			continue
		}
		children[*category.ParentID] = append(children[*category.ParentID], category)
	}

	visited := map[uuid.UUID]bool{}
	return buildCategoryNode(root, children, visited)
}

func buildCategoryNode(category *domain.Category, children map[uuid.UUID][]*domain.Category, visited map[uuid.UUID]bool) (*domain.CategoryNode, error) {
	if visited[category.ID] {
		return nil, fmt.Errorf("%w: category %s revisited", ErrCyclicHierarchy, category.ID)
	}
	visited[category.ID] = true

	node := &domain.CategoryNode{
		Category:      *category,
		Subcategories: []*domain.CategoryNode{},
	}

	for _, child := range children[category.ID] {
		childNode, err := buildCategoryNode(child, children, visited)
		if err != nil {
			return nil, err
		}
		node.Subcategories = append(node.Subcategories, childNode)
	}

	return node, nil
}
