package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCategory(name string, parentID *uuid.UUID) *domain.Category {
	return &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: "test category",
		ParentID:    parentID,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestCategoryCreateAndFindByID(t *testing.T) {
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	category := newTestCategory("Coffee "+uuid.NewString(), nil)
	require.NoError(t, repo.Create(ctx, category))
	defer testDB.Exec("DELETE FROM categories WHERE id = $1", category.ID)

	retrieved, err := repo.FindByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, category.Name, retrieved.Name)
	assert.Nil(t, retrieved.ParentID)
}

func TestCategoryCreateDuplicateName(t *testing.T) {
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	name := "Duplicated " + uuid.NewString()
	first := newTestCategory(name, nil)
	require.NoError(t, repo.Create(ctx, first))
	defer testDB.Exec("DELETE FROM categories WHERE id = $1", first.ID)

	second := newTestCategory(name, nil)
	assert.ErrorIs(t, repo.Create(ctx, second), ErrCategoryAlreadyExists)
}

func TestCategoryFindByIDNotFound(t *testing.T) {
	repo := NewCategoryRepository(testDB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryListByParent(t *testing.T) {
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	parent := newTestCategory("Parent "+uuid.NewString(), nil)
	require.NoError(t, repo.Create(ctx, parent))
	defer testDB.Exec("DELETE FROM categories WHERE id = $1", parent.ID)

	childA := newTestCategory("A child "+uuid.NewString(), &parent.ID)
	childB := newTestCategory("B child "+uuid.NewString(), &parent.ID)
	unrelated := newTestCategory("Unrelated "+uuid.NewString(), nil)
	for _, c := range []*domain.Category{childA, childB, unrelated} {
		require.NoError(t, repo.Create(ctx, c))
		defer testDB.Exec("DELETE FROM categories WHERE id = $1", c.ID)
	}

	children, err := repo.ListByParent(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, childA.ID, children[0].ID)
	assert.Equal(t, childB.ID, children[1].ID)
	for _, child := range children {
		require.NotNil(t, child.ParentID)
		assert.Equal(t, parent.ID, *child.ParentID)
	}
}
