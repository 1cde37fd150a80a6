package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog. Stock and Version are the only
// fields under concurrency control: every committed stock mutation bumps Version
// by one, and conditional updates use it for optimistic-concurrency detection.
type Product struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Price       float64    `json:"price" db:"price"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty" db:"category_id"`
	ImageURL    string     `json:"image_url" db:"image_url"`
	Stock       int        `json:"stock" db:"stock"`
	Version     int64      `json:"version" db:"version"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Category represents a product category. Categories form a tree through
// ParentID; a nil ParentID marks a root category.
type Category struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// CategoryNode is a category with its subcategories resolved recursively.
type CategoryNode struct {
	Category
	Subcategories []*CategoryNode `json:"subcategories"`
}

// Comment represents a product discussion comment. Comments nest through
// ParentID the same way categories do.
type Comment struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Text      string     `json:"text" db:"text"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// CommentNode is a comment with its replies resolved recursively.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}
