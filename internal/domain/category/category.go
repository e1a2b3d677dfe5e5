// Package category defines product categories.
package category

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors surfaced by category repositories.
var (
	ErrNotFound  = errors.New("category not found")
	ErrNameTaken = errors.New("category name already exists")
)

// Category groups products for navigation. The slug is derived from the name
// and unique within the collection.
type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository defines persistence operations for product categories.
type Repository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
}
