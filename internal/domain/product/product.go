// Package product defines the catalog product entity and its persistence
// contract.
package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a sellable catalog item. Quantity is the current stock counter,
// decremented by checkout and never replenished automatically.
type Product struct {
	ID               string
	Name             string
	Slug             string
	ShortDescription string
	Description      string
	Price            decimal.Decimal
	Quantity         int
	Category         string
	ImageURL         string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Filter narrows, sorts, and paginates product listings.
type Filter struct {
	Search   string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	IsActive *bool
	SortBy   string
	Order    string
	Page     int
	Limit    int
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	List(ctx context.Context, f Filter) ([]Product, int, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
}
