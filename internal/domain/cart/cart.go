// Package cart defines the per-user shopping cart.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors surfaced by the cart domain.
var (
	ErrNotFound     = errors.New("cart not found")
	ErrItemNotFound = errors.New("product not in cart")
)

// Item is a pending line item referencing a product by ID.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart holds a user's pending line items. There is at most one cart per user;
// it is consumed and deleted at checkout.
type Cart struct {
	UserID    string
	Items     []Item
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New returns an empty cart for the given user.
func New(userID string) *Cart {
	return &Cart{UserID: userID}
}

// Add merges quantity into an existing line item for the product, or appends
// a new line item when the product is not yet in the cart.
func (c *Cart) Add(productID string, quantity int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
}

// SetQuantity replaces the quantity of an existing line item.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotFound
}

// Remove drops the line item for the product, if present.
func (c *Cart) Remove(productID string) {
	items := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			items = append(items, it)
		}
	}
	c.Items = items
}

// Clear removes every line item.
func (c *Cart) Clear() {
	c.Items = nil
}

// TotalQuantity is the sum of all line item quantities.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}

// Repository defines persistence operations for carts.
type Repository interface {
	// GetByUser returns the user's cart, or ErrNotFound when none exists.
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	// Save upserts the cart keyed by its user.
	Save(ctx context.Context, c *Cart) error
	// DeleteByUser removes the user's cart. Deleting a missing cart is not
	// an error.
	DeleteByUser(ctx context.Context, userID string) error
}
