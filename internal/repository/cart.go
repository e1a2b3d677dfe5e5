package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sereneleaf/backend/internal/domain/cart"
)

const (
	getCartSQL = `SELECT user_id, items, created_at, updated_at FROM carts WHERE user_id = $1`

	saveCartSQL = `INSERT INTO carts (user_id, items) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`

	deleteCartSQL = `DELETE FROM carts WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Line items
// live in a JSONB column keyed by user.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByUser returns the user's cart, or cart.ErrNotFound when none exists.
func (r *CartRepository) GetByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	var (
		c     cart.Cart
		items []byte
	)
	err := r.pool.QueryRow(ctx, getCartSQL, userID).Scan(&c.UserID, &items, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart for user %q: %w", userID, err)
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, fmt.Errorf("decoding cart items for user %q: %w", userID, err)
	}
	return &c, nil
}

// Save upserts the cart keyed by its user.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("encoding cart items: %w", err)
	}
	if _, err := r.pool.Exec(ctx, saveCartSQL, c.UserID, items); err != nil {
		return fmt.Errorf("saving cart for user %q: %w", c.UserID, err)
	}
	return nil
}

// DeleteByUser removes the user's cart. Deleting a missing cart is not an
// error.
func (r *CartRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, deleteCartSQL, userID); err != nil {
		return fmt.Errorf("deleting cart for user %q: %w", userID, err)
	}
	return nil
}
