package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sereneleaf/backend/internal/domain/order"
)

const (
	orderColumns = `id, user_id, items, total_amount, status, payment_method, created_at, updated_at`

	createOrderSQL = `INSERT INTO orders (id, user_id, items, total_amount, status, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6)`

	// Conditional decrement: zero rows means another checkout got there
	// first and the remaining stock is insufficient.
	decrementStockSQL = `UPDATE products SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + orderColumns
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateCheckout persists the order, decrements stock for every line item,
// and deletes the user's cart in a single transaction. Any line item whose
// remaining stock is insufficient aborts the transaction with an
// OutOfStockError, so concurrent checkouts can never drive stock negative
// and an order is never persisted without its inventory reserved.
func (r *OrderRepository) CreateCheckout(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("beginning checkout tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	for _, it := range o.Items {
		tag, err := tx.Exec(ctx, decrementStockSQL, it.ProductID, it.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock for %q: %w", it.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return &order.OutOfStockError{ProductName: it.Name}
		}
	}

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, itemsJSON, o.TotalAmount, o.Status, o.PaymentMethod)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	if _, err := tx.Exec(ctx, deleteCartSQL, o.UserID); err != nil {
		return fmt.Errorf("deleting cart for user %q: %w", o.UserID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing checkout: %w", err)
	}
	return nil
}

// GetByID returns a single order by identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns every order, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateStatus stores the new status and returns the updated order. Status
// transition rules are enforced by the domain before this is called.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return nil, fmt.Errorf("updating order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("updating order %q: %w", id, err)
	}
	return &o, nil
}

// Delete removes an order.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o     order.Order
		items []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &items, &o.TotalAmount, &o.Status, &o.PaymentMethod,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return o, fmt.Errorf("decoding order items: %w", err)
	}
	return o, nil
}
