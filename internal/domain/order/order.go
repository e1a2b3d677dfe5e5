// Package order defines customer orders and the checkout flow that creates
// them from carts.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors surfaced by the order domain.
var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrInvalidPayment    = errors.New("unknown payment method")
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// transitions lists the allowed status changes. Paid and cancelled are
// terminal.
var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
}

// CanTransition reports whether an order in status s may move to next.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// PaymentMethod identifies how the customer intends to pay.
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentMomo       PaymentMethod = "momo"
	PaymentVNPay      PaymentMethod = "vnpay"
)

// Valid reports whether the payment method is one of the known values.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentMomo, PaymentVNPay:
		return true
	}
	return false
}

// Item is an order line item. Name and UnitPrice snapshot the product at time
// of purchase; later catalog changes do not affect persisted orders.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Order is an immutable purchase record created once per checkout.
type Order struct {
	ID            string
	UserID        string
	Items         []Item
	TotalAmount   decimal.Decimal
	Status        Status
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TransitionTo moves the order to the next status, enforcing the allowed
// transitions (pending -> paid, pending -> cancelled).
func (o *Order) TransitionTo(next Status) error {
	if !next.Valid() {
		return errors.Wrapf(ErrInvalidTransition, "unknown status %q", next)
	}
	if !o.Status.CanTransition(next) {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", o.Status, next)
	}
	o.Status = next
	return nil
}

// Repository defines persistence operations for orders.
type Repository interface {
	// CreateCheckout atomically decrements stock for every line item,
	// persists the order, and deletes the user's cart. When any product's
	// remaining stock is insufficient it returns an OutOfStockError and
	// leaves the store untouched.
	CreateCheckout(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
	Delete(ctx context.Context, id string) error
}
