package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sereneleaf/backend/internal/domain/cart"
	"github.com/sereneleaf/backend/internal/domain/product"
)

// ErrEmptyCart is returned when checkout is attempted with no cart or an
// empty one.
var ErrEmptyCart = errors.New("cart is empty")

// OutOfStockError indicates a line item requested more units than available.
type OutOfStockError struct {
	ProductName string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %q is out of stock", e.ProductName)
}

// ProductGoneError indicates a cart references a product that no longer
// exists in the catalog.
type ProductGoneError struct {
	ProductID string
}

func (e *ProductGoneError) Error() string {
	return fmt.Sprintf("product %s no longer exists", e.ProductID)
}

// Service converts carts into orders.
type Service struct {
	carts    cart.Repository
	products product.Repository
	orders   Repository
}

// NewService creates an order Service with the required dependencies.
func NewService(carts cart.Repository, products product.Repository, orders Repository) *Service {
	return &Service{
		carts:    carts,
		products: products,
		orders:   orders,
	}
}

// Checkout loads the user's cart, validates stock, computes the total, and
// hands the snapshot to the repository which atomically decrements inventory,
// persists the order, and deletes the cart.
//
// Items are scanned in cart order; the first one whose requested quantity
// exceeds current stock aborts the whole operation before anything is
// written. The repository re-checks stock inside its transaction, so two
// concurrent checkouts racing past this scan can never drive stock negative:
// the loser gets an OutOfStockError.
func (s *Service) Checkout(ctx context.Context, userID string, method PaymentMethod) (*Order, error) {
	if method == "" {
		method = PaymentCash
	}
	if !method.Valid() {
		return nil, errors.Wrapf(ErrInvalidPayment, "%q", method)
	}

	crt, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, errors.Wrap(err, "load cart")
	}
	if len(crt.Items) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]string, len(crt.Items))
	for i, it := range crt.Items {
		ids[i] = it.ProductID
	}
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]Item, len(crt.Items))
	total := decimal.Zero
	for i, it := range crt.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, &ProductGoneError{ProductID: it.ProductID}
		}
		if p.Quantity < it.Quantity {
			return nil, &OutOfStockError{ProductName: p.Name}
		}
		items[i] = Item{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	o := &Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		Items:         items,
		TotalAmount:   total.Round(2),
		Status:        StatusPending,
		PaymentMethod: method,
	}
	if err := s.orders.CreateCheckout(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}
