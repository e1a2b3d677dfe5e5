package order

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/sereneleaf/backend/internal/domain/cart"
	"github.com/sereneleaf/backend/internal/domain/product"
)

// fakeStore backs all three repositories with in-memory maps guarded by one
// mutex, so CreateCheckout can mirror the real store's all-or-nothing
// semantics under concurrency.
type fakeStore struct {
	mu       sync.Mutex
	carts    map[string]*cart.Cart
	products map[string]*product.Product
	orders   map[string]*Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		carts:    make(map[string]*cart.Cart),
		products: make(map[string]*product.Product),
		orders:   make(map[string]*Order),
	}
}

type fakeCarts struct{ s *fakeStore }

func (f fakeCarts) GetByUser(_ context.Context, userID string) (*cart.Cart, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.carts[userID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	return &cp, nil
}

func (f fakeCarts) Save(_ context.Context, c *cart.Cart) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.carts[c.UserID] = c
	return nil
}

func (f fakeCarts) DeleteByUser(_ context.Context, userID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.carts, userID)
	return nil
}

type fakeProducts struct{ s *fakeStore }

func (f fakeProducts) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []product.Product
	for _, id := range ids {
		if p, ok := f.s.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f fakeProducts) Create(context.Context, *product.Product) error { panic("unused") }
func (f fakeProducts) GetByID(context.Context, string) (*product.Product, error) {
	panic("unused")
}
func (f fakeProducts) GetBySlug(context.Context, string) (*product.Product, error) {
	panic("unused")
}
func (f fakeProducts) List(context.Context, product.Filter) ([]product.Product, int, error) {
	panic("unused")
}
func (f fakeProducts) Update(context.Context, *product.Product) error { panic("unused") }
func (f fakeProducts) Delete(context.Context, string) error           { panic("unused") }
func (f fakeProducts) SlugExists(context.Context, string, string) (bool, error) {
	panic("unused")
}

type fakeOrders struct{ s *fakeStore }

// CreateCheckout mimics the transactional repository: stock is re-checked
// and decremented under the lock, and nothing is written when any line item
// comes up short.
func (f fakeOrders) CreateCheckout(_ context.Context, o *Order) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, it := range o.Items {
		p, ok := f.s.products[it.ProductID]
		if !ok || p.Quantity < it.Quantity {
			name := it.Name
			if ok {
				name = p.Name
			}
			return &OutOfStockError{ProductName: name}
		}
	}
	for _, it := range o.Items {
		f.s.products[it.ProductID].Quantity -= it.Quantity
	}
	f.s.orders[o.ID] = o
	delete(f.s.carts, o.UserID)
	return nil
}

func (f fakeOrders) GetByID(context.Context, string) (*Order, error)       { panic("unused") }
func (f fakeOrders) List(context.Context) ([]Order, error)                 { panic("unused") }
func (f fakeOrders) ListByUser(context.Context, string) ([]Order, error)   { panic("unused") }
func (f fakeOrders) UpdateStatus(context.Context, string, Status) (*Order, error) {
	panic("unused")
}
func (f fakeOrders) Delete(context.Context, string) error { panic("unused") }

func newTestService(s *fakeStore) *Service {
	return NewService(fakeCarts{s}, fakeProducts{s}, fakeOrders{s})
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCheckout_NoCart(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Checkout(context.Background(), "u1", PaymentCash)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_EmptyCart(t *testing.T) {
	s := newFakeStore()
	s.carts["u1"] = cart.New("u1")
	svc := newTestService(s)

	_, err := svc.Checkout(context.Background(), "u1", PaymentCash)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_InvalidPayment(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Checkout(context.Background(), "u1", PaymentMethod("paypal"))
	require.ErrorIs(t, err, ErrInvalidPayment)
}

func TestCheckout_ProductGone(t *testing.T) {
	s := newFakeStore()
	c := cart.New("u1")
	c.Add("missing", 1)
	s.carts["u1"] = c
	svc := newTestService(s)

	_, err := svc.Checkout(context.Background(), "u1", PaymentCash)

	var gone *ProductGoneError
	require.ErrorAs(t, err, &gone)
	assert.Equal(t, "missing", gone.ProductID)
	assert.Empty(t, s.orders, "nothing must be written")
}

func TestCheckout_OutOfStock(t *testing.T) {
	s := newFakeStore()
	s.products["p1"] = &product.Product{ID: "p1", Name: "Jasmine Green Tea", Price: price("12.50"), Quantity: 1}
	c := cart.New("u1")
	c.Add("p1", 3)
	s.carts["u1"] = c
	svc := newTestService(s)

	_, err := svc.Checkout(context.Background(), "u1", PaymentCash)

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "Jasmine Green Tea", oos.ProductName)
	assert.Equal(t, 1, s.products["p1"].Quantity, "stock must be untouched")
	assert.Empty(t, s.orders)
	assert.Contains(t, s.carts, "u1", "cart must survive a failed checkout")
}

func TestCheckout_Succeeds(t *testing.T) {
	s := newFakeStore()
	s.products["p1"] = &product.Product{ID: "p1", Name: "Earl Grey Supreme", Price: price("10.00"), Quantity: 5}
	s.products["p2"] = &product.Product{ID: "p2", Name: "Chamomile Night Blend", Price: price("2.50"), Quantity: 3}
	c := cart.New("u1")
	c.Add("p1", 2)
	c.Add("p2", 2)
	s.carts["u1"] = c
	svc := newTestService(s)

	o, err := svc.Checkout(context.Background(), "u1", "")
	require.NoError(t, err)

	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentCash, o.PaymentMethod, "empty method defaults to cash")
	assert.True(t, price("25.00").Equal(o.TotalAmount), "got %s", o.TotalAmount)

	require.Len(t, o.Items, 2)
	assert.Equal(t, "Earl Grey Supreme", o.Items[0].Name)
	assert.True(t, price("10.00").Equal(o.Items[0].UnitPrice))

	assert.Equal(t, 3, s.products["p1"].Quantity)
	assert.Equal(t, 1, s.products["p2"].Quantity)
	assert.NotContains(t, s.carts, "u1", "cart is consumed")
	assert.Contains(t, s.orders, o.ID)
}

func TestCheckout_ConcurrentNeverOversells(t *testing.T) {
	const buyers = 8

	s := newFakeStore()
	s.products["p1"] = &product.Product{ID: "p1", Name: "Aged Shou Pu-erh", Price: price("24.00"), Quantity: buyers - 1}
	for i := range buyers {
		c := cart.New(string(rune('a' + i)))
		c.Add("p1", 1)
		s.carts[c.UserID] = c
	}
	svc := newTestService(s)

	var (
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range buyers {
		userID := string(rune('a' + i))
		g.Go(func() error {
			_, err := svc.Checkout(ctx, userID, PaymentCash)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			default:
				var oos *OutOfStockError
				if !errors.As(err, &oos) {
					return err
				}
				rejected++
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, buyers-1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, s.products["p1"].Quantity, "stock never goes negative")
	assert.Len(t, s.orders, buyers-1)
}
