package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sereneleaf/backend/internal/domain/auth"
	"github.com/sereneleaf/backend/internal/domain/cart"
	"github.com/sereneleaf/backend/internal/domain/order"
	"github.com/sereneleaf/backend/internal/domain/product"
	"github.com/sereneleaf/backend/internal/domain/slug"
	"github.com/sereneleaf/backend/internal/domain/user"
)

// store is a single in-memory backend for every repository the router needs,
// guarded by one mutex.
type store struct {
	mu       sync.Mutex
	users    map[string]*user.User // keyed by ID
	otps     map[string]*auth.OTP  // keyed by email
	products map[string]*product.Product
	carts    map[string]*cart.Cart
	orders   map[string]*order.Order
}

func newStore() *store {
	return &store{
		users:    make(map[string]*user.User),
		otps:     make(map[string]*auth.OTP),
		products: make(map[string]*product.Product),
		carts:    make(map[string]*cart.Cart),
		orders:   make(map[string]*order.Order),
	}
}

type usersRepo struct{ s *store }

func (r usersRepo) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ex := range r.s.users {
		if ex.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r usersRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r usersRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r usersRepo) List(_ context.Context, _ user.Filter) ([]user.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []user.User
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (r usersRepo) Update(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.users[u.ID]
	if !ok {
		return user.ErrNotFound
	}
	*stored = *u
	return nil
}

func (r usersRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r usersRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

type otpsRepo struct{ s *store }

func (r otpsRepo) Upsert(_ context.Context, o *auth.OTP) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *o
	r.s.otps[o.Email] = &cp
	return nil
}

func (r otpsRepo) Find(_ context.Context, email, code string) (*auth.OTP, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.otps[email]
	if !ok || o.Code != code {
		return nil, auth.ErrInvalidOTP
	}
	cp := *o
	return &cp, nil
}

func (r otpsRepo) Delete(_ context.Context, email, _ string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.otps, email)
	return nil
}

type productsRepo struct{ s *store }

func (r productsRepo) Create(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ex := range r.s.products {
		if ex.Slug == p.Slug {
			return slug.ErrTaken
		}
	}
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r productsRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r productsRepo) GetBySlug(_ context.Context, s string) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Slug == s {
			cp := *p
			return &cp, nil
		}
	}
	return nil, product.ErrNotFound
}

func (r productsRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []product.Product
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r productsRepo) List(_ context.Context, _ product.Filter) ([]product.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []product.Product
	for _, p := range r.s.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r productsRepo) Update(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.products[p.ID]
	if !ok {
		return product.ErrNotFound
	}
	*stored = *p
	return nil
}

func (r productsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return product.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r productsRepo) SlugExists(_ context.Context, s, excludeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Slug == s && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type cartsRepo struct{ s *store }

func (r cartsRepo) GetByUser(_ context.Context, userID string) (*cart.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[userID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	return &cp, nil
}

func (r cartsRepo) Save(_ context.Context, c *cart.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.carts[c.UserID] = c
	return nil
}

func (r cartsRepo) DeleteByUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.carts, userID)
	return nil
}

type ordersRepo struct{ s *store }

func (r ordersRepo) CreateCheckout(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, it := range o.Items {
		p, ok := r.s.products[it.ProductID]
		if !ok || p.Quantity < it.Quantity {
			return &order.OutOfStockError{ProductName: it.Name}
		}
	}
	for _, it := range o.Items {
		r.s.products[it.ProductID].Quantity -= it.Quantity
	}
	cp := *o
	r.s.orders[o.ID] = &cp
	delete(r.s.carts, o.UserID)
	return nil
}

func (r ordersRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r ordersRepo) List(_ context.Context) ([]order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []order.Order
	for _, o := range r.s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r ordersRepo) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []order.Order
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r ordersRepo) UpdateStatus(_ context.Context, id string, status order.Status) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

func (r ordersRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[id]; !ok {
		return order.ErrNotFound
	}
	delete(r.s.orders, id)
	return nil
}

func mustPrice(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type nullMailer struct{}

func (nullMailer) SendOTP(context.Context, string, string) error { return nil }

type testAPI struct {
	router *gin.Engine
	store  *store
	tokens *auth.TokenIssuer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	s := newStore()
	users := usersRepo{s}
	products := productsRepo{s}
	carts := cartsRepo{s}
	orders := ordersRepo{s}

	tokens := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	authSvc := auth.NewService(users, otpsRepo{s}, tokens, nullMailer{})
	orderSvc := order.NewService(carts, products, orders)

	router := NewRouter(Handlers{
		Auth:      NewAuthHandler(authSvc),
		Users:     NewUserHandler(users, authSvc),
		Products:  NewProductHandler(products, slug.NewResolver(products)),
		Cart:      NewCartHandler(carts, products),
		Orders:    NewOrderHandler(orderSvc, orders),
		Marketing: &MarketingHandler{},
	}, tokens)

	return &testAPI{router: router, store: s, tokens: tokens}
}

// do performs a request, optionally authenticated, with a JSON body.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

// tokenFor registers a user with the given role and returns a bearer token.
func (a *testAPI) tokenFor(t *testing.T, email string, role user.Role) (string, string) {
	t.Helper()

	w := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"name": "Test", "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	id := decode(t, w)["data"].(map[string]any)["id"].(string)
	if role == user.RoleAdmin {
		a.store.mu.Lock()
		a.store.users[id].Role = user.RoleAdmin
		a.store.mu.Unlock()
	}

	w = a.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["data"].(map[string]any)["token"].(string), id
}

func TestSignupAndLogin(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"name": "Tea Lover", "email": "tea@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "tea@example.com", data["email"])
	assert.NotContains(t, data, "password_hash")

	// Duplicate email conflicts.
	w = a.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"name": "Other", "email": "tea@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Bad password is a 401, not a 404.
	w = a.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "tea@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestSignup_Validation(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"name": "X", "email": "not-an-email", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"name": "X", "email": "x@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	a := newTestAPI(t)

	// No token.
	w := a.do(t, http.MethodGet, "/api/v1/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token.
	w = a.do(t, http.MethodGet, "/api/v1/auth/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Customer hitting an admin route.
	token, _ := a.tokenFor(t, "customer@example.com", user.RoleCustomer)
	w = a.do(t, http.MethodGet, "/api/v1/users", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin passes.
	admin, _ := a.tokenFor(t, "admin@example.com", user.RoleAdmin)
	w = a.do(t, http.MethodGet, "/api/v1/users", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProductCreate_SlugsAreUnique(t *testing.T) {
	a := newTestAPI(t)
	admin, _ := a.tokenFor(t, "admin@example.com", user.RoleAdmin)

	w := a.do(t, http.MethodPost, "/api/v1/products", admin, gin.H{
		"name": "Jasmine Green Tea", "price": "12.50", "quantity": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "jasmine-green-tea", first["slug"])

	// Same name gets a suffixed slug instead of a conflict.
	w = a.do(t, http.MethodPost, "/api/v1/products", admin, gin.H{
		"name": "Jasmine Green Tea", "price": "13.00", "quantity": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "jasmine-green-tea-1", second["slug"])

	// Lookup by slug works without auth.
	w = a.do(t, http.MethodGet, "/api/v1/products/slug/jasmine-green-tea-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Customers may not create products.
	customer, _ := a.tokenFor(t, "c@example.com", user.RoleCustomer)
	w = a.do(t, http.MethodPost, "/api/v1/products", customer, gin.H{
		"name": "Nope", "price": "1.00",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProductCreate_RejectsBadPrice(t *testing.T) {
	a := newTestAPI(t)
	admin, _ := a.tokenFor(t, "admin@example.com", user.RoleAdmin)

	w := a.do(t, http.MethodPost, "/api/v1/products", admin, gin.H{
		"name": "Broken", "price": "not-a-number",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/api/v1/products", admin, gin.H{
		"name": "Negative", "price": "-5.00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductGet_NotFound(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/api/v1/products/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

// seedProduct inserts a product directly into the fake store.
func (a *testAPI) seedProduct(id, name, priceStr string, qty int) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	a.store.products[id] = &product.Product{
		ID: id, Name: name, Slug: slug.Normalize(name),
		Price: mustPrice(priceStr), Quantity: qty, IsActive: true,
	}
}

func TestCartFlow(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.tokenFor(t, "c@example.com", user.RoleCustomer)
	a.seedProduct("p1", "Earl Grey Supreme", "10.00", 5)

	// Empty cart, not an error.
	w := a.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Empty(t, data["items"])

	// Add more than stock.
	w = a.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{
		"product_id": "p1", "quantity": 6,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Add within stock, twice, merging lines.
	for range 2 {
		w = a.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{
			"product_id": "p1", "quantity": 2,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	data = decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(4), data["total_quantity"])

	// A third add of 2 would exceed the merged total of 6 > 5.
	w = a.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{
		"product_id": "p1", "quantity": 2,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Unknown product.
	w = a.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{
		"product_id": "ghost", "quantity": 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Update and remove.
	w = a.do(t, http.MethodPut, "/api/v1/cart/items/p1", token, gin.H{"quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodDelete, "/api/v1/cart/items/p1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decode(t, w)["data"].(map[string]any)
	assert.Empty(t, data["items"])
}

func TestCheckoutFlow(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.tokenFor(t, "c@example.com", user.RoleCustomer)
	a.seedProduct("p1", "High Mountain Oolong", "21.50", 3)

	// Checkout with no cart.
	w := a.do(t, http.MethodPost, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{
		"product_id": "p1", "quantity": 2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPost, "/api/v1/checkout", token, gin.H{"payment_method": "momo"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	o := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "pending", o["status"])
	assert.Equal(t, "momo", o["payment_method"])
	assert.Equal(t, "43", o["total_amount"])

	// Stock was decremented and the cart consumed.
	a.store.mu.Lock()
	assert.Equal(t, 1, a.store.products["p1"].Quantity)
	a.store.mu.Unlock()

	w = a.do(t, http.MethodPost, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "cart already consumed")

	// Bad payment method.
	w = a.do(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{
		"product_id": "p1", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodPost, "/api/v1/checkout", token, gin.H{"payment_method": "paypal"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderAccessAndStatus(t *testing.T) {
	a := newTestAPI(t)
	buyer, _ := a.tokenFor(t, "buyer@example.com", user.RoleCustomer)
	other, _ := a.tokenFor(t, "other@example.com", user.RoleCustomer)
	admin, _ := a.tokenFor(t, "admin@example.com", user.RoleAdmin)
	a.seedProduct("p1", "Chamomile Night Blend", "8.75", 10)

	w := a.do(t, http.MethodPost, "/api/v1/cart/items", buyer, gin.H{
		"product_id": "p1", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodPost, "/api/v1/checkout", buyer, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decode(t, w)["data"].(map[string]any)["id"].(string)

	// The buyer and admins can read it; another customer cannot.
	w = a.do(t, http.MethodGet, "/api/v1/orders/"+orderID, buyer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodGet, "/api/v1/orders/"+orderID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodGet, "/api/v1/orders/"+orderID, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Status changes are admin-only and follow the lifecycle.
	w = a.do(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", buyer, gin.H{"status": "paid"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", admin, gin.H{"status": "paid"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paid", decode(t, w)["data"].(map[string]any)["status"])

	// Paid is terminal.
	w = a.do(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", admin, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code)
}
