package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/sereneleaf/backend/internal/domain/cart"
	"github.com/sereneleaf/backend/internal/domain/product"
)

// CartHandler serves the authenticated user's shopping cart.
type CartHandler struct {
	carts    cart.Repository
	products product.Repository
}

func NewCartHandler(carts cart.Repository, products product.Repository) *CartHandler {
	return &CartHandler{carts: carts, products: products}
}

type cartView struct {
	UserID        string      `json:"user_id"`
	Items         []cart.Item `json:"items"`
	TotalQuantity int         `json:"total_quantity"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func toCartView(crt *cart.Cart) cartView {
	items := crt.Items
	if items == nil {
		items = []cart.Item{}
	}
	return cartView{
		UserID:        crt.UserID,
		Items:         items,
		TotalQuantity: crt.TotalQuantity(),
		UpdatedAt:     crt.UpdatedAt,
	}
}

// load returns the user's cart, or a fresh empty one when none is stored.
func (h *CartHandler) load(c *gin.Context) (*cart.Cart, error) {
	crt, err := h.carts.GetByUser(c.Request.Context(), currentUserID(c))
	if errors.Is(err, cart.ErrNotFound) {
		return cart.New(currentUserID(c)), nil
	}
	return crt, err
}

// Get returns the user's cart. A user without a stored cart sees an empty
// one rather than an error.
func (h *CartHandler) Get(c *gin.Context) {
	crt, err := h.load(c)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", toCartView(crt))
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// AddItem puts a product in the cart, merging with an existing line item.
// The product must exist, be active, and have enough stock for the resulting
// quantity.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	p, err := h.products.GetByID(ctx, req.ProductID)
	if err != nil {
		fail(c, err)
		return
	}
	if !p.IsActive {
		fail(c, product.ErrNotFound)
		return
	}

	crt, err := h.load(c)
	if err != nil {
		fail(c, err)
		return
	}

	wanted := req.Quantity
	for _, it := range crt.Items {
		if it.ProductID == req.ProductID {
			wanted += it.Quantity
		}
	}
	if p.Quantity < wanted {
		failWith(c, http.StatusUnprocessableEntity, "not enough stock for "+p.Name)
		return
	}

	crt.Add(req.ProductID, req.Quantity)
	if err := h.carts.Save(ctx, crt); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "item added", toCartView(crt))
}

type updateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// UpdateItem replaces the quantity of a line item already in the cart.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	productID := c.Param("productID")

	p, err := h.products.GetByID(ctx, productID)
	if err != nil {
		fail(c, err)
		return
	}
	if p.Quantity < req.Quantity {
		failWith(c, http.StatusUnprocessableEntity, "not enough stock for "+p.Name)
		return
	}

	crt, err := h.load(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := crt.SetQuantity(productID, req.Quantity); err != nil {
		fail(c, err)
		return
	}
	if err := h.carts.Save(ctx, crt); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "item updated", toCartView(crt))
}

// RemoveItem drops a line item from the cart.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	crt, err := h.load(c)
	if err != nil {
		fail(c, err)
		return
	}

	crt.Remove(c.Param("productID"))
	if err := h.carts.Save(c.Request.Context(), crt); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "item removed", toCartView(crt))
}

// Clear empties the cart.
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.carts.DeleteByUser(c.Request.Context(), currentUserID(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "cart cleared", toCartView(cart.New(currentUserID(c))))
}
