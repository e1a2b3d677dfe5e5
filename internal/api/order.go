package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sereneleaf/backend/internal/domain/order"
	"github.com/sereneleaf/backend/internal/domain/user"
)

// OrderHandler serves checkout and order management.
type OrderHandler struct {
	svc    *order.Service
	orders order.Repository
}

func NewOrderHandler(svc *order.Service, orders order.Repository) *OrderHandler {
	return &OrderHandler{svc: svc, orders: orders}
}

type orderView struct {
	ID            string              `json:"id"`
	UserID        string              `json:"user_id"`
	Items         []order.Item        `json:"items"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Status        order.Status        `json:"status"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toOrderView(o *order.Order) orderView {
	return orderView{
		ID:            o.ID,
		UserID:        o.UserID,
		Items:         o.Items,
		TotalAmount:   o.TotalAmount,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

type checkoutRequest struct {
	PaymentMethod order.PaymentMethod `json:"payment_method"`
}

// Checkout converts the user's cart into an order.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, err)
		return
	}

	o, err := h.svc.Checkout(c.Request.Context(), currentUserID(c), req.PaymentMethod)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "order placed", toOrderView(o))
}

// List returns the caller's orders, or every order for admins.
func (h *OrderHandler) List(c *gin.Context) {
	var (
		orders []order.Order
		err    error
	)
	if currentClaims(c).Role == user.RoleAdmin {
		orders, err = h.orders.List(c.Request.Context())
	} else {
		orders, err = h.orders.ListByUser(c.Request.Context(), currentUserID(c))
	}
	if err != nil {
		fail(c, err)
		return
	}

	views := make([]orderView, len(orders))
	for i := range orders {
		views[i] = toOrderView(&orders[i])
	}
	respond(c, http.StatusOK, "", views)
}

// Get returns a single order. Customers can only read their own.
func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.orders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if currentClaims(c).Role != user.RoleAdmin && o.UserID != currentUserID(c) {
		failWith(c, http.StatusForbidden, "not your order")
		return
	}
	respond(c, http.StatusOK, "", toOrderView(o))
}

type updateStatusRequest struct {
	Status order.Status `json:"status" binding:"required"`
}

// UpdateStatus moves an order through its lifecycle. Only transitions out of
// pending are allowed; paid and cancelled orders are final.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	o, err := h.orders.GetByID(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if err := o.TransitionTo(req.Status); err != nil {
		fail(c, err)
		return
	}

	updated, err := h.orders.UpdateStatus(ctx, o.ID, o.Status)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "order status updated", toOrderView(updated))
}

// Delete removes an order.
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "order deleted", nil)
}
