package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sereneleaf/backend/internal/domain/marketing"
)

// MarketingHandler serves newsletter subscriptions and the contact form.
type MarketingHandler struct {
	subscriptions marketing.SubscriptionRepository
	contacts      marketing.ContactRepository
}

func NewMarketingHandler(subscriptions marketing.SubscriptionRepository, contacts marketing.ContactRepository) *MarketingHandler {
	return &MarketingHandler{subscriptions: subscriptions, contacts: contacts}
}

type subscriptionView struct {
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type subscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Subscribe adds an email to the newsletter list.
func (h *MarketingHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	s := &marketing.Subscription{Email: req.Email, Active: true}
	if err := h.subscriptions.Create(c.Request.Context(), s); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "subscribed", subscriptionView{
		Email:  s.Email,
		Active: s.Active,
	})
}

type pageRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// ListSubscriptions returns the newsletter list, newest first.
func (h *MarketingHandler) ListSubscriptions(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	subs, total, err := h.subscriptions.List(c.Request.Context(), marketing.Page{
		Page:  req.Page,
		Limit: req.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	views := make([]subscriptionView, len(subs))
	for i, s := range subs {
		views[i] = subscriptionView{Email: s.Email, Active: s.Active, CreatedAt: s.CreatedAt}
	}
	respondList(c, "", views, total, req.Page, req.Limit)
}

type contactView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Message string `json:"message" binding:"required"`
}

// Contact stores a message from the contact form.
func (h *MarketingHandler) Contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	m := &marketing.ContactMessage{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	}
	if err := h.contacts.Create(c.Request.Context(), m); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "message received", contactView{
		ID:      m.ID,
		Name:    m.Name,
		Email:   m.Email,
		Phone:   m.Phone,
		Message: m.Message,
	})
}

type listContactsRequest struct {
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// ListContacts returns contact messages, newest first.
func (h *MarketingHandler) ListContacts(c *gin.Context) {
	var req listContactsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	msgs, total, err := h.contacts.List(c.Request.Context(), marketing.Page{
		Page:  req.Page,
		Limit: req.Limit,
	}, req.Search)
	if err != nil {
		fail(c, err)
		return
	}

	views := make([]contactView, len(msgs))
	for i, m := range msgs {
		views[i] = contactView{
			ID:        m.ID,
			Name:      m.Name,
			Email:     m.Email,
			Phone:     m.Phone,
			Message:   m.Message,
			CreatedAt: m.CreatedAt,
		}
	}
	respondList(c, "", views, total, req.Page, req.Limit)
}
