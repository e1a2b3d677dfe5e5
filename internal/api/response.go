// Package api exposes the REST surface of the store over gin.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sereneleaf/backend/internal/domain/auth"
	"github.com/sereneleaf/backend/internal/domain/blog"
	"github.com/sereneleaf/backend/internal/domain/cart"
	"github.com/sereneleaf/backend/internal/domain/category"
	"github.com/sereneleaf/backend/internal/domain/marketing"
	"github.com/sereneleaf/backend/internal/domain/order"
	"github.com/sereneleaf/backend/internal/domain/product"
	"github.com/sereneleaf/backend/internal/domain/slug"
	"github.com/sereneleaf/backend/internal/domain/user"
)

// envelope is the uniform response body: {success, message, data}.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// listMeta carries pagination info for list responses.
type listMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type listPayload struct {
	Items any      `json:"items"`
	Meta  listMeta `json:"meta"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondList(c *gin.Context, message string, items any, total, page, limit int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	totalPages := total / limit
	if total%limit > 0 {
		totalPages++
	}
	respond(c, http.StatusOK, message, listPayload{
		Items: items,
		Meta:  listMeta{Total: total, Page: page, Limit: limit, TotalPages: totalPages},
	})
}

func failWith(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message})
}

func badRequest(c *gin.Context, err error) {
	failWith(c, http.StatusBadRequest, err.Error())
}

// fail maps a domain error to an HTTP status and writes the error envelope.
// Unrecognized errors become an opaque 500 and are logged with their cause.
func fail(c *gin.Context, err error) {
	var (
		oosErr  *order.OutOfStockError
		goneErr *order.ProductGoneError
	)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		failWith(c, http.StatusUnauthorized, err.Error())

	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, category.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, blog.ErrPostNotFound),
		errors.Is(err, blog.ErrCategoryNotFound),
		errors.Is(err, blog.ErrCommentNotFound):
		failWith(c, http.StatusNotFound, err.Error())

	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, category.ErrNameTaken),
		errors.Is(err, blog.ErrNameTaken),
		errors.Is(err, marketing.ErrAlreadySubscribed),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, slug.ErrTaken):
		failWith(c, http.StatusConflict, err.Error())

	case errors.Is(err, auth.ErrInvalidOTP),
		errors.Is(err, auth.ErrWrongPassword),
		errors.Is(err, order.ErrInvalidPayment):
		failWith(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, order.ErrEmptyCart),
		errors.As(err, &oosErr),
		errors.As(err, &goneErr):
		failWith(c, http.StatusUnprocessableEntity, err.Error())

	default:
		zctx.From(c.Request.Context()).Error("Request failed", zap.Error(err))
		failWith(c, http.StatusInternalServerError, "internal server error")
	}
}
