package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sereneleaf/backend/internal/domain/product"
	"github.com/sereneleaf/backend/internal/domain/slug"
)

// ProductHandler serves the product catalog endpoints.
type ProductHandler struct {
	products product.Repository
	slugs    *slug.Resolver
}

func NewProductHandler(products product.Repository, slugs *slug.Resolver) *ProductHandler {
	return &ProductHandler{products: products, slugs: slugs}
}

type productView struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	ShortDescription string          `json:"short_description,omitempty"`
	Description      string          `json:"description,omitempty"`
	Price            decimal.Decimal `json:"price"`
	Quantity         int             `json:"quantity"`
	Category         string          `json:"category,omitempty"`
	ImageURL         string          `json:"image_url,omitempty"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func toProductView(p *product.Product) productView {
	return productView{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		Price:            p.Price,
		Quantity:         p.Quantity,
		Category:         p.Category,
		ImageURL:         p.ImageURL,
		IsActive:         p.IsActive,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

type listProductsRequest struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	MinPrice string `form:"min_price"`
	MaxPrice string `form:"max_price"`
	IsActive *bool  `form:"is_active"`
	SortBy   string `form:"sort_by"`
	Order    string `form:"order" binding:"omitempty,oneof=asc desc"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

// List returns catalog products matching the filters.
func (h *ProductHandler) List(c *gin.Context) {
	var req listProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	f := product.Filter{
		Search:   req.Search,
		Category: req.Category,
		IsActive: req.IsActive,
		SortBy:   req.SortBy,
		Order:    req.Order,
		Page:     req.Page,
		Limit:    req.Limit,
	}
	if req.MinPrice != "" {
		min, err := decimal.NewFromString(req.MinPrice)
		if err != nil {
			badRequest(c, errors.Wrap(err, "min_price"))
			return
		}
		f.MinPrice = &min
	}
	if req.MaxPrice != "" {
		max, err := decimal.NewFromString(req.MaxPrice)
		if err != nil {
			badRequest(c, errors.Wrap(err, "max_price"))
			return
		}
		f.MaxPrice = &max
	}

	products, total, err := h.products.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}

	views := make([]productView, len(products))
	for i := range products {
		views[i] = toProductView(&products[i])
	}
	respondList(c, "", views, total, req.Page, req.Limit)
}

// Get returns a single product by ID.
func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", toProductView(p))
}

// GetBySlug returns a single product by its URL slug.
func (h *ProductHandler) GetBySlug(c *gin.Context) {
	p, err := h.products.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", toProductView(p))
}

type createProductRequest struct {
	Name             string `json:"name" binding:"required"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
	Price            string `json:"price" binding:"required"`
	Quantity         int    `json:"quantity" binding:"min=0"`
	Category         string `json:"category"`
	ImageURL         string `json:"image_url"`
	IsActive         *bool  `json:"is_active"`
}

// Create adds a product to the catalog. The slug is derived from the name
// and made unique automatically.
func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		badRequest(c, err)
		return
	}

	p := &product.Product{
		ID:               uuid.NewString(),
		Name:             req.Name,
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		Price:            price,
		Quantity:         req.Quantity,
		Category:         req.Category,
		ImageURL:         req.ImageURL,
		IsActive:         true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	err = h.slugs.InsertWithRetry(c.Request.Context(), p.Name, "",
		func(s string) { p.Slug = s },
		func(ctx2 context.Context) error { return h.products.Create(ctx2, p) },
	)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "product created", toProductView(p))
}

type updateProductRequest struct {
	Name             *string `json:"name"`
	ShortDescription *string `json:"short_description"`
	Description      *string `json:"description"`
	Price            *string `json:"price"`
	Quantity         *int    `json:"quantity" binding:"omitempty,min=0"`
	Category         *string `json:"category"`
	ImageURL         *string `json:"image_url"`
	IsActive         *bool   `json:"is_active"`
}

// Update applies the provided fields. A renamed product gets a fresh slug
// derived from the new name.
func (h *ProductHandler) Update(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	p, err := h.products.GetByID(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	renamed := req.Name != nil && *req.Name != p.Name
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.ShortDescription != nil {
		p.ShortDescription = *req.ShortDescription
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			badRequest(c, err)
			return
		}
		p.Price = price
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if renamed {
		err = h.slugs.InsertWithRetry(ctx, p.Name, p.ID,
			func(s string) { p.Slug = s },
			func(ctx2 context.Context) error { return h.products.Update(ctx2, p) },
		)
	} else {
		err = h.products.Update(ctx, p)
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "product updated", toProductView(p))
}

// Delete removes a product from the catalog.
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "product deleted", nil)
}

func parsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "price")
	}
	if price.IsNegative() {
		return decimal.Decimal{}, errors.New("price must not be negative")
	}
	return price, nil
}
