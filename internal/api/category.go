package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sereneleaf/backend/internal/domain/category"
	"github.com/sereneleaf/backend/internal/domain/slug"
)

// CategoryHandler serves the product category endpoints.
type CategoryHandler struct {
	categories category.Repository
	slugs      *slug.Resolver
}

func NewCategoryHandler(categories category.Repository, slugs *slug.Resolver) *CategoryHandler {
	return &CategoryHandler{categories: categories, slugs: slugs}
}

type categoryView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCategoryView(cat *category.Category) categoryView {
	return categoryView{
		ID:          cat.ID,
		Name:        cat.Name,
		Slug:        cat.Slug,
		Description: cat.Description,
		IsActive:    cat.IsActive,
		CreatedAt:   cat.CreatedAt,
		UpdatedAt:   cat.UpdatedAt,
	}
}

// List returns all categories.
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]categoryView, len(categories))
	for i := range categories {
		views[i] = toCategoryView(&categories[i])
	}
	respond(c, http.StatusOK, "", views)
}

// Get returns a single category.
func (h *CategoryHandler) Get(c *gin.Context) {
	cat, err := h.categories.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", toCategoryView(cat))
}

type createCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// Create adds a category. The slug is derived from the name.
func (h *CategoryHandler) Create(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cat := &category.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}

	err := h.slugs.InsertWithRetry(c.Request.Context(), cat.Name, "",
		func(s string) { cat.Slug = s },
		func(ctx context.Context) error { return h.categories.Create(ctx, cat) },
	)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "category created", toCategoryView(cat))
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// Update applies the provided fields. A renamed category gets a fresh slug.
func (h *CategoryHandler) Update(c *gin.Context) {
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	cat, err := h.categories.GetByID(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	renamed := req.Name != nil && *req.Name != cat.Name
	if req.Name != nil {
		cat.Name = *req.Name
	}
	if req.Description != nil {
		cat.Description = *req.Description
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}

	if renamed {
		err = h.slugs.InsertWithRetry(ctx, cat.Name, cat.ID,
			func(s string) { cat.Slug = s },
			func(ctx2 context.Context) error { return h.categories.Update(ctx2, cat) },
		)
	} else {
		err = h.categories.Update(ctx, cat)
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "category updated", toCategoryView(cat))
}

// Delete removes a category.
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "category deleted", nil)
}
