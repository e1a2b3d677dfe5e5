package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sereneleaf/backend/internal/domain/blog"
	"github.com/sereneleaf/backend/internal/domain/slug"
)

// PostHandler serves the blog post endpoints.
type PostHandler struct {
	posts blog.PostRepository
	slugs *slug.Resolver
}

func NewPostHandler(posts blog.PostRepository, slugs *slug.Resolver) *PostHandler {
	return &PostHandler{posts: posts, slugs: slugs}
}

type postView struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	ShortDescription string    `json:"short_description,omitempty"`
	Content          string    `json:"content,omitempty"`
	AuthorID         string    `json:"author_id"`
	AuthorName       string    `json:"author_name,omitempty"`
	CategoryID       string    `json:"category_id,omitempty"`
	ImageURL         string    `json:"image_url,omitempty"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toPostView(p *blog.Post) postView {
	return postView{
		ID:               p.ID,
		Title:            p.Title,
		Slug:             p.Slug,
		ShortDescription: p.ShortDescription,
		Content:          p.Content,
		AuthorID:         p.AuthorID,
		AuthorName:       p.AuthorName,
		CategoryID:       p.CategoryID,
		ImageURL:         p.ImageURL,
		IsActive:         p.IsActive,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

type listPostsRequest struct {
	Search     string `form:"search"`
	CategoryID string `form:"category_id"`
	IsActive   *bool  `form:"is_active"`
	SortBy     string `form:"sort_by"`
	Order      string `form:"order" binding:"omitempty,oneof=asc desc"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

// List returns posts matching the filters.
func (h *PostHandler) List(c *gin.Context) {
	var req listPostsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	posts, total, err := h.posts.List(c.Request.Context(), blog.PostFilter{
		Search:     req.Search,
		CategoryID: req.CategoryID,
		IsActive:   req.IsActive,
		SortBy:     req.SortBy,
		Order:      req.Order,
		Page:       req.Page,
		Limit:      req.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	views := make([]postView, len(posts))
	for i := range posts {
		views[i] = toPostView(&posts[i])
	}
	respondList(c, "", views, total, req.Page, req.Limit)
}

// Get returns a single post by ID.
func (h *PostHandler) Get(c *gin.Context) {
	p, err := h.posts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", toPostView(p))
}

// GetBySlug returns a single post by its URL slug.
func (h *PostHandler) GetBySlug(c *gin.Context) {
	p, err := h.posts.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", toPostView(p))
}

type createPostRequest struct {
	Title            string `json:"title" binding:"required"`
	ShortDescription string `json:"short_description"`
	Content          string `json:"content" binding:"required"`
	CategoryID       string `json:"category_id"`
	ImageURL         string `json:"image_url"`
	IsActive         *bool  `json:"is_active"`
}

// Create publishes a post authored by the authenticated user. The slug is
// derived from the title.
func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p := &blog.Post{
		ID:               uuid.NewString(),
		Title:            req.Title,
		ShortDescription: req.ShortDescription,
		Content:          req.Content,
		AuthorID:         currentUserID(c),
		CategoryID:       req.CategoryID,
		ImageURL:         req.ImageURL,
		IsActive:         true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	err := h.slugs.InsertWithRetry(c.Request.Context(), p.Title, "",
		func(s string) { p.Slug = s },
		func(ctx context.Context) error { return h.posts.Create(ctx, p) },
	)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "post created", toPostView(p))
}

type updatePostRequest struct {
	Title            *string `json:"title"`
	ShortDescription *string `json:"short_description"`
	Content          *string `json:"content"`
	CategoryID       *string `json:"category_id"`
	ImageURL         *string `json:"image_url"`
	IsActive         *bool   `json:"is_active"`
}

// Update applies the provided fields. A retitled post gets a fresh slug.
func (h *PostHandler) Update(c *gin.Context) {
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	p, err := h.posts.GetByID(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	retitled := req.Title != nil && *req.Title != p.Title
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.ShortDescription != nil {
		p.ShortDescription = *req.ShortDescription
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	if req.CategoryID != nil {
		p.CategoryID = *req.CategoryID
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if retitled {
		err = h.slugs.InsertWithRetry(ctx, p.Title, p.ID,
			func(s string) { p.Slug = s },
			func(ctx2 context.Context) error { return h.posts.Update(ctx2, p) },
		)
	} else {
		err = h.posts.Update(ctx, p)
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "post updated", toPostView(p))
}

// Delete removes a post.
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.posts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "post deleted", nil)
}

// PostCategoryHandler serves the blog category endpoints.
type PostCategoryHandler struct {
	categories blog.PostCategoryRepository
	slugs      *slug.Resolver
}

func NewPostCategoryHandler(categories blog.PostCategoryRepository, slugs *slug.Resolver) *PostCategoryHandler {
	return &PostCategoryHandler{categories: categories, slugs: slugs}
}

type postCategoryView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toPostCategoryView(pc *blog.PostCategory) postCategoryView {
	return postCategoryView{
		ID:          pc.ID,
		Name:        pc.Name,
		Slug:        pc.Slug,
		Description: pc.Description,
		IsActive:    pc.IsActive,
		CreatedAt:   pc.CreatedAt,
		UpdatedAt:   pc.UpdatedAt,
	}
}

// List returns all post categories.
func (h *PostCategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]postCategoryView, len(categories))
	for i := range categories {
		views[i] = toPostCategoryView(&categories[i])
	}
	respond(c, http.StatusOK, "", views)
}

// Create adds a post category.
func (h *PostCategoryHandler) Create(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pc := &blog.PostCategory{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		pc.IsActive = *req.IsActive
	}

	err := h.slugs.InsertWithRetry(c.Request.Context(), pc.Name, "",
		func(s string) { pc.Slug = s },
		func(ctx context.Context) error { return h.categories.Create(ctx, pc) },
	)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "post category created", toPostCategoryView(pc))
}

// Update applies the provided fields to a post category.
func (h *PostCategoryHandler) Update(c *gin.Context) {
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	pc, err := h.categories.GetByID(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	renamed := req.Name != nil && *req.Name != pc.Name
	if req.Name != nil {
		pc.Name = *req.Name
	}
	if req.Description != nil {
		pc.Description = *req.Description
	}
	if req.IsActive != nil {
		pc.IsActive = *req.IsActive
	}

	if renamed {
		err = h.slugs.InsertWithRetry(ctx, pc.Name, pc.ID,
			func(s string) { pc.Slug = s },
			func(ctx2 context.Context) error { return h.categories.Update(ctx2, pc) },
		)
	} else {
		err = h.categories.Update(ctx, pc)
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "post category updated", toPostCategoryView(pc))
}

// Delete removes a post category.
func (h *PostCategoryHandler) Delete(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "post category deleted", nil)
}

// CommentHandler serves product review comments.
type CommentHandler struct {
	comments blog.CommentRepository
}

func NewCommentHandler(comments blog.CommentRepository) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type commentView struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ProductID  string    `json:"product_id"`
	Content    string    `json:"content"`
	Rating     int       `json:"rating"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toCommentView(cm *blog.Comment) commentView {
	return commentView{
		ID:         cm.ID,
		UserID:     cm.UserID,
		ProductID:  cm.ProductID,
		Content:    cm.Content,
		Rating:     cm.Rating,
		IsApproved: cm.IsApproved,
		CreatedAt:  cm.CreatedAt,
		UpdatedAt:  cm.UpdatedAt,
	}
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
}

// Create attaches a review to a product. New comments await admin approval.
func (h *CommentHandler) Create(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cm := &blog.Comment{
		ID:        uuid.NewString(),
		UserID:    currentUserID(c),
		ProductID: c.Param("id"),
		Content:   req.Content,
		Rating:    req.Rating,
	}
	if err := h.comments.Create(c.Request.Context(), cm); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "comment submitted for approval", toCommentView(cm))
}

// ListByProduct returns a product's approved comments.
func (h *CommentHandler) ListByProduct(c *gin.Context) {
	comments, err := h.comments.ListByProduct(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]commentView, len(comments))
	for i := range comments {
		views[i] = toCommentView(&comments[i])
	}
	respond(c, http.StatusOK, "", views)
}

// ListAllByProduct returns every comment for a product, approved or not.
func (h *CommentHandler) ListAllByProduct(c *gin.Context) {
	comments, err := h.comments.ListByProduct(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]commentView, len(comments))
	for i := range comments {
		views[i] = toCommentView(&comments[i])
	}
	respond(c, http.StatusOK, "", views)
}

// Approve makes a comment publicly visible.
func (h *CommentHandler) Approve(c *gin.Context) {
	cm, err := h.comments.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "comment approved", toCommentView(cm))
}

// Delete removes a comment.
func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "comment deleted", nil)
}
