// Package blog defines posts, post categories, and product comments.
package blog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors surfaced by blog repositories.
var (
	ErrPostNotFound     = errors.New("post not found")
	ErrCategoryNotFound = errors.New("post category not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrNameTaken        = errors.New("post category name already exists")
)

// Post is a blog article. The slug is derived from the title and unique
// within the collection.
type Post struct {
	ID               string
	Title            string
	Slug             string
	ShortDescription string
	Content          string
	AuthorID         string
	AuthorName       string
	CategoryID       string
	ImageURL         string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PostCategory groups posts.
type PostCategory struct {
	ID          string
	Name        string
	Slug        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Comment is a customer review attached to a product. Comments start
// unapproved and become visible once an admin approves them.
type Comment struct {
	ID         string
	UserID     string
	ProductID  string
	Content    string
	Rating     int
	IsApproved bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PostFilter narrows and paginates post listings.
type PostFilter struct {
	Search     string
	CategoryID string
	IsActive   *bool
	SortBy     string
	Order      string
	Page       int
	Limit      int
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	List(ctx context.Context, f PostFilter) ([]Post, int, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
}

// PostCategoryRepository defines persistence operations for post categories.
type PostCategoryRepository interface {
	Create(ctx context.Context, c *PostCategory) error
	GetByID(ctx context.Context, id string) (*PostCategory, error)
	List(ctx context.Context) ([]PostCategory, error)
	Update(ctx context.Context, c *PostCategory) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
}

// CommentRepository defines persistence operations for product comments.
type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	// ListByProduct returns comments for a product. When approvedOnly is
	// true, unapproved comments are filtered out.
	ListByProduct(ctx context.Context, productID string, approvedOnly bool) ([]Comment, error)
	Approve(ctx context.Context, id string) (*Comment, error)
	Delete(ctx context.Context, id string) error
}
