package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sereneleaf/backend/internal/domain/blog"
	"github.com/sereneleaf/backend/internal/domain/slug"
)

const (
	// Posts join the author so listings can show a byline without a second
	// round trip.
	postColumns = `p.id, p.title, p.slug, p.short_description, p.content, p.author_id,
		COALESCE(u.name, ''), COALESCE(p.category_id::text, ''), p.image_url, p.is_active,
		p.created_at, p.updated_at`

	postFromSQL = `FROM posts p LEFT JOIN users u ON u.id = p.author_id`

	createPostSQL = `INSERT INTO posts (id, title, slug, short_description, content,
			author_id, category_id, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8, $9)`

	updatePostSQL = `UPDATE posts SET title = $2, slug = $3, short_description = $4,
			content = $5, category_id = NULLIF($6, '')::uuid, image_url = $7,
			is_active = $8, updated_at = now()
		WHERE id = $1`

	postSlugExistsSQL = `SELECT EXISTS (SELECT 1 FROM posts
		WHERE slug = $1 AND ($2::uuid IS NULL OR id <> $2::uuid))`

	postCategoryColumns = `id, name, slug, description, is_active, created_at, updated_at`

	createPostCategorySQL = `INSERT INTO post_categories (id, name, slug, description, is_active)
		VALUES ($1, $2, $3, $4, $5)`

	updatePostCategorySQL = `UPDATE post_categories SET name = $2, slug = $3,
			description = $4, is_active = $5, updated_at = now()
		WHERE id = $1`

	postCategorySlugExistsSQL = `SELECT EXISTS (SELECT 1 FROM post_categories
		WHERE slug = $1 AND ($2::uuid IS NULL OR id <> $2::uuid))`

	commentColumns = `id, user_id, product_id, content, rating, is_approved, created_at, updated_at`

	createCommentSQL = `INSERT INTO comments (id, user_id, product_id, content, rating, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6)`

	approveCommentSQL = `UPDATE comments SET is_approved = TRUE, updated_at = now()
		WHERE id = $1
		RETURNING ` + commentColumns
)

var postSortColumns = map[string]string{
	"title":      "p.title",
	"created_at": "p.created_at",
}

var (
	_ blog.PostRepository         = (*PostRepository)(nil)
	_ blog.PostCategoryRepository = (*PostCategoryRepository)(nil)
	_ blog.CommentRepository      = (*CommentRepository)(nil)
)

// PostRepository implements blog.PostRepository backed by PostgreSQL.
type PostRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository returns a PostRepository that uses the given pool.
func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

// Create persists a new post.
func (r *PostRepository) Create(ctx context.Context, p *blog.Post) error {
	_, err := r.pool.Exec(ctx, createPostSQL,
		p.ID, p.Title, p.Slug, p.ShortDescription, p.Content,
		p.AuthorID, p.CategoryID, p.ImageURL, p.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err, "posts_slug_key") {
			return slug.ErrTaken
		}
		return fmt.Errorf("creating post %q: %w", p.Title, err)
	}
	return nil
}

// GetByID returns a single post by identifier.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*blog.Post, error) {
	return r.getOne(ctx, "SELECT "+postColumns+" "+postFromSQL+" WHERE p.id = $1", id)
}

// GetBySlug returns a single post by slug.
func (r *PostRepository) GetBySlug(ctx context.Context, s string) (*blog.Post, error) {
	return r.getOne(ctx, "SELECT "+postColumns+" "+postFromSQL+" WHERE p.slug = $1", s)
}

func (r *PostRepository) getOne(ctx context.Context, sql, arg string) (*blog.Post, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting post: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blog.ErrPostNotFound
		}
		return nil, fmt.Errorf("getting post: %w", err)
	}
	return &p, nil
}

// List returns posts matching the filter plus the unpaginated total.
func (r *PostRepository) List(ctx context.Context, f blog.PostFilter) ([]blog.Post, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if f.Search != "" {
		add("p.title ILIKE ?", "%"+f.Search+"%")
	}
	if f.CategoryID != "" {
		add("p.category_id = ?", f.CategoryID)
	}
	if f.IsActive != nil {
		add("p.is_active = ?", *f.IsActive)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) "+postFromSQL+" WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting posts: %w", err)
	}

	sortCol, ok := postSortColumns[f.SortBy]
	if !ok {
		sortCol = "p.created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		dir = "ASC"
	}

	page, limit := normalizePage(f.Page, f.Limit)
	args = append(args, limit, (page-1)*limit)
	sql := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		postColumns, postFromSQL, cond, sortCol, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing posts: %w", err)
	}
	posts, err := pgx.CollectRows(rows, scanPost)
	if err != nil {
		return nil, 0, fmt.Errorf("listing posts: %w", err)
	}
	return posts, total, nil
}

// Update persists every mutable field, slug included. Authorship never
// changes.
func (r *PostRepository) Update(ctx context.Context, p *blog.Post) error {
	tag, err := r.pool.Exec(ctx, updatePostSQL,
		p.ID, p.Title, p.Slug, p.ShortDescription, p.Content,
		p.CategoryID, p.ImageURL, p.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err, "posts_slug_key") {
			return slug.ErrTaken
		}
		return fmt.Errorf("updating post %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return blog.ErrPostNotFound
	}
	return nil
}

// Delete removes a post.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting post %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return blog.ErrPostNotFound
	}
	return nil
}

// SlugExists reports whether slug is used by a post other than excludeID.
func (r *PostRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return slugExists(ctx, r.pool, postSlugExistsSQL, slug, excludeID)
}

func scanPost(row pgx.CollectableRow) (blog.Post, error) {
	var p blog.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.ShortDescription, &p.Content,
		&p.AuthorID, &p.AuthorName, &p.CategoryID, &p.ImageURL, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// PostCategoryRepository implements blog.PostCategoryRepository backed by
// PostgreSQL.
type PostCategoryRepository struct {
	pool *pgxpool.Pool
}

// NewPostCategoryRepository returns a PostCategoryRepository that uses the
// given pool.
func NewPostCategoryRepository(pool *pgxpool.Pool) *PostCategoryRepository {
	return &PostCategoryRepository{pool: pool}
}

// Create persists a new post category.
func (r *PostCategoryRepository) Create(ctx context.Context, c *blog.PostCategory) error {
	_, err := r.pool.Exec(ctx, createPostCategorySQL, c.ID, c.Name, c.Slug, c.Description, c.IsActive)
	if err != nil {
		switch {
		case isUniqueViolation(err, "post_categories_slug_key"):
			return slug.ErrTaken
		case isUniqueViolation(err, "post_categories_name_key"):
			return blog.ErrNameTaken
		}
		return fmt.Errorf("creating post category %q: %w", c.Name, err)
	}
	return nil
}

// GetByID returns a single post category by identifier.
func (r *PostCategoryRepository) GetByID(ctx context.Context, id string) (*blog.PostCategory, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+postCategoryColumns+" FROM post_categories WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("getting post category %q: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanPostCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blog.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("getting post category %q: %w", id, err)
	}
	return &c, nil
}

// List returns all post categories ordered by name.
func (r *PostCategoryRepository) List(ctx context.Context) ([]blog.PostCategory, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+postCategoryColumns+" FROM post_categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing post categories: %w", err)
	}
	return pgx.CollectRows(rows, scanPostCategory)
}

// Update persists every mutable field, slug included.
func (r *PostCategoryRepository) Update(ctx context.Context, c *blog.PostCategory) error {
	tag, err := r.pool.Exec(ctx, updatePostCategorySQL, c.ID, c.Name, c.Slug, c.Description, c.IsActive)
	if err != nil {
		switch {
		case isUniqueViolation(err, "post_categories_slug_key"):
			return slug.ErrTaken
		case isUniqueViolation(err, "post_categories_name_key"):
			return blog.ErrNameTaken
		}
		return fmt.Errorf("updating post category %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return blog.ErrCategoryNotFound
	}
	return nil
}

// Delete removes a post category.
func (r *PostCategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM post_categories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting post category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return blog.ErrCategoryNotFound
	}
	return nil
}

// SlugExists reports whether slug is used by a post category other than
// excludeID.
func (r *PostCategoryRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return slugExists(ctx, r.pool, postCategorySlugExistsSQL, slug, excludeID)
}

func scanPostCategory(row pgx.CollectableRow) (blog.PostCategory, error) {
	var c blog.PostCategory
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CommentRepository implements blog.CommentRepository backed by PostgreSQL.
type CommentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository returns a CommentRepository that uses the given pool.
func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

// Create persists a new comment.
func (r *CommentRepository) Create(ctx context.Context, c *blog.Comment) error {
	_, err := r.pool.Exec(ctx, createCommentSQL,
		c.ID, c.UserID, c.ProductID, c.Content, c.Rating, c.IsApproved)
	if err != nil {
		return fmt.Errorf("creating comment: %w", err)
	}
	return nil
}

// ListByProduct returns a product's comments, newest first.
func (r *CommentRepository) ListByProduct(ctx context.Context, productID string, approvedOnly bool) ([]blog.Comment, error) {
	sql := "SELECT " + commentColumns + " FROM comments WHERE product_id = $1"
	if approvedOnly {
		sql += " AND is_approved"
	}
	sql += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, sql, productID)
	if err != nil {
		return nil, fmt.Errorf("listing comments for product %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanComment)
}

// Approve marks a comment visible and returns the updated row.
func (r *CommentRepository) Approve(ctx context.Context, id string) (*blog.Comment, error) {
	rows, err := r.pool.Query(ctx, approveCommentSQL, id)
	if err != nil {
		return nil, fmt.Errorf("approving comment %q: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanComment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blog.ErrCommentNotFound
		}
		return nil, fmt.Errorf("approving comment %q: %w", id, err)
	}
	return &c, nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting comment %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return blog.ErrCommentNotFound
	}
	return nil
}

func scanComment(row pgx.CollectableRow) (blog.Comment, error) {
	var c blog.Comment
	err := row.Scan(
		&c.ID, &c.UserID, &c.ProductID, &c.Content, &c.Rating, &c.IsApproved,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}
