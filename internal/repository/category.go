package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sereneleaf/backend/internal/domain/category"
	"github.com/sereneleaf/backend/internal/domain/slug"
)

const (
	categoryColumns = `id, name, slug, description, is_active, created_at, updated_at`

	createCategorySQL = `INSERT INTO categories (id, name, slug, description, is_active)
		VALUES ($1, $2, $3, $4, $5)`

	updateCategorySQL = `UPDATE categories SET name = $2, slug = $3, description = $4,
			is_active = $5, updated_at = now()
		WHERE id = $1`

	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`

	categorySlugExistsSQL = `SELECT EXISTS (SELECT 1 FROM categories
		WHERE slug = $1 AND ($2::uuid IS NULL OR id <> $2::uuid))`
)

var _ category.Repository = (*CategoryRepository)(nil)

// CategoryRepository implements category.Repository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create persists a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	_, err := r.pool.Exec(ctx, createCategorySQL, c.ID, c.Name, c.Slug, c.Description, c.IsActive)
	if err != nil {
		switch {
		case isUniqueViolation(err, "categories_slug_key"):
			return slug.ErrTaken
		case isUniqueViolation(err, "categories_name_key"):
			return category.ErrNameTaken
		}
		return fmt.Errorf("creating category %q: %w", c.Name, err)
	}
	return nil
}

// GetByID returns a single category by identifier.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*category.Category, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	return &c, nil
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]category.Category, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

// Update persists every mutable field, slug included.
func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	tag, err := r.pool.Exec(ctx, updateCategorySQL, c.ID, c.Name, c.Slug, c.Description, c.IsActive)
	if err != nil {
		switch {
		case isUniqueViolation(err, "categories_slug_key"):
			return slug.ErrTaken
		case isUniqueViolation(err, "categories_name_key"):
			return category.ErrNameTaken
		}
		return fmt.Errorf("updating category %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

// Delete removes a category.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return fmt.Errorf("deleting category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

// SlugExists reports whether slug is used by a category other than excludeID.
func (r *CategoryRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return slugExists(ctx, r.pool, categorySlugExistsSQL, slug, excludeID)
}

func scanCategory(row pgx.CollectableRow) (category.Category, error) {
	var c category.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
