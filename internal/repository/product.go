package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sereneleaf/backend/internal/domain/product"
	"github.com/sereneleaf/backend/internal/domain/slug"
)

const (
	productColumns = `id, name, slug, short_description, description, price, quantity,
		category, image_url, is_active, created_at, updated_at`

	createProductSQL = `INSERT INTO products (id, name, slug, short_description, description,
			price, quantity, category, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	updateProductSQL = `UPDATE products SET name = $2, slug = $3, short_description = $4,
			description = $5, price = $6, quantity = $7, category = $8, image_url = $9,
			is_active = $10, updated_at = now()
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	productSlugExistsSQL = `SELECT EXISTS (SELECT 1 FROM products
		WHERE slug = $1 AND ($2::uuid IS NULL OR id <> $2::uuid))`
)

// allowed sort columns for product listings; anything else falls back to
// created_at.
var productSortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"quantity":   "quantity",
	"created_at": "created_at",
}

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create persists a new product. Slug uniqueness is enforced by the
// products_slug_key index; callers retry via slug.Resolver.InsertWithRetry
// on slug.ErrTaken.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, createProductSQL,
		p.ID, p.Name, p.Slug, p.ShortDescription, p.Description,
		p.Price, p.Quantity, p.Category, p.ImageURL, p.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err, "products_slug_key") {
			return slug.ErrTaken
		}
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}
	return nil
}

// GetByID returns a single product by identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	return r.getOne(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
}

// GetBySlug returns a single product by slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return r.getOne(ctx, "SELECT "+productColumns+" FROM products WHERE slug = $1", slug)
}

func (r *ProductRepository) getOne(ctx context.Context, sql, arg string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// List returns products matching the filter plus the unpaginated total.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if f.Search != "" {
		add("name ILIKE ?", "%"+f.Search+"%")
	}
	if f.Category != "" {
		add("category = ?", f.Category)
	}
	if f.MinPrice != nil {
		add("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= ?", *f.MaxPrice)
	}
	if f.IsActive != nil {
		add("is_active = ?", *f.IsActive)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM products WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	sortCol, ok := productSortColumns[f.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		dir = "ASC"
	}

	page, limit := normalizePage(f.Page, f.Limit)
	args = append(args, limit, (page-1)*limit)
	sql := fmt.Sprintf("SELECT %s FROM products WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		productColumns, cond, sortCol, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return products, total, nil
}

// Update persists every mutable field, slug included.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Slug, p.ShortDescription, p.Description,
		p.Price, p.Quantity, p.Category, p.ImageURL, p.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err, "products_slug_key") {
			return slug.ErrTaken
		}
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// SlugExists reports whether slug is used by a product other than excludeID.
func (r *ProductRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return slugExists(ctx, r.pool, productSlugExistsSQL, slug, excludeID)
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.ShortDescription, &p.Description,
		&p.Price, &p.Quantity, &p.Category, &p.ImageURL, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
