package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// slugExists runs one of the per-table EXISTS queries. The queries compare
// id <> $2::uuid with NULL semantics, so an empty excludeID excludes nothing.
func slugExists(ctx context.Context, pool *pgxpool.Pool, sql, slug, excludeID string) (bool, error) {
	var exclude *string
	if excludeID != "" {
		exclude = &excludeID
	}
	var exists bool
	if err := pool.QueryRow(ctx, sql, slug, exclude).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking slug %q: %w", slug, err)
	}
	return exists, nil
}
