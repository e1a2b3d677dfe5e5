package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sereneleaf/backend/internal/domain/auth"
)

const (
	upsertOTPSQL = `INSERT INTO otps (email, code, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at`

	findOTPSQL = `SELECT email, code, expires_at FROM otps WHERE email = $1 AND code = $2`

	deleteOTPSQL = `DELETE FROM otps WHERE email = $1 AND code = $2`
)

var _ auth.OTPRepository = (*OTPRepository)(nil)

// OTPRepository implements auth.OTPRepository backed by PostgreSQL. One code
// per email; a new code replaces the previous one.
type OTPRepository struct {
	pool *pgxpool.Pool
}

// NewOTPRepository returns an OTPRepository that uses the given pool.
func NewOTPRepository(pool *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{pool: pool}
}

// Upsert stores the code for the email, replacing any previous one.
func (r *OTPRepository) Upsert(ctx context.Context, o *auth.OTP) error {
	_, err := r.pool.Exec(ctx, upsertOTPSQL, o.Email, o.Code, o.ExpiresAt)
	if err != nil {
		return fmt.Errorf("storing OTP for %q: %w", o.Email, err)
	}
	return nil
}

// Find returns the stored code matching email and code. Unknown pairs map to
// auth.ErrInvalidOTP.
func (r *OTPRepository) Find(ctx context.Context, email, code string) (*auth.OTP, error) {
	var o auth.OTP
	err := r.pool.QueryRow(ctx, findOTPSQL, email, code).Scan(&o.Email, &o.Code, &o.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrInvalidOTP
		}
		return nil, fmt.Errorf("finding OTP for %q: %w", email, err)
	}
	return &o, nil
}

// Delete consumes a code. Deleting a missing code is not an error.
func (r *OTPRepository) Delete(ctx context.Context, email, code string) error {
	if _, err := r.pool.Exec(ctx, deleteOTPSQL, email, code); err != nil {
		return fmt.Errorf("deleting OTP for %q: %w", email, err)
	}
	return nil
}
