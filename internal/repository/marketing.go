package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sereneleaf/backend/internal/domain/marketing"
)

const (
	createSubscriptionSQL = `INSERT INTO subscriptions (email, active) VALUES ($1, $2)`

	listSubscriptionsSQL = `SELECT email, active, created_at FROM subscriptions
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	createContactSQL = `INSERT INTO contact_messages (id, name, email, phone, message)
		VALUES ($1, $2, $3, $4, $5)`
)

var (
	_ marketing.SubscriptionRepository = (*SubscriptionRepository)(nil)
	_ marketing.ContactRepository      = (*ContactRepository)(nil)
)

// SubscriptionRepository implements marketing.SubscriptionRepository backed
// by PostgreSQL.
type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository returns a SubscriptionRepository that uses the
// given pool.
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// Create persists a new subscription. A duplicate email maps to
// marketing.ErrAlreadySubscribed.
func (r *SubscriptionRepository) Create(ctx context.Context, s *marketing.Subscription) error {
	_, err := r.pool.Exec(ctx, createSubscriptionSQL, s.Email, s.Active)
	if err != nil {
		if isUniqueViolation(err, "subscriptions_pkey") {
			return marketing.ErrAlreadySubscribed
		}
		return fmt.Errorf("creating subscription %q: %w", s.Email, err)
	}
	return nil
}

// List returns subscriptions, newest first, plus the unpaginated total.
func (r *SubscriptionRepository) List(ctx context.Context, p marketing.Page) ([]marketing.Subscription, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM subscriptions").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting subscriptions: %w", err)
	}

	page, limit := normalizePage(p.Page, p.Limit)
	rows, err := r.pool.Query(ctx, listSubscriptionsSQL, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("listing subscriptions: %w", err)
	}
	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (marketing.Subscription, error) {
		var s marketing.Subscription
		err := row.Scan(&s.Email, &s.Active, &s.CreatedAt)
		return s, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing subscriptions: %w", err)
	}
	return subs, total, nil
}

// ContactRepository implements marketing.ContactRepository backed by
// PostgreSQL.
type ContactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository returns a ContactRepository that uses the given pool.
func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

// Create persists a new contact message.
func (r *ContactRepository) Create(ctx context.Context, m *marketing.ContactMessage) error {
	_, err := r.pool.Exec(ctx, createContactSQL, m.ID, m.Name, m.Email, m.Phone, m.Message)
	if err != nil {
		return fmt.Errorf("creating contact message: %w", err)
	}
	return nil
}

// List returns contact messages, newest first, optionally filtered by a
// search term over name, email, and message.
func (r *ContactRepository) List(ctx context.Context, p marketing.Page, search string) ([]marketing.ContactMessage, int, error) {
	cond := "TRUE"
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		cond = "(name ILIKE $1 OR email ILIKE $1 OR message ILIKE $1)"
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM contact_messages WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting contact messages: %w", err)
	}

	page, limit := normalizePage(p.Page, p.Limit)
	args = append(args, limit, (page-1)*limit)
	sql := fmt.Sprintf(`SELECT id, name, email, phone, message, created_at FROM contact_messages
		WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing contact messages: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (marketing.ContactMessage, error) {
		var m marketing.ContactMessage
		err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Message, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing contact messages: %w", err)
	}
	return msgs, total, nil
}
