// Package user defines the user entity and its persistence contract.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors surfaced by user repositories.
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Role determines a user's permission level.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User is a registered account. PasswordHash is a bcrypt hash and must never
// be serialized into API responses.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Address      string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Filter narrows and paginates user listings.
type Filter struct {
	Name  string
	Email string
	Page  int
	Limit int
}

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, f Filter) ([]User, int, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}
