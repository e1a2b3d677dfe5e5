// Package marketing holds newsletter subscriptions and contact messages.
package marketing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrAlreadySubscribed is returned when the email is already on the list.
var ErrAlreadySubscribed = errors.New("email is already subscribed")

// Subscription is a newsletter signup keyed by email.
type Subscription struct {
	Email     string
	Active    bool
	CreatedAt time.Time
}

// ContactMessage is a message sent through the site's contact form.
type ContactMessage struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Message   string
	CreatedAt time.Time
}

// Page paginates listings.
type Page struct {
	Page  int
	Limit int
}

// SubscriptionRepository defines persistence operations for subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, s *Subscription) error
	List(ctx context.Context, p Page) ([]Subscription, int, error)
}

// ContactRepository defines persistence operations for contact messages.
type ContactRepository interface {
	Create(ctx context.Context, m *ContactMessage) error
	List(ctx context.Context, p Page, search string) ([]ContactMessage, int, error)
}
