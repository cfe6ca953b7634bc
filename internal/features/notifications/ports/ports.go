package ports

import (
	"context"
	"errors"

	"petal-pearl/internal/features/notifications/domain"
)

// ErrNotFound is returned when the notification does not exist.
var ErrNotFound = errors.New("notification not found")

// Repository persists admin notifications.
type Repository interface {
	// Create stores n and assigns its ID. At most one notification is kept
	// per order; a repeat for the same order returns the stored one.
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	// List returns all notifications, newest first.
	List(ctx context.Context) ([]*domain.Notification, error)
	// MarkRead flags one notification as read.
	MarkRead(ctx context.Context, id int64) (*domain.Notification, error)
	// UnreadCount returns how many notifications are unread.
	UnreadCount(ctx context.Context) (int64, error)
}

// Mailer delivers outgoing email.
type Mailer interface {
	Send(ctx context.Context, msg domain.Email) error
}
