package ports

import (
	"context"
	"errors"

	"petal-pearl/internal/features/orders/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when the order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrVersionConflict is returned by Update when the stored version moved on.
	ErrVersionConflict = errors.New("order version conflict")
)

// OrderRepository persists orders. This is a Secondary Port (Driven Port).
type OrderRepository interface {
	// Create stores a new order and assigns its ID.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// GetByID returns ErrNotFound when missing.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// List returns all orders, newest first.
	List(ctx context.Context) ([]*domain.Order, error)
	// ListByUser returns one customer's orders, newest first.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	// Count returns the number of orders.
	Count(ctx context.Context) (int64, error)
	// TotalRevenue sums TotalAmount over orders that are not cancelled.
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	// Update writes the order only if the stored version equals order.Version,
	// returning the stored order with the bumped version.
	Update(ctx context.Context, order *domain.Order) (*domain.Order, error)
}
