package ports

import (
	"context"
	"encoding/json"

	"petal-pearl/internal/features/orders/domain"

	"github.com/shopspring/decimal"
)

// OrderService exposes the order use cases to the HTTP layer. This is a Primary Port.
type OrderService interface {
	Create(ctx context.Context, input domain.PlaceOrderInput, userID *int64) (*domain.Order, error)
	Dispatch(ctx context.Context, orderID int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID int64, status domain.PaymentStatus) (*domain.Order, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	List(ctx context.Context) ([]*domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	Get(ctx context.Context, orderID int64) (*domain.Order, error)
	Count(ctx context.Context) (int64, error)
	Track(ctx context.Context, orderID int64) (json.RawMessage, error)
}
