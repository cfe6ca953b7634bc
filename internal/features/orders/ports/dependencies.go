package ports

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"petal-pearl/internal/core/events"
	courierdomain "petal-pearl/internal/features/courier/domain"
)

// ErrLeaseHeld is returned by DispatchLocker when another dispatch owns the order.
var ErrLeaseHeld = errors.New("dispatch lease held")

// CourierClient books and tracks parcels.
type CourierClient interface {
	CreateParcel(ctx context.Context, courierName string, req courierdomain.ParcelRequest) (*courierdomain.ParcelResponse, error)
	Track(ctx context.Context, courierName, consignmentID string) (json.RawMessage, error)
}

// Lease is a held dispatch lock.
type Lease interface {
	Release(ctx context.Context) error
}

// DispatchLocker serializes dispatches of the same order across instances.
type DispatchLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// EventPublisher hands domain events to asynchronous subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}
