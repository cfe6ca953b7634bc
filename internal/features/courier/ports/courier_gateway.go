package ports

import (
	"context"
	"encoding/json"

	"petal-pearl/internal/features/courier/domain"
)

// CourierGateway is implemented by each courier integration.
type CourierGateway interface {
	// Name returns the identifier stored on dispatched orders.
	Name() string
	// SupportsCourier returns true if this gateway handles the given courier name.
	SupportsCourier(courierName string) bool
	// CreateParcel books a shipment. Failures are *domain.CourierError.
	CreateParcel(ctx context.Context, req domain.ParcelRequest) (*domain.ParcelResponse, error)
	// Track returns the courier's raw tracking payload for a consignment.
	Track(ctx context.Context, consignmentID string) (json.RawMessage, error)
}
