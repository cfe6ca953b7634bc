package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"petal-pearl/internal/features/courier/domain"
	"petal-pearl/internal/features/courier/ports"
)

// ErrCourierNotSupported is returned when no gateway handles the requested courier.
var ErrCourierNotSupported = errors.New("courier not supported")

// CourierService routes courier calls to the gateway that supports them.
type CourierService struct {
	gateways []ports.CourierGateway
}

// NewCourierService creates a new CourierService with the given gateways.
func NewCourierService(gateways []ports.CourierGateway) *CourierService {
	return &CourierService{
		gateways: gateways,
	}
}

// Resolve returns the gateway handling courierName.
func (s *CourierService) Resolve(courierName string) (ports.CourierGateway, error) {
	for _, gw := range s.gateways {
		if gw.SupportsCourier(courierName) {
			return gw, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCourierNotSupported, courierName)
}

// CreateParcel books a parcel with the named courier. Courier errors are returned unwrapped.
func (s *CourierService) CreateParcel(ctx context.Context, courierName string, req domain.ParcelRequest) (*domain.ParcelResponse, error) {
	gw, err := s.Resolve(courierName)
	if err != nil {
		return nil, err
	}
	return gw.CreateParcel(ctx, req)
}

// Track retrieves the raw tracking payload for a consignment.
func (s *CourierService) Track(ctx context.Context, courierName, consignmentID string) (json.RawMessage, error) {
	gw, err := s.Resolve(courierName)
	if err != nil {
		return nil, err
	}

	payload, err := gw.Track(ctx, consignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracking from %s: %w", gw.Name(), err)
	}
	return payload, nil
}
