package service

import (
	"errors"
	"fmt"

	"petal-pearl/internal/features/orders/domain"
	"petal-pearl/internal/features/orders/ports"
)

var (
	// ErrOrderNotFound is returned when the order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidInput signals the checkout payload violated a rule.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrDispatchInProgress is returned when another dispatch holds the order's lease.
	ErrDispatchInProgress = errors.New("dispatch already in progress for this order")
	// ErrConcurrentUpdate is returned when the order changed between read and write.
	ErrConcurrentUpdate = errors.New("order was modified concurrently")
	// ErrNotDispatched is returned when tracking an order that has no parcel.
	ErrNotDispatched = errors.New("order has not been dispatched")

	ErrAlreadyDispatched    = domain.ErrAlreadyDispatched
	ErrInvalidStatus        = domain.ErrInvalidStatus
	ErrInvalidPaymentStatus = domain.ErrInvalidPaymentStatus
	ErrInvalidTransition    = domain.ErrInvalidTransition
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return ErrOrderNotFound
	case errors.Is(err, ports.ErrVersionConflict):
		return ErrConcurrentUpdate
	case errors.Is(err, domain.ErrNoItems),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
