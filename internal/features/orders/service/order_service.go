package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"petal-pearl/internal/core/events"
	"petal-pearl/internal/core/logger"
	courierdomain "petal-pearl/internal/features/courier/domain"
	"petal-pearl/internal/features/orders/domain"
	"petal-pearl/internal/features/orders/ports"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultLeaseTTL = 30 * time.Second

// OrderService implements the order workflow: checkout, courier dispatch and status management.
type OrderService struct {
	repo     ports.OrderRepository
	courier  ports.CourierClient
	locker   ports.DispatchLocker
	events   ports.EventPublisher
	validate *validator.Validate

	courierName string
	leaseTTL    time.Duration
	now         func() time.Time
}

// Option configures an OrderService.
type Option func(*OrderService)

// WithCourier sets the courier used by Dispatch.
func WithCourier(name string) Option {
	return func(s *OrderService) {
		s.courierName = name
	}
}

// WithLeaseTTL sets how long a dispatch holds the per-order lease.
func WithLeaseTTL(ttl time.Duration) Option {
	return func(s *OrderService) {
		if ttl > 0 {
			s.leaseTTL = ttl
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *OrderService) {
		s.now = now
	}
}

// WithEvents sets the publisher for OrderPlaced and OrderDispatched.
func WithEvents(p ports.EventPublisher) Option {
	return func(s *OrderService) {
		s.events = p
	}
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(repo ports.OrderRepository, courier ports.CourierClient, locker ports.DispatchLocker, opts ...Option) *OrderService {
	s := &OrderService{
		repo:        repo,
		courier:     courier,
		locker:      locker,
		validate:    newValidator(),
		courierName: courierdomain.CourierSteadfast,
		leaseTTL:    defaultLeaseTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var _ ports.OrderService = (*OrderService)(nil)

// Create validates the checkout payload, prices it and stores the order.
// OrderPlaced is published afterwards; a publish failure does not fail the checkout.
func (s *OrderService) Create(ctx context.Context, input domain.PlaceOrderInput, userID *int64) (*domain.Order, error) {
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return nil, validationError(err)
	}

	order, err := domain.NewOrder(input, userID, s.now())
	if err != nil {
		return nil, mapError(err)
	}

	saved, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.publish(ctx, domain.OrderPlaced{BaseEvent: domain.BaseEvent{Timestamp: s.now()}, Order: saved.Clone()})
	return saved, nil
}

// Dispatch books a courier parcel for the order and confirms it.
// At most one dispatch per order runs at a time; on courier failure the order is untouched.
func (s *OrderService) Dispatch(ctx context.Context, orderID int64) (*domain.Order, error) {
	lease, err := s.locker.Acquire(ctx, strconv.FormatInt(orderID, 10), s.leaseTTL)
	if err != nil {
		if errors.Is(err, ports.ErrLeaseHeld) {
			return nil, ErrDispatchInProgress
		}
		return nil, fmt.Errorf("failed to acquire dispatch lease: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Get().Warn("Failed to release dispatch lease", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}()

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}

	if err := order.CanDispatch(); err != nil {
		return nil, err
	}

	parcel, err := s.courier.CreateParcel(ctx, s.courierName, parcelRequestFor(order))
	if err != nil {
		return nil, err
	}

	if err := order.MarkDispatched(s.courierName, parcel.ConsignmentID, s.now()); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, order)
	if err != nil {
		logger.Get().Error("Parcel created but order update failed",
			zap.Int64("order_id", orderID),
			zap.String("consignment_id", parcel.ConsignmentID),
			zap.Error(err),
		)
		return nil, mapError(err)
	}

	s.publish(ctx, domain.OrderDispatched{BaseEvent: domain.BaseEvent{Timestamp: s.now()}, Order: updated.Clone()})
	return updated, nil
}

// UpdateStatus moves the order along the fulfilment state machine.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if order.Status == status {
		return order, nil
	}
	if err := order.UpdateStatus(status, s.now()); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// UpdatePaymentStatus moves the order along the payment state machine.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID int64, status domain.PaymentStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidPaymentStatus
	}
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if order.PaymentStatus == status {
		return order, nil
	}
	if err := order.UpdatePaymentStatus(status, s.now()); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// TotalRevenue sums order totals, excluding cancelled orders.
func (s *OrderService) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	return s.repo.TotalRevenue(ctx)
}

// List returns all orders, newest first.
func (s *OrderService) List(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.List(ctx)
}

// ListByUser returns a customer's orders, newest first.
func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

// Count returns the number of orders.
func (s *OrderService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Track returns the courier tracking payload of a dispatched order.
func (s *OrderService) Track(ctx context.Context, orderID int64) (json.RawMessage, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if !order.IsDispatched() {
		return nil, ErrNotDispatched
	}

	courier := s.courierName
	if order.Courier != nil && *order.Courier != "" {
		courier = *order.Courier
	}
	return s.courier.Track(ctx, courier, *order.CourierConsignmentID)
}

func (s *OrderService) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		logger.Get().Warn("Failed to publish order event",
			zap.String("event", e.EventName()),
			zap.Error(err),
		)
	}
}

func parcelRequestFor(order *domain.Order) courierdomain.ParcelRequest {
	return courierdomain.ParcelRequest{
		Invoice:          courierdomain.InvoiceFor(order.ID),
		RecipientName:    order.CustomerName,
		RecipientPhone:   order.CustomerPhone,
		RecipientAddress: order.ShippingAddress,
		CODAmount:        order.CODAmount(),
	}
}
