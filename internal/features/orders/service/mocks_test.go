package service

import (
	"context"
	"encoding/json"
	"time"

	"petal-pearl/internal/core/events"
	courierdomain "petal-pearl/internal/features/courier/domain"
	"petal-pearl/internal/features/orders/domain"
	"petal-pearl/internal/features/orders/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if fn, ok := args.Get(0).(func(*domain.Order) *domain.Order); ok {
		return fn(order), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order).Clone(), args.Error(1)
}

func (m *mockRepository) List(ctx context.Context) ([]*domain.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *mockRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *mockRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if fn, ok := args.Get(0).(func(*domain.Order) *domain.Order); ok {
		return fn(order), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// bumpVersion mimics a repository write.
func bumpVersion(o *domain.Order) *domain.Order {
	c := o.Clone()
	c.Version++
	return c
}

type mockCourier struct {
	mock.Mock
}

func (m *mockCourier) CreateParcel(ctx context.Context, courierName string, req courierdomain.ParcelRequest) (*courierdomain.ParcelResponse, error) {
	args := m.Called(ctx, courierName, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courierdomain.ParcelResponse), args.Error(1)
}

func (m *mockCourier) Track(ctx context.Context, courierName, consignmentID string) (json.RawMessage, error) {
	args := m.Called(ctx, courierName, consignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type mockLease struct {
	mock.Mock
}

func (m *mockLease) Release(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (ports.Lease, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.Lease), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e events.Event) error {
	return m.Called(ctx, e).Error(0)
}
