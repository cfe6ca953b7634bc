package adapter

import (
	"context"
	"errors"
	"sort"
	"sync"

	"petal-pearl/internal/features/orders/domain"
	"petal-pearl/internal/features/orders/ports"

	"github.com/shopspring/decimal"
)

var _ ports.OrderRepository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory order persistence adapter used when no database is configured.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[int64]*domain.Order
	nextID int64
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: map[int64]*domain.Order{}}
}

// Create stores a copy of the order under the next ID.
func (r *MemoryRepository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := order.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone.ID = r.nextID
	clone.Version = 1
	r.orders[clone.ID] = clone
	return clone.Clone(), nil
}

// GetByID returns a copy of the stored order.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

// List returns all orders, newest first.
func (r *MemoryRepository) List(_ context.Context) ([]*domain.Order, error) {
	return r.filter(func(*domain.Order) bool { return true }), nil
}

// ListByUser returns one customer's orders, newest first.
func (r *MemoryRepository) ListByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool {
		return o.UserID != nil && *o.UserID == userID
	}), nil
}

func (r *MemoryRepository) filter(keep func(*domain.Order) bool) []*domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if keep(order) {
			list = append(list, order.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// Count returns the number of orders.
func (r *MemoryRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.orders)), nil
}

// TotalRevenue sums order totals, excluding cancelled orders.
func (r *MemoryRepository) TotalRevenue(_ context.Context) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := decimal.Zero
	for _, order := range r.orders {
		if order.Status != domain.OrderStatusCancelled {
			total = total.Add(order.TotalAmount)
		}
	}
	return total, nil
}

// Update replaces the stored order when its version matches.
func (r *MemoryRepository) Update(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if stored.Version != order.Version {
		return nil, ports.ErrVersionConflict
	}
	clone := order.Clone()
	clone.Version++
	r.orders[clone.ID] = clone
	return clone.Clone(), nil
}
