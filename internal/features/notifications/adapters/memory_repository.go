package adapter

import (
	"context"
	"sort"
	"sync"

	"petal-pearl/internal/features/notifications/domain"
	"petal-pearl/internal/features/notifications/ports"
)

var _ ports.Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps notifications in process.
type MemoryRepository struct {
	mu     sync.RWMutex
	items  map[int64]domain.Notification
	nextID int64
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: map[int64]domain.Notification{}}
}

func (r *MemoryRepository) Create(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.OrderID != nil {
		for _, existing := range r.items {
			if existing.OrderID != nil && *existing.OrderID == *n.OrderID {
				return &existing, nil
			}
		}
	}
	r.nextID++
	stored := *n
	stored.ID = r.nextID
	r.items[stored.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Notification, 0, len(r.items))
	for _, n := range r.items {
		n := n
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) MarkRead(_ context.Context, id int64) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	n.Read = true
	r.items[id] = n
	return &n, nil
}

func (r *MemoryRepository) UnreadCount(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, n := range r.items {
		if !n.Read {
			count++
		}
	}
	return count, nil
}
