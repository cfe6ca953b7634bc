package adapter

import (
	"context"
	"errors"
	"sort"
	"sync"

	"petal-pearl/internal/features/catalog/domain"
	"petal-pearl/internal/features/catalog/ports"
)

var _ ports.Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps products in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	nextID   int64
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: map[int64]*domain.Product{}}
}

func (r *MemoryRepository) List(_ context.Context, filter domain.Filter) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Matches(p) {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return clone(p), nil
}

func (r *MemoryRepository) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	if p == nil {
		return nil, errors.New("product is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(p), nil
}

func (r *MemoryRepository) CreateMany(_ context.Context, products []*domain.Product) ([]*domain.Product, error) {
	for _, p := range products {
		if p == nil {
			return nil, errors.New("product is nil")
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Product, 0, len(products))
	for _, p := range products {
		out = append(out, r.insert(p))
	}
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, p *domain.Product) (*domain.Product, error) {
	if p == nil {
		return nil, errors.New("product is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.products[p.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	stored := clone(p)
	stored.CreatedAt = existing.CreatedAt
	r.products[p.ID] = stored
	return clone(stored), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

// insert requires r.mu to be held.
func (r *MemoryRepository) insert(p *domain.Product) *domain.Product {
	r.nextID++
	stored := clone(p)
	stored.ID = r.nextID
	r.products[stored.ID] = stored
	return clone(stored)
}

func clone(p *domain.Product) *domain.Product {
	c := *p
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		c.OriginalPrice = &v
	}
	c.Tags = append([]string{}, p.Tags...)
	return &c
}
