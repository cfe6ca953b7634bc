package ports

import (
	"context"
	"errors"

	"petal-pearl/internal/features/catalog/domain"
)

// ErrNotFound is returned when the product does not exist.
var ErrNotFound = errors.New("product not found")

// Repository persists catalog products.
type Repository interface {
	List(ctx context.Context, filter domain.Filter) ([]*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	// CreateMany inserts all products or none.
	CreateMany(ctx context.Context, products []*domain.Product) ([]*domain.Product, error)
	// Update overwrites every field of the stored product.
	Update(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
