package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"petal-pearl/internal/core/logger"
	"petal-pearl/internal/features/catalog/domain"
	"petal-pearl/internal/features/catalog/ports"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrProductNotFound is returned when the product does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidProduct wraps validation failures.
	ErrInvalidProduct = errors.New("invalid product")
)

// MaxBulkProducts caps a single bulk import.
const MaxBulkProducts = 500

// CatalogService manages the product catalog.
type CatalogService struct {
	repo     ports.Repository
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a CatalogService.
type Option func(*CatalogService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *CatalogService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewCatalogService creates a CatalogService backed by repo.
func NewCatalogService(repo ports.Repository, opts ...Option) *CatalogService {
	s := &CatalogService{
		repo:     repo,
		validate: newValidator(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns products matching filter. An unknown type is rejected.
func (s *CatalogService) List(ctx context.Context, filter domain.Filter) ([]*domain.Product, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: type must be one of clothing, ornament", ErrInvalidProduct)
	}
	return s.repo.List(ctx, filter)
}

// Get returns a single product.
func (s *CatalogService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	return p, mapError(err)
}

// Create validates and stores a new product.
func (s *CatalogService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	prepared, err := s.prepare(p, "")
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, prepared)
	if err != nil {
		return nil, err
	}
	logger.Get().Info("product created", zap.Int64("product_id", created.ID), zap.String("type", string(created.Type)))
	return created, nil
}

// CreateMany stores a batch of products. Nothing is stored if any entry is invalid.
func (s *CatalogService) CreateMany(ctx context.Context, products []domain.Product) ([]*domain.Product, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: at least one product is required", ErrInvalidProduct)
	}
	if len(products) > MaxBulkProducts {
		return nil, fmt.Errorf("%w: at most %d products per import", ErrInvalidProduct, MaxBulkProducts)
	}

	prepared := make([]*domain.Product, 0, len(products))
	for i, p := range products {
		pp, err := s.prepare(p, fmt.Sprintf("[%d].", i))
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, pp)
	}

	created, err := s.repo.CreateMany(ctx, prepared)
	if err != nil {
		return nil, err
	}
	logger.Get().Info("products imported", zap.Int("count", len(created)))
	return created, nil
}

// Update applies a partial patch to an existing product.
func (s *CatalogService) Update(ctx context.Context, id int64, patch domain.Patch) (*domain.Product, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	patch.Apply(current, s.now())
	normalize(current)
	if err := s.check(current, ""); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, current)
	return updated, mapError(err)
}

// Delete removes a product.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapError(err)
	}
	logger.Get().Info("product deleted", zap.Int64("product_id", id))
	return nil
}

// Count returns the catalog size.
func (s *CatalogService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *CatalogService) prepare(p domain.Product, prefix string) (*domain.Product, error) {
	normalize(&p)
	if err := s.check(&p, prefix); err != nil {
		return nil, err
	}
	now := s.now()
	p.ID = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	return &p, nil
}

func (s *CatalogService) check(p *domain.Product, prefix string) error {
	if err := s.validate.Struct(p); err != nil {
		return validationError(err, prefix)
	}
	if p.OriginalPrice != nil && p.OriginalPrice.IsNegative() {
		return fmt.Errorf("%w: %soriginalPrice must be at least 0", ErrInvalidProduct, prefix)
	}
	return nil
}

func normalize(p *domain.Product) {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Type = domain.ProductType(strings.ToLower(strings.TrimSpace(string(p.Type))))
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	p.Tags = tags
}

func mapError(err error) error {
	if errors.Is(err, ports.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func validationError(err error, prefix string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := prefix + fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidProduct, strings.Join(msgs, "; "))
}
