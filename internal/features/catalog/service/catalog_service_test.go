package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	adapter "petal-pearl/internal/features/catalog/adapters"
	"petal-pearl/internal/features/catalog/domain"
	"petal-pearl/internal/features/catalog/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newService() (*service.CatalogService, *adapter.MemoryRepository) {
	repo := adapter.NewMemoryRepository()
	return service.NewCatalogService(repo, service.WithClock(func() time.Time { return fixedNow })), repo
}

func saree() domain.Product {
	original := decimal.NewFromInt(5200)
	return domain.Product{
		Name:          "  Jamdani Saree ",
		Price:         decimal.NewFromInt(4500),
		OriginalPrice: &original,
		Image:         "https://cdn.test/saree.jpg",
		Category:      "Saree",
		Type:          "Clothing",
		IsSale:        true,
		Stock:         4,
		Tags:          []string{"handloom", " ", "festive "},
	}
}

func TestCatalogService_Create(t *testing.T) {
	svc, _ := newService()

	p, err := svc.Create(context.Background(), saree())
	require.NoError(t, err)

	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "Jamdani Saree", p.Name)
	assert.Equal(t, domain.ProductTypeClothing, p.Type)
	assert.Equal(t, []string{"handloom", "festive"}, p.Tags)
	assert.Equal(t, fixedNow, p.CreatedAt)
}

func TestCatalogService_CreateValidation(t *testing.T) {
	svc, _ := newService()

	tests := []struct {
		name   string
		mutate func(*domain.Product)
		msg    string
	}{
		{"MissingName", func(p *domain.Product) { p.Name = " " }, "name is required"},
		{"MissingImage", func(p *domain.Product) { p.Image = "" }, "image is required"},
		{"UnknownType", func(p *domain.Product) { p.Type = "shoes" }, "type must be one of clothing, ornament"},
		{"NegativePrice", func(p *domain.Product) { p.Price = decimal.NewFromInt(-1) }, "price must be at least 0"},
		{"NegativeStock", func(p *domain.Product) { p.Stock = -2 }, "stock must be at least 0"},
		{"NegativeOriginalPrice", func(p *domain.Product) {
			v := decimal.NewFromInt(-5)
			p.OriginalPrice = &v
		}, "originalPrice must be at least 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := saree()
			tt.mutate(&p)

			_, err := svc.Create(context.Background(), p)
			require.ErrorIs(t, err, service.ErrInvalidProduct)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCatalogService_CreateMany(t *testing.T) {
	t.Run("AllStored", func(t *testing.T) {
		svc, _ := newService()
		necklace := saree()
		necklace.Name = "Pearl Necklace"
		necklace.Type = domain.ProductTypeOrnament

		created, err := svc.CreateMany(context.Background(), []domain.Product{saree(), necklace})
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.Equal(t, int64(2), created[1].ID)
	})

	t.Run("OneInvalidStoresNothing", func(t *testing.T) {
		svc, repo := newService()
		bad := saree()
		bad.Category = ""

		_, err := svc.CreateMany(context.Background(), []domain.Product{saree(), bad})
		require.ErrorIs(t, err, service.ErrInvalidProduct)
		assert.Contains(t, err.Error(), "[1].category is required")

		n, _ := repo.Count(context.Background())
		assert.Zero(t, n)
	})

	t.Run("Empty", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.CreateMany(context.Background(), nil)
		assert.ErrorIs(t, err, service.ErrInvalidProduct)
	})
}

func TestCatalogService_Update(t *testing.T) {
	svc, _ := newService()
	created, err := svc.Create(context.Background(), saree())
	require.NoError(t, err)

	price := decimal.NewFromInt(3999)
	stock := 0
	updated, err := svc.Update(context.Background(), created.ID, domain.Patch{Price: &price, Stock: &stock})
	require.NoError(t, err)

	assert.True(t, price.Equal(updated.Price))
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, "Jamdani Saree", updated.Name)

	t.Run("InvalidPatch", func(t *testing.T) {
		empty := ""
		_, err := svc.Update(context.Background(), created.ID, domain.Patch{Name: &empty})
		assert.ErrorIs(t, err, service.ErrInvalidProduct)

		stored, _ := svc.Get(context.Background(), created.ID)
		assert.Equal(t, "Jamdani Saree", stored.Name)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := svc.Update(context.Background(), 404, domain.Patch{Price: &price})
		assert.ErrorIs(t, err, service.ErrProductNotFound)
	})
}

func TestCatalogService_ListAndDelete(t *testing.T) {
	svc, _ := newService()
	necklace := saree()
	necklace.Name = "Pearl Necklace"
	necklace.Category = "Necklace"
	necklace.Type = domain.ProductTypeOrnament
	_, err := svc.CreateMany(context.Background(), []domain.Product{saree(), necklace})
	require.NoError(t, err)

	ornaments, err := svc.List(context.Background(), domain.Filter{Type: domain.ProductTypeOrnament})
	require.NoError(t, err)
	require.Len(t, ornaments, 1)
	assert.Equal(t, "Pearl Necklace", ornaments[0].Name)

	found, err := svc.List(context.Background(), domain.Filter{Query: "SAREE"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = svc.List(context.Background(), domain.Filter{Type: "shoes"})
	assert.ErrorIs(t, err, service.ErrInvalidProduct)

	require.NoError(t, svc.Delete(context.Background(), ornaments[0].ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), ornaments[0].ID), service.ErrProductNotFound)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

type failingRepo struct {
	mock.Mock
	*adapter.MemoryRepository
}

func (r *failingRepo) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	args := r.Called(ctx, p)
	if v := args.Get(0); v != nil {
		return v.(*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCatalogService_CreateRepositoryError(t *testing.T) {
	repo := &failingRepo{MemoryRepository: adapter.NewMemoryRepository()}
	boom := errors.New("connection reset")
	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Name == "Jamdani Saree"
	})).Return(nil, boom).Once()

	svc := service.NewCatalogService(repo)
	_, err := svc.Create(context.Background(), saree())

	assert.ErrorIs(t, err, boom)
	repo.AssertExpectations(t)
}
