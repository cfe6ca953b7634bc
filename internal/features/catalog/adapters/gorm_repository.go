package adapter

import (
	"context"
	"errors"
	"strings"
	"time"

	"petal-pearl/internal/features/catalog/domain"
	"petal-pearl/internal/features/catalog/ports"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var _ ports.Repository = (*GormRepository)(nil)

// GormRepository persists products in PostgreSQL using GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository wires a PostgreSQL-backed product repository and migrates its table.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	repo := &GormRepository{db: db}
	if db != nil {
		if err := db.AutoMigrate(&productRecord{}); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

type productRecord struct {
	ID            int64            `gorm:"primaryKey;column:id"`
	Name          string           `gorm:"column:name;type:varchar(200);not null"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	OriginalPrice *decimal.Decimal `gorm:"column:original_price;type:numeric(10,2)"`
	Image         string           `gorm:"column:image;type:text"`
	Description   string           `gorm:"column:description;type:text"`
	Category      string           `gorm:"column:category;type:varchar(100);index"`
	Type          string           `gorm:"column:type;type:varchar(16);index"`
	IsNew         bool             `gorm:"column:is_new;not null;default:false"`
	IsSale        bool             `gorm:"column:is_sale;not null;default:false"`
	Stock         int              `gorm:"column:stock;not null;default:0"`
	Material      string           `gorm:"column:material;type:varchar(100)"`
	Occasion      string           `gorm:"column:occasion;type:varchar(100)"`
	Color         string           `gorm:"column:color;type:varchar(50)"`
	Tags          pq.StringArray   `gorm:"column:tags;type:text[]"`
	CreatedAt     time.Time        `gorm:"column:created_at"`
	UpdatedAt     time.Time        `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// List returns the products matching filter, ordered by ID.
func (r *GormRepository) List(ctx context.Context, filter domain.Filter) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&productRecord{})
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	if term := strings.TrimSpace(filter.Query); term != "" {
		like := "%" + escapeLike(term) + "%"
		q = q.Where("(name ILIKE ? OR category ILIKE ?)", like, like)
	}

	var records []productRecord
	if err := q.Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain())
	}
	return products, nil
}

// GetByID fetches a product by identifier.
func (r *GormRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Create inserts a product and assigns its ID.
func (r *GormRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("product is nil")
	}
	record := toRecord(p)
	record.ID = 0
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// CreateMany inserts the products in a single transaction.
func (r *GormRepository) CreateMany(ctx context.Context, products []*domain.Product) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []*domain.Product{}, nil
	}
	records := make([]productRecord, 0, len(products))
	for _, p := range products {
		if p == nil {
			return nil, errors.New("product is nil")
		}
		record := toRecord(p)
		record.ID = 0
		records = append(records, record)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&records).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Product, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

// Update overwrites every column except created_at.
func (r *GormRepository) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("product is nil")
	}
	record := toRecord(p)
	result := r.db.WithContext(ctx).
		Model(&productRecord{ID: p.ID}).
		Select("*").
		Omit("id", "created_at").
		Updates(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return r.GetByID(ctx, p.ID)
}

// Delete removes a product.
func (r *GormRepository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&productRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Count returns the number of products.
func (r *GormRepository) Count(ctx context.Context) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&productRecord{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *GormRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres product repository not configured")
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func toRecord(p *domain.Product) productRecord {
	return productRecord{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Image:         p.Image,
		Description:   p.Description,
		Category:      p.Category,
		Type:          string(p.Type),
		IsNew:         p.IsNew,
		IsSale:        p.IsSale,
		Stock:         p.Stock,
		Material:      p.Material,
		Occasion:      p.Occasion,
		Color:         p.Color,
		Tags:          pq.StringArray(p.Tags),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r productRecord) toDomain() *domain.Product {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &domain.Product{
		ID:            r.ID,
		Name:          r.Name,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Image:         r.Image,
		Description:   r.Description,
		Category:      r.Category,
		Type:          domain.ProductType(r.Type),
		IsNew:         r.IsNew,
		IsSale:        r.IsSale,
		Stock:         r.Stock,
		Material:      r.Material,
		Occasion:      r.Occasion,
		Color:         r.Color,
		Tags:          tags,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
