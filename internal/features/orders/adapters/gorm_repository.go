package adapter

import (
	"context"
	"errors"
	"time"

	"petal-pearl/internal/features/orders/domain"
	"petal-pearl/internal/features/orders/ports"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var _ ports.OrderRepository = (*GormRepository)(nil)

// GormRepository persists orders in PostgreSQL using GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	repo := &GormRepository{db: db}
	if db != nil {
		if err := db.AutoMigrate(&orderRecord{}); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// orderRecord maps the order aggregate to the orders table.
type orderRecord struct {
	ID                   int64             `gorm:"primaryKey;column:id"`
	UserID               *int64            `gorm:"column:user_id;index"`
	CustomerName         string            `gorm:"column:customer_name;type:varchar(120)"`
	CustomerEmail        string            `gorm:"column:customer_email;type:varchar(255)"`
	CustomerPhone        string            `gorm:"column:customer_phone;type:varchar(32)"`
	ShippingAddress      string            `gorm:"column:shipping_address;type:text"`
	Items                []domain.LineItem `gorm:"column:items;type:jsonb;serializer:json"`
	TotalAmount          decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2)"`
	PaymentMethod        string            `gorm:"column:payment_method;type:varchar(32)"`
	TransactionID        *string           `gorm:"column:transaction_id;type:varchar(64)"`
	PaymentStatus        string            `gorm:"column:payment_status;type:varchar(16)"`
	Status               string            `gorm:"column:status;type:varchar(16);index"`
	Courier              *string           `gorm:"column:courier;type:varchar(32)"`
	CourierConsignmentID *string           `gorm:"column:courier_consignment_id;type:varchar(64)"`
	CourierStatus        *string           `gorm:"column:courier_status;type:varchar(32)"`
	Version              int64             `gorm:"column:version;not null;default:1"`
	CreatedAt            time.Time         `gorm:"column:created_at;index"`
	UpdatedAt            time.Time         `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Create inserts a new order and assigns its ID.
func (r *GormRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	record.ID = 0
	record.Version = 1
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByID fetches an order by identifier.
func (r *GormRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// List returns all orders, newest first.
func (r *GormRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, r.db)
}

// ListByUser returns one customer's orders, newest first.
func (r *GormRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return r.find(ctx, r.db.Where("user_id = ?", userID))
}

func (r *GormRepository) find(ctx context.Context, q *gorm.DB) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := q.WithContext(ctx).Order("created_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

// Count returns the number of orders.
func (r *GormRepository) Count(ctx context.Context) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&orderRecord{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// TotalRevenue sums order totals, excluding cancelled orders.
func (r *GormRepository) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	if err := r.ensureDB(); err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	row := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("status <> ?", string(domain.OrderStatusCancelled)).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Update writes the mutable order fields when the stored version matches order.Version.
func (r *GormRepository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]any{
			"transaction_id":         record.TransactionID,
			"payment_status":         record.PaymentStatus,
			"status":                 record.Status,
			"courier":                record.Courier,
			"courier_consignment_id": record.CourierConsignmentID,
			"courier_status":         record.CourierStatus,
			"updated_at":             record.UpdatedAt,
			"version":                gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, order.ID); err != nil {
			return nil, err
		}
		return nil, ports.ErrVersionConflict
	}
	return r.GetByID(ctx, order.ID)
}

func (r *GormRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:                   order.ID,
		UserID:               order.UserID,
		CustomerName:         order.CustomerName,
		CustomerEmail:        order.CustomerEmail,
		CustomerPhone:        order.CustomerPhone,
		ShippingAddress:      order.ShippingAddress,
		Items:                order.Items,
		TotalAmount:          order.TotalAmount,
		PaymentMethod:        order.PaymentMethod,
		TransactionID:        order.TransactionID,
		PaymentStatus:        string(order.PaymentStatus),
		Status:               string(order.Status),
		Courier:              order.Courier,
		CourierConsignmentID: order.CourierConsignmentID,
		CourierStatus:        order.CourierStatus,
		Version:              order.Version,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	return &domain.Order{
		ID:                   r.ID,
		UserID:               r.UserID,
		CustomerName:         r.CustomerName,
		CustomerEmail:        r.CustomerEmail,
		CustomerPhone:        r.CustomerPhone,
		ShippingAddress:      r.ShippingAddress,
		Items:                r.Items,
		TotalAmount:          r.TotalAmount,
		PaymentMethod:        r.PaymentMethod,
		TransactionID:        r.TransactionID,
		PaymentStatus:        domain.PaymentStatus(r.PaymentStatus),
		Status:               domain.OrderStatus(r.Status),
		Courier:              r.Courier,
		CourierConsignmentID: r.CourierConsignmentID,
		CourierStatus:        r.CourierStatus,
		Version:              r.Version,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}
