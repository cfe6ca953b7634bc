package adapter

import (
	"context"
	"errors"
	"time"

	"petal-pearl/internal/features/notifications/domain"
	"petal-pearl/internal/features/notifications/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ ports.Repository = (*GormRepository)(nil)

// GormRepository persists notifications in PostgreSQL using GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository wires a PostgreSQL-backed repository and migrates its table.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if db != nil {
		if err := db.AutoMigrate(&notificationRecord{}); err != nil {
			return nil, err
		}
	}
	return &GormRepository{db: db}, nil
}

type notificationRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	OrderID   *int64    `gorm:"column:order_id;uniqueIndex"`
	Message   string    `gorm:"column:message;type:text"`
	IsRead    bool      `gorm:"column:is_read;not null;default:false;index"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (notificationRecord) TableName() string { return "notifications" }

func (r notificationRecord) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:        r.ID,
		OrderID:   r.OrderID,
		Message:   r.Message,
		Read:      r.IsRead,
		CreatedAt: r.CreatedAt,
	}
}

func (r *GormRepository) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	record := notificationRecord{
		OrderID:   n.OrderID,
		Message:   n.Message,
		IsRead:    n.Read,
		CreatedAt: n.CreatedAt,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).
		Create(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 && n.OrderID != nil {
		var existing notificationRecord
		if err := r.db.WithContext(ctx).First(&existing, "order_id = ?", *n.OrderID).Error; err != nil {
			return nil, err
		}
		return existing.toDomain(), nil
	}
	return record.toDomain(), nil
}

func (r *GormRepository) List(ctx context.Context) ([]*domain.Notification, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []notificationRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Notification, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

func (r *GormRepository) MarkRead(ctx context.Context, id int64) (*domain.Notification, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	result := r.db.WithContext(ctx).Model(&notificationRecord{}).Where("id = ?", id).Update("is_read", true)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	var record notificationRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *GormRepository) UnreadCount(ctx context.Context) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&notificationRecord{}).Where("is_read = ?", false).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *GormRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres notification repository not configured")
	}
	return nil
}
