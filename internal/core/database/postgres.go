package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"petal-pearl/internal/core/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens a PostgreSQL connection via GORM and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// ConnectOrFallback dials PostgreSQL when dsn is set and returns the DB plus a cleanup function.
// A nil DB means the caller should wire the in-memory repositories.
func ConnectOrFallback(ctx context.Context, dsn string) (*gorm.DB, func()) {
	if strings.TrimSpace(dsn) == "" {
		logger.Get().Warn("DATABASE_URL not set, falling back to in-memory repositories")
		return nil, func() {}
	}
	db, err := Connect(ctx, dsn)
	if err != nil {
		logger.Get().Warn("Failed to connect to postgres, falling back to in-memory repositories", zap.Error(err))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Get().Warn("Failed to unwrap postgres connection, falling back to in-memory repositories", zap.Error(err))
		return nil, func() {}
	}
	logger.Get().Info("Postgres connection established")
	return db, func() { _ = sqlDB.Close() }
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// GormPinger adapts a *gorm.DB to Pinger.
func GormPinger(db *gorm.DB) Pinger {
	return pingFunc(func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }
