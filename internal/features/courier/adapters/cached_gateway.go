package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"petal-pearl/internal/core/cache"
	"petal-pearl/internal/core/logger"
	"petal-pearl/internal/features/courier/domain"
	"petal-pearl/internal/features/courier/ports"

	"go.uber.org/zap"
)

var _ ports.CourierGateway = (*CachedGateway)(nil)

// CachedGateway reuses tracking payloads for a short TTL. Parcel creation is never cached.
type CachedGateway struct {
	inner ports.CourierGateway
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedGateway wraps inner. A zero ttl disables caching.
func NewCachedGateway(inner ports.CourierGateway, c cache.Cache, ttl time.Duration) *CachedGateway {
	return &CachedGateway{inner: inner, cache: c, ttl: ttl}
}

func (g *CachedGateway) Name() string { return g.inner.Name() }

func (g *CachedGateway) SupportsCourier(courierName string) bool {
	return g.inner.SupportsCourier(courierName)
}

func (g *CachedGateway) CreateParcel(ctx context.Context, req domain.ParcelRequest) (*domain.ParcelResponse, error) {
	return g.inner.CreateParcel(ctx, req)
}

// Track serves from the cache when possible. Cache failures fall through to the courier.
func (g *CachedGateway) Track(ctx context.Context, consignmentID string) (json.RawMessage, error) {
	if g.ttl <= 0 || g.cache == nil {
		return g.inner.Track(ctx, consignmentID)
	}

	key := "tracking:" + g.inner.Name() + ":" + consignmentID

	cached, err := g.cache.Get(ctx, key)
	if err == nil {
		return json.RawMessage(cached), nil
	}
	if !errors.Is(err, cache.ErrKeyNotFound) {
		logger.Get().Warn("Tracking cache read failed", zap.String("key", key), zap.Error(err))
	}

	payload, err := g.inner.Track(ctx, consignmentID)
	if err != nil {
		return nil, err
	}

	if err := g.cache.Set(ctx, key, payload, g.ttl); err != nil {
		logger.Get().Warn("Tracking cache write failed", zap.String("key", key), zap.Error(err))
	}
	return payload, nil
}
