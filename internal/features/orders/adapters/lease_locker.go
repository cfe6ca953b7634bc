package adapter

import (
	"context"
	"errors"
	"time"

	"petal-pearl/internal/core/lock"
	"petal-pearl/internal/features/orders/ports"
)

var _ ports.DispatchLocker = (*LeaseLocker)(nil)

// LeaseLocker adapts the cache-backed lock.Locker to the dispatch port.
type LeaseLocker struct {
	locker *lock.Locker
}

// NewLeaseLocker creates a LeaseLocker.
func NewLeaseLocker(locker *lock.Locker) *LeaseLocker {
	return &LeaseLocker{locker: locker}
}

// Acquire takes the lease for an order, returning ports.ErrLeaseHeld when it is taken.
func (l *LeaseLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (ports.Lease, error) {
	lease, err := l.locker.Acquire(ctx, key, ttl)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, ports.ErrLeaseHeld
		}
		return nil, err
	}
	return lease, nil
}
