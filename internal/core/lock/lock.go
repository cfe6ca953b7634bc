package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petal-pearl/internal/core/cache"

	"github.com/google/uuid"
)

// ErrNotAcquired is returned when another holder owns the key.
var ErrNotAcquired = errors.New("lease held by another caller")

// Locker hands out expiring, token-fenced leases on top of a Cache.
type Locker struct {
	cache  cache.Cache
	prefix string
}

// NewLocker creates a Locker. Keys are namespaced with prefix.
func NewLocker(c cache.Cache, prefix string) *Locker {
	return &Locker{cache: c, prefix: prefix}
}

// Lease is a held lock. Release it when done; it expires on its own otherwise.
type Lease struct {
	locker *Locker
	key    string
	token  []byte
}

// Key returns the namespaced key the lease holds.
func (l *Lease) Key() string { return l.key }

// Acquire takes the lease for key, or returns ErrNotAcquired.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	full := l.prefix + key
	token := []byte(uuid.NewString())

	ok, err := l.cache.SetNX(ctx, full, token, ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", full, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return &Lease{locker: l, key: full, token: token}, nil
}

// Release frees the lease if this holder still owns it.
// Releasing an expired or stolen lease is not an error.
func (le *Lease) Release(ctx context.Context) error {
	if _, err := le.locker.cache.CompareAndDelete(ctx, le.key, le.token); err != nil {
		return fmt.Errorf("release %s: %w", le.key, err)
	}
	return nil
}
