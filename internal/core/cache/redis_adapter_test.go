package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) (*RedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	adapter, err := NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	return adapter, mr
}

func TestRedisAdapter_GetSet(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	err := adapter.Set(ctx, "tracking:SF123", []byte(`{"status":"in_review"}`), 10*time.Second)
	require.NoError(t, err)

	got, err := adapter.Get(ctx, "tracking:SF123")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"status":"in_review"}`), got)
}

func TestRedisAdapter_GetNotFound(t *testing.T) {
	adapter, _ := newTestAdapter(t)

	_, err := adapter.Get(context.Background(), "non_existent_key")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisAdapter_Delete(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "delete_test", []byte("value"), 0))
	require.NoError(t, adapter.Delete(ctx, "delete_test"))

	_, err := adapter.Get(ctx, "delete_test")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisAdapter_TTL(t *testing.T) {
	adapter, mr := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "ttl_test", []byte("expires_soon"), time.Second))

	_, err := adapter.Get(ctx, "ttl_test")
	assert.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = adapter.Get(ctx, "ttl_test")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisAdapter_SetNX(t *testing.T) {
	adapter, mr := newTestAdapter(t)
	ctx := context.Background()

	ok, err := adapter.SetNX(ctx, "dispatch:1", []byte("token-a"), 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.SetNX(ctx, "dispatch:1", []byte("token-b"), 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second writer must not overwrite the lease")

	got, err := mr.Get("dispatch:1")
	require.NoError(t, err)
	assert.Equal(t, "token-a", got)

	mr.FastForward(31 * time.Second)

	ok, err = adapter.SetNX(ctx, "dispatch:1", []byte("token-b"), 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired lease can be taken")
}

func TestRedisAdapter_CompareAndDelete(t *testing.T) {
	adapter, mr := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "dispatch:2", []byte("owner"), time.Minute))

	removed, err := adapter.CompareAndDelete(ctx, "dispatch:2", []byte("intruder"))
	require.NoError(t, err)
	assert.False(t, removed)
	assert.True(t, mr.Exists("dispatch:2"))

	removed, err = adapter.CompareAndDelete(ctx, "dispatch:2", []byte("owner"))
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, mr.Exists("dispatch:2"))

	removed, err = adapter.CompareAndDelete(ctx, "dispatch:2", []byte("owner"))
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRedisAdapter_Ping(t *testing.T) {
	adapter, _ := newTestAdapter(t)

	assert.NoError(t, adapter.Ping(context.Background()))
}

func TestRedisAdapter_InvalidURL(t *testing.T) {
	_, err := NewRedisAdapter("invalid://url")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}
