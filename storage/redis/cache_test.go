package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("starting miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestSlugCache(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	cache := NewSlugCache(rdb)

	// absent slug is not an error
	id, err := cache.GetID(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "", id)

	require.NoError(t, cache.SetID(ctx, "acme", "acme-id"))
	id, err = cache.GetID(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme-id", id)

	// entries expire on their own
	mr.FastForward(slugCacheTTL + time.Minute)
	id, err = cache.GetID(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestSlugCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	cache := NewSlugCache(rdb)

	require.NoError(t, cache.SetID(ctx, "acme", "acme-id"))
	require.NoError(t, cache.SetID(ctx, "globex", "globex-id"))

	require.NoError(t, cache.Invalidate(ctx, "acme", "globex", "ghost"))
	for _, slug := range []string{"acme", "globex"} {
		id, err := cache.GetID(ctx, slug)
		require.NoError(t, err)
		assert.Equal(t, "", id)
	}

	// no-op without keys
	require.NoError(t, cache.Invalidate(ctx))
}
