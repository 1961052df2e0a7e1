package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	dto := ProductDTO{ID: "p1", Name: "Banner", Mode: "area", BasePrice: 30}
	require.NoError(t, cache.SetJSON(ctx, "catalog:product:p1", dto))

	var got ProductDTO
	hit, err := cache.GetJSON(ctx, "catalog:product:p1", &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, dto, got)
}

func TestCacheMissReportsNoHit(t *testing.T) {
	cache, _ := newTestCache(t)
	var got ProductDTO
	hit, err := cache.GetJSON(context.Background(), "catalog:product:missing", &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCacheInvalidateDropsKey(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.SetJSON(ctx, "catalog:product:p1", ProductDTO{ID: "p1"}))
	cache.Invalidate(ctx, "catalog:product:p1")
	var got ProductDTO
	hit, err := cache.GetJSON(ctx, "catalog:product:p1", &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCacheEntryExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.SetJSON(ctx, "catalog:product:p1", ProductDTO{ID: "p1"}))
	mr.FastForward(2 * time.Minute)
	var got ProductDTO
	hit, err := cache.GetJSON(ctx, "catalog:product:p1", &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *Cache
	ctx := context.Background()
	require.NoError(t, cache.SetJSON(ctx, "k", ProductDTO{}))
	var got ProductDTO
	hit, err := cache.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, hit)
	cache.Invalidate(ctx, "k")
}
