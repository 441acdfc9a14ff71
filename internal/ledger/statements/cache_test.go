package statements

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/pharos-erp/pharos-erp/testing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheFetchJSONPopulatesOnce(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "statements", KindBalanceSheet, "run-1")
	require.NoError(t, err)

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return map[string]string{"runId": "run-1"}, nil
	}

	var first map[string]string
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	var second map[string]string
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))

	assert.Equal(t, 1, calls, "second fetch must come from the cache")
	assert.Equal(t, first, second)
}

func TestCacheBumpChangesKeys(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "statements", KindBalanceSheet, "latest")
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))
	after, err := cache.BuildKey(ctx, "statements", KindBalanceSheet, "latest")
	require.NoError(t, err)

	assert.NotEqual(t, before, after, "bump must rotate every cache key")
}

func TestCacheNilClientPassesThrough(t *testing.T) {
	cache := NewCache(nil, time.Minute)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "statements", KindCashFlow, "run-9")
	require.NoError(t, err)

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return map[string]int{"calls": calls}, nil
	}

	var out map[string]int
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	assert.Equal(t, 2, calls, "nil client must always hit the loader")
	require.NoError(t, cache.Bump(ctx))
}
