package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingLookup struct {
	inner Lookup
	calls int
}

func (c *countingLookup) FindByIDs(ctx context.Context, ids []int64) (map[int64]Product, error) {
	c.calls++
	return c.inner.FindByIDs(ctx, ids)
}

type mapLookup map[int64]Product

func (m mapLookup) FindByIDs(_ context.Context, ids []int64) (map[int64]Product, error) {
	out := map[int64]Product{}
	for _, id := range ids {
		if p, ok := m[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type failingLookup struct{}

func (failingLookup) FindByIDs(context.Context, []int64) (map[int64]Product, error) {
	return nil, errors.New("db down")
}

func TestCachedLookupServesSecondReadFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	counting := &countingLookup{inner: mapLookup{1: {ID: 1, Name: "Silk Scarf", Price: 28_000, InStock: true}}}
	cached := &CachedLookup{Next: counting, Cache: NewCache(client, time.Minute)}
	ctx := context.Background()

	first, err := cached.FindByIDs(ctx, []int64{1})
	require.NoError(t, err)
	require.Equal(t, int64(28_000), first[1].Price)

	second, err := cached.FindByIDs(ctx, []int64{1})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, counting.calls)
}

func TestCachedLookupOnlyFetchesMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewCache(client, time.Minute)
	require.NoError(t, cache.SetJSON(context.Background(), productKey(1), Product{ID: 1, Price: 10_000}))

	counting := &countingLookup{inner: mapLookup{2: {ID: 2, Price: 20_000}}}
	cached := &CachedLookup{Next: counting, Cache: cache}

	out, err := cached.FindByIDs(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, 1, counting.calls)
}

func TestCachedLookupWithoutRedisStillFetches(t *testing.T) {
	cached := &CachedLookup{Next: mapLookup{1: {ID: 1, Price: 9_900}}}

	out, err := cached.FindByIDs(context.Background(), []int64{1})
	require.NoError(t, err)
	require.Equal(t, int64(9_900), out[1].Price)
}

func TestCachedLookupPropagatesSourceError(t *testing.T) {
	cached := &CachedLookup{Next: failingLookup{}}

	_, err := cached.FindByIDs(context.Background(), []int64{1})
	require.Error(t, err)
}
