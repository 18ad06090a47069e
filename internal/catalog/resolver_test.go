package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	mu       sync.Mutex
	products map[int64]Product
	failIDs  map[int64]bool
	calls    [][]int64
}

func (s *stubLookup) FindByIDs(_ context.Context, ids []int64) (map[int64]Product, error) {
	s.mu.Lock()
	s.calls = append(s.calls, ids)
	s.mu.Unlock()
	for _, id := range ids {
		if s.failIDs[id] {
			return nil, errors.New("connection reset")
		}
	}
	out := map[int64]Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func TestResolveReturnsProducts(t *testing.T) {
	lookup := &stubLookup{products: map[int64]Product{
		1: {ID: 1, Name: "Linen Shirt", Price: 42_000, InStock: true},
		2: {ID: 2, Name: "Wool Coat", Price: 180_000, InStock: true},
	}}
	r := &Resolver{Lookup: lookup}

	products, warnings, err := r.Resolve(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, products, 2)
	require.Equal(t, int64(42_000), products[1].Price)
}

func TestResolveMissingProductYieldsWarning(t *testing.T) {
	lookup := &stubLookup{products: map[int64]Product{
		1: {ID: 1, Price: 42_000},
	}}
	r := &Resolver{Lookup: lookup}

	products, warnings, err := r.Resolve(context.Background(), []int64{1, 99})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, []Warning{{ProductID: 99, Reason: "product not found"}}, warnings)
}

func TestResolveLookupFailureYieldsWarningsNotError(t *testing.T) {
	lookup := &stubLookup{failIDs: map[int64]bool{7: true}}
	r := &Resolver{Lookup: lookup, BatchSize: 1}

	products, warnings, err := r.Resolve(context.Background(), []int64{7})
	require.NoError(t, err)
	require.Empty(t, products)
	require.Equal(t, []Warning{{ProductID: 7, Reason: "lookup failed"}}, warnings)
}

func TestResolveDeduplicatesIDs(t *testing.T) {
	lookup := &stubLookup{products: map[int64]Product{
		1: {ID: 1, Price: 10_000},
	}}
	r := &Resolver{Lookup: lookup}

	products, warnings, err := r.Resolve(context.Background(), []int64{1, 1, 1})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, products, 1)
	require.Len(t, lookup.calls, 1)
	require.Equal(t, []int64{1}, lookup.calls[0])
}

func TestResolveBatchesConcurrently(t *testing.T) {
	lookup := &stubLookup{products: map[int64]Product{}}
	ids := make([]int64, 0, 120)
	for i := int64(1); i <= 120; i++ {
		lookup.products[i] = Product{ID: i, Price: i * 100}
		ids = append(ids, i)
	}
	r := &Resolver{Lookup: lookup, BatchSize: 50}

	products, warnings, err := r.Resolve(context.Background(), ids)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, products, 120)
	require.Len(t, lookup.calls, 3)
}

func TestResolveOneFailedBatchDoesNotPoisonOthers(t *testing.T) {
	lookup := &stubLookup{
		products: map[int64]Product{1: {ID: 1, Price: 5_000}},
		failIDs:  map[int64]bool{2: true},
	}
	r := &Resolver{Lookup: lookup, BatchSize: 1}

	products, warnings, err := r.Resolve(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Len(t, warnings, 1)
	require.Equal(t, int64(2), warnings[0].ProductID)
	require.Equal(t, "lookup failed", warnings[0].Reason)
}

func TestResolveEmptyInput(t *testing.T) {
	r := &Resolver{Lookup: &stubLookup{}}

	products, warnings, err := r.Resolve(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, products)
	require.Empty(t, warnings)
}
