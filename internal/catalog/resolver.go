package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

const defaultBatchSize = 50

// Warning notes a product id that could not be priced.
type Warning struct {
	ProductID int64  `json:"productId"`
	Reason    string `json:"reason"`
}

// Resolver fetches products for a set of ids, batching lookups and
// running the batches concurrently. Ids that cannot be resolved are
// reported as warnings rather than failing the whole resolution.
type Resolver struct {
	Lookup    Lookup
	BatchSize int
}

// Resolve returns the products found for ids plus a warning per id that
// was missing or whose batch lookup failed. Duplicate ids are fetched
// once. Warnings are ordered by product id so responses are stable.
func (r *Resolver) Resolve(ctx context.Context, ids []int64) (map[int64]Product, []Warning, error) {
	if r == nil || r.Lookup == nil {
		return nil, nil, fmt.Errorf("catalog resolver not configured")
	}
	unique := dedupe(ids)
	if len(unique) == 0 {
		return map[int64]Product{}, nil, nil
	}

	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		products = make(map[int64]Product, len(unique))
		failed   = make(map[int64]string)
	)
	for start := 0; start < len(unique); start += batchSize {
		end := start + batchSize
		if end > len(unique) {
			end = len(unique)
		}
		batch := unique[start:end]
		wg.Add(1)
		go func() {
			defer wg.Done()
			found, err := r.Lookup.FindByIDs(ctx, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				for _, id := range batch {
					failed[id] = "lookup failed"
				}
				return
			}
			for id, p := range found {
				products[id] = p
			}
		}()
	}
	wg.Wait()

	var warnings []Warning
	for _, id := range unique {
		if _, ok := products[id]; ok {
			continue
		}
		reason := "product not found"
		if r, ok := failed[id]; ok {
			reason = r
		}
		warnings = append(warnings, Warning{ProductID: id, Reason: reason})
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].ProductID < warnings[j].ProductID })
	return products, warnings, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
