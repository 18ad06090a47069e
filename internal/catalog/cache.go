package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func productKey(id int64) string {
	return fmt.Sprintf("catalog:product:%d", id)
}

// CachedLookup layers a per-product Redis cache over another Lookup.
// Cache failures are treated as misses so a degraded Redis never blocks
// pricing.
type CachedLookup struct {
	Next  Lookup
	Cache *Cache
}

// FindByIDs serves what it can from cache and fetches the rest from Next.
func (l *CachedLookup) FindByIDs(ctx context.Context, ids []int64) (map[int64]Product, error) {
	if l == nil || l.Next == nil {
		return nil, fmt.Errorf("catalog lookup not configured")
	}
	out := make(map[int64]Product, len(ids))
	var misses []int64
	for _, id := range ids {
		var p Product
		hit, err := l.Cache.GetJSON(ctx, productKey(id), &p)
		if err == nil && hit {
			out[id] = p
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}
	fetched, err := l.Next.FindByIDs(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, p := range fetched {
		out[id] = p
		_ = l.Cache.SetJSON(ctx, productKey(id), p)
	}
	return out, nil
}
