package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists cart snapshots in Redis keyed by owner. The engine only
// requires that whatever comes back satisfies the cart invariants, which
// Restore enforces on load.
type Store struct {
	Client *redis.Client
	TTL    time.Duration
}

func (s *Store) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func cartKey(ownerID string) string {
	return "cart:" + ownerID
}

// Load fetches the cart for the owner, returning an empty cart when none is
// stored.
func (s *Store) Load(ctx context.Context, ownerID string) (*Cart, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("cart store not configured")
	}
	if ownerID == "" {
		return nil, errors.New("owner id is required")
	}
	data, err := s.Client.Get(ctx, cartKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(), nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return Restore(items), nil
}

// Save writes the cart snapshot and refreshes its TTL. An empty cart is
// stored rather than deleted so a deliberate clear survives restarts the
// same way any other mutation does.
func (s *Store) Save(ctx context.Context, ownerID string, c *Cart) error {
	if s == nil || s.Client == nil {
		return errors.New("cart store not configured")
	}
	if ownerID == "" {
		return errors.New("owner id is required")
	}
	data, err := json.Marshal(c.Lines())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.Client.Set(ctx, cartKey(ownerID), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Delete drops the persisted cart entirely.
func (s *Store) Delete(ctx context.Context, ownerID string) error {
	if s == nil || s.Client == nil {
		return errors.New("cart store not configured")
	}
	return s.Client.Del(ctx, cartKey(ownerID)).Err()
}
