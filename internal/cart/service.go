package cart

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Service encapsulates cart mutations. The cart is owned by a single session,
// so every operation is a plain load-mutate-save round trip; there is no
// concurrent-writer scenario to arbitrate.
type Service struct {
	Store *Store
}

// Get loads the owner's cart.
func (s *Service) Get(ctx context.Context, ownerID string) (*Cart, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	return s.Store.Load(ctx, ownerID)
}

// AddItem adds quantity of a product variant, merging with an existing line
// for the same (product, color, size) triple.
func (s *Service) AddItem(ctx context.Context, ownerID string, productID int64, quantity int, color, size string) (*Cart, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	if productID <= 0 {
		return nil, fmt.Errorf("product id is required: %w", ErrInvalidInput)
	}
	c, err := s.Store.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := c.Add(productID, quantity, color, size); err != nil {
		return nil, err
	}
	if err := s.Store.Save(ctx, ownerID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateQuantity replaces the quantity for a variant; zero or less removes
// the line.
func (s *Service) UpdateQuantity(ctx context.Context, ownerID string, productID int64, quantity int, color, size string) (*Cart, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	c, err := s.Store.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c.SetQuantity(productID, quantity, color, size)
	if err := s.Store.Save(ctx, ownerID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveItem deletes a variant line; removing an absent line succeeds.
func (s *Service) RemoveItem(ctx context.Context, ownerID string, productID int64, color, size string) (*Cart, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	c, err := s.Store.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c.Remove(productID, color, size)
	if err := s.Store.Save(ctx, ownerID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear empties the owner's cart.
func (s *Service) Clear(ctx context.Context, ownerID string) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	c, err := s.Store.Load(ctx, ownerID)
	if err != nil {
		return err
	}
	c.Clear()
	return s.Store.Save(ctx, ownerID, c)
}

// Merge folds a guest cart into the user's cart after login, summing
// quantities for shared variant triples, then drops the guest copy.
func (s *Service) Merge(ctx context.Context, guestID, userID string) (*Cart, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	if guestID == "" || userID == "" {
		return nil, fmt.Errorf("guest and user ids are required: %w", ErrInvalidInput)
	}
	guest, err := s.Store.Load(ctx, guestID)
	if err != nil {
		return nil, err
	}
	target, err := s.Store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, item := range guest.Lines() {
		_ = target.Add(item.ProductID, item.Quantity, item.Color, item.Size)
	}
	if err := s.Store.Save(ctx, userID, target); err != nil {
		return nil, err
	}
	_ = s.Store.Delete(ctx, guestID)
	return target, nil
}
