package cart

import (
	"errors"
	"fmt"
)

// ErrInvalidQuantity is returned when an add specifies a non-positive quantity.
// Adds are never clamped; rejecting them keeps upstream bugs visible.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// LineItem is one product variant selection in the cart. Identity for
// aggregation is the (ProductID, Color, Size) triple.
type LineItem struct {
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

func (li LineItem) sameVariant(productID int64, color, size string) bool {
	return li.ProductID == productID && li.Color == color && li.Size == size
}

// Cart is an ordered collection of line items. Order is insertion order and
// only matters for display; no two items share a variant triple.
type Cart struct {
	items []LineItem
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Restore rebuilds a cart from a persisted snapshot, re-normalising the shape
// so the invariants hold even if the stored payload was produced by an older
// client: duplicate triples merge by summing quantity and non-positive
// quantities are dropped.
func Restore(items []LineItem) *Cart {
	c := New()
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		_ = c.Add(item.ProductID, item.Quantity, item.Color, item.Size)
	}
	return c
}

// Add appends a line item or, when the variant triple already exists,
// increases its quantity by the given amount.
func (c *Cart) Add(productID int64, quantity int, color, size string) error {
	if quantity <= 0 {
		return fmt.Errorf("add %d of product %d: %w", quantity, productID, ErrInvalidQuantity)
	}
	for i := range c.items {
		if c.items[i].sameVariant(productID, color, size) {
			c.items[i].Quantity += quantity
			return nil
		}
	}
	c.items = append(c.items, LineItem{ProductID: productID, Quantity: quantity, Color: color, Size: size})
	return nil
}

// SetQuantity replaces the quantity of the matching line. A quantity of zero
// or less removes the line entirely; that equivalence is store policy, not a
// shortcut.
func (c *Cart) SetQuantity(productID int64, quantity int, color, size string) {
	if quantity <= 0 {
		c.Remove(productID, color, size)
		return
	}
	for i := range c.items {
		if c.items[i].sameVariant(productID, color, size) {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// Remove deletes the line matching the variant triple. Removing an absent
// line is a no-op.
func (c *Cart) Remove(productID int64, color, size string) {
	kept := c.items[:0]
	for _, item := range c.items {
		if !item.sameVariant(productID, color, size) {
			kept = append(kept, item)
		}
	}
	c.items = kept
}

// Clear empties the cart unconditionally.
func (c *Cart) Clear() {
	c.items = nil
}

// ItemCount returns the sum of quantities across all lines, not the number
// of distinct lines.
func (c *Cart) ItemCount() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.items)
}

// Lines returns a copy of the line items in insertion order.
func (c *Cart) Lines() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}
