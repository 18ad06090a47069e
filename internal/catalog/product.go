package catalog

import "context"

// Product is the pricing-relevant slice of a catalog row.
type Product struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Price     int64   `json:"price"`
	CompareAt *int64  `json:"compareAt,omitempty"`
	Thumbnail *string `json:"thumbnail,omitempty"`
	InStock   bool    `json:"inStock"`
}

// Lookup fetches products by id in one round trip. Ids absent from the
// result were not found; implementations must not return a partial map
// alongside a non-nil error.
type Lookup interface {
	FindByIDs(ctx context.Context, ids []int64) (map[int64]Product, error)
}
