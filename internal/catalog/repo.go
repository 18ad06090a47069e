package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo reads catalog rows from Postgres.
type Repo struct {
	Pool *pgxpool.Pool
}

const findByIDsSQL = `
SELECT id, name, price, compare_at, thumbnail, stock > 0
FROM products
WHERE id = ANY($1) AND is_active
`

// FindByIDs returns the active products among ids, keyed by id.
func (r *Repo) FindByIDs(ctx context.Context, ids []int64) (map[int64]Product, error) {
	if r == nil || r.Pool == nil {
		return nil, fmt.Errorf("catalog repo not configured")
	}
	if len(ids) == 0 {
		return map[int64]Product{}, nil
	}
	rows, err := r.Pool.Query(ctx, findByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]Product, len(ids))
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CompareAt, &p.Thumbnail, &p.InStock); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}
