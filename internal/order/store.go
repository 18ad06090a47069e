package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lune-shop/backend-lune/internal/account"
	"github.com/lune-shop/backend-lune/internal/discount"
)

// PGStore persists orders. Creation, point redemption and coupon
// redemption happen in one transaction so a failed insert never burns
// points.
type PGStore struct {
	Pool *pgxpool.Pool
}

const insertOrderSQL = `
INSERT INTO orders (
	order_number, user_id, status,
	subtotal, shipping_fee, coupon_discount, points_discount, total_amount,
	payment_method, payment_key, depositor_name, coupon_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at
`

const insertOrderItemSQL = `
INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, color, size)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// Create inserts the order with its items, decrements the buyer's points
// and marks the coupon redeemed, all-or-nothing.
func (s *PGStore) Create(ctx context.Context, o Order, couponID string) (Order, error) {
	if s == nil || s.Pool == nil {
		return Order{}, fmt.Errorf("order store not configured")
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin order tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var coupon *string
	if couponID != "" {
		coupon = &couponID
	}
	err = tx.QueryRow(ctx, insertOrderSQL,
		o.Number, o.UserID, o.Status,
		o.Subtotal, o.ShippingFee, o.CouponDiscount, o.PointsDiscount, o.Total,
		o.PaymentMethod, o.PaymentKey, o.DepositorName, coupon,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	for _, item := range o.Items {
		if _, err := tx.Exec(ctx, insertOrderItemSQL,
			o.ID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.Color, item.Size,
		); err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}
	if err := account.DecrementPoints(ctx, tx, o.UserID, o.PointsDiscount); err != nil {
		return Order{}, err
	}
	if couponID != "" {
		if err := discount.MarkRedeemed(ctx, tx, o.UserID, couponID); err != nil {
			return Order{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit order tx: %w", err)
	}
	return o, nil
}

const selectOrderSQL = `
SELECT id, order_number, user_id, status,
	subtotal, shipping_fee, coupon_discount, points_discount, total_amount,
	payment_method, payment_key, COALESCE(depositor_name, ''), created_at
FROM orders
`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.Number, &o.UserID, &o.Status,
		&o.Subtotal, &o.ShippingFee, &o.CouponDiscount, &o.PointsDiscount, &o.Total,
		&o.PaymentMethod, &o.PaymentKey, &o.DepositorName, &o.CreatedAt,
	)
	return o, err
}

// ByNumber returns the user's order with its items.
func (s *PGStore) ByNumber(ctx context.Context, userID, number string) (Order, error) {
	if s == nil || s.Pool == nil {
		return Order{}, fmt.Errorf("order store not configured")
	}
	o, err := scanOrder(s.Pool.QueryRow(ctx,
		selectOrderSQL+` WHERE user_id = $1 AND order_number = $2`, userID, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("order %s: %w", number, ErrNotFound)
	}
	if err != nil {
		return Order{}, fmt.Errorf("query order: %w", err)
	}
	items, err := s.itemsFor(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

// ListByUser returns the user's orders, newest first, without items.
func (s *PGStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	if s == nil || s.Pool == nil {
		return nil, fmt.Errorf("order store not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.Pool.Query(ctx,
		selectOrderSQL+` WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// Cancel marks the order cancelled and restores redeemed points and
// coupon in the same transaction. Orders past preparation cannot be
// cancelled.
func (s *PGStore) Cancel(ctx context.Context, userID, number string) (Order, error) {
	if s == nil || s.Pool == nil {
		return Order{}, fmt.Errorf("order store not configured")
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var o Order
	var couponID *string
	err = tx.QueryRow(ctx,
		`SELECT id, order_number, user_id, status,
			subtotal, shipping_fee, coupon_discount, points_discount, total_amount,
			payment_method, payment_key, COALESCE(depositor_name, ''), created_at, coupon_id
		 FROM orders WHERE user_id = $1 AND order_number = $2 FOR UPDATE`,
		userID, number,
	).Scan(
		&o.ID, &o.Number, &o.UserID, &o.Status,
		&o.Subtotal, &o.ShippingFee, &o.CouponDiscount, &o.PointsDiscount, &o.Total,
		&o.PaymentMethod, &o.PaymentKey, &o.DepositorName, &o.CreatedAt, &couponID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("order %s: %w", number, ErrNotFound)
	}
	if err != nil {
		return Order{}, fmt.Errorf("query order for cancel: %w", err)
	}
	if !o.Cancellable() {
		return Order{}, fmt.Errorf("order %s in status %s: %w", number, o.Status, ErrNotCancellable)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
		o.ID, StatusCancelled,
	); err != nil {
		return Order{}, fmt.Errorf("update order status: %w", err)
	}
	if o.PointsDiscount > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE user_points SET points = points + $2, updated_at = now() WHERE user_id = $1`,
			o.UserID, o.PointsDiscount,
		); err != nil {
			return Order{}, fmt.Errorf("refund points: %w", err)
		}
	}
	if couponID != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE user_coupons SET redeemed_at = NULL WHERE user_id = $1 AND coupon_id = $2`,
			o.UserID, *couponID,
		); err != nil {
			return Order{}, fmt.Errorf("restore coupon: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit cancel tx: %w", err)
	}
	o.Status = StatusCancelled
	return o, nil
}

func (s *PGStore) itemsFor(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT product_id, name, unit_price, quantity, COALESCE(color, ''), COALESCE(size, '')
		 FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity, &it.Color, &it.Size); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}
