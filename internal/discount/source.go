package discount

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCouponNotFound indicates the coupon is not held by the user or is no
// longer valid.
var ErrCouponNotFound = errors.New("coupon not found")

const couponColumns = `c.id, c.name, c.kind, c.percent_bps, c.amount, c.min_spend, c.max_discount`

// Source loads the coupons currently available to a user. Activation and
// expiry windows are enforced here so the pricing path only re-checks the
// minimum-spend gate.
type Source struct {
	Pool *pgxpool.Pool
}

// CouponsForUser returns the user's unredeemed, currently valid coupons.
func (s *Source) CouponsForUser(ctx context.Context, userID string) ([]Coupon, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("discount source not configured")
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT `+couponColumns+`
		FROM user_coupons uc
		JOIN coupons c ON c.id = uc.coupon_id
		WHERE uc.user_id = $1
		  AND uc.redeemed_at IS NULL
		  AND c.is_active
		  AND (c.valid_from IS NULL OR c.valid_from <= now())
		  AND (c.valid_until IS NULL OR c.valid_until >= now())
		ORDER BY c.min_spend ASC, c.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user coupons: %w", err)
	}
	defer rows.Close()

	var coupons []Coupon
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, coupon)
	}
	return coupons, rows.Err()
}

// CouponForUser resolves a single selected coupon for the user.
func (s *Source) CouponForUser(ctx context.Context, userID, couponID string) (*Coupon, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("discount source not configured")
	}
	row := s.Pool.QueryRow(ctx, `
		SELECT `+couponColumns+`
		FROM user_coupons uc
		JOIN coupons c ON c.id = uc.coupon_id
		WHERE uc.user_id = $1
		  AND c.id = $2
		  AND uc.redeemed_at IS NULL
		  AND c.is_active
		  AND (c.valid_from IS NULL OR c.valid_from <= now())
		  AND (c.valid_until IS NULL OR c.valid_until >= now())`, userID, couponID)
	coupon, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("load coupon: %w", err)
	}
	return &coupon, nil
}

// MarkRedeemed records coupon usage inside the caller's transaction.
func MarkRedeemed(ctx context.Context, tx pgx.Tx, userID, couponID string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE user_coupons SET redeemed_at = now()
		WHERE user_id = $1 AND coupon_id = $2 AND redeemed_at IS NULL`, userID, couponID)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func scanCoupon(row pgx.Row) (Coupon, error) {
	var coupon Coupon
	var kind string
	err := row.Scan(&coupon.ID, &coupon.Name, &kind, &coupon.PercentBps, &coupon.Amount, &coupon.MinSpend, &coupon.MaxDiscount)
	if err != nil {
		return Coupon{}, err
	}
	coupon.Kind = Kind(kind)
	return coupon, nil
}
