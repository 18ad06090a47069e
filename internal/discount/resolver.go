package discount

// DefaultPointsCapBps caps points usage at 50% of the product subtotal,
// independent of any coupon discount and of shipping.
const DefaultPointsCapBps = 5_000

// Resolution is the outcome of applying a coupon selection and a points
// request against a subtotal. All amounts are non-negative.
type Resolution struct {
	Eligible        bool  `json:"eligible"`
	CouponDiscount  int64 `json:"couponDiscount"`
	MaxUsablePoints int64 `json:"maxUsablePoints"`
	PointsDiscount  int64 `json:"pointsDiscount"`
}

// Resolver computes discount amounts with a fixed precedence: the coupon is
// evaluated on the undiscounted subtotal, and the points cap is derived from
// the subtotal alone, not from the post-coupon remainder.
type Resolver struct {
	PointsCapBps int32
}

func (r Resolver) capBps() int64 {
	if r.PointsCapBps <= 0 {
		return DefaultPointsCapBps
	}
	return int64(r.PointsCapBps)
}

// Resolve evaluates the optional coupon and the requested points amount.
// Over-requested points clamp down to the cap rather than erroring; a
// negative request clamps to zero. Both clamps are intentional policy, not
// input repair.
func (r Resolver) Resolve(subtotal int64, coupon *Coupon, pointsBalance, requestedPoints int64) Resolution {
	if subtotal < 0 {
		subtotal = 0
	}
	if pointsBalance < 0 {
		pointsBalance = 0
	}

	res := Resolution{Eligible: coupon == nil}
	if coupon != nil {
		res.Eligible = coupon.Eligible(subtotal)
		res.CouponDiscount = coupon.DiscountFor(subtotal)
	}

	res.MaxUsablePoints = (subtotal * r.capBps()) / 10_000
	if pointsBalance < res.MaxUsablePoints {
		res.MaxUsablePoints = pointsBalance
	}

	if requestedPoints < 0 {
		requestedPoints = 0
	}
	res.PointsDiscount = requestedPoints
	if res.PointsDiscount > res.MaxUsablePoints {
		res.PointsDiscount = res.MaxUsablePoints
	}
	return res
}
