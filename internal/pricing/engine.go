package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// Line describes a resolved cart line used for total calculation.
type Line struct {
	Qty       int
	UnitPrice Money
}

// Rules carries the configurable pricing policy knobs.
type Rules struct {
	FreeShippingThreshold Money
	FlatShippingFee       Money
}

// DefaultRules mirrors the store policy: free shipping from 50,000 KRW,
// otherwise a flat 3,000 KRW fee.
func DefaultRules() Rules {
	return Rules{FreeShippingThreshold: 50_000, FlatShippingFee: 3_000}
}

// Result aggregates the computed pricing components.
// Invariant: Total = Subtotal + ShippingFee - CouponDiscount - PointsDiscount,
// floored at zero.
type Result struct {
	Subtotal       Money `json:"subtotal"`
	ShippingFee    Money `json:"shippingFee"`
	CouponDiscount Money `json:"couponDiscount"`
	PointsDiscount Money `json:"pointsDiscount"`
	Total          Money `json:"totalAmount"`
}

// Subtotal sums unit price times quantity over all lines. Lines with a
// non-positive quantity contribute nothing.
func Subtotal(lines []Line) Money {
	var subtotal Money
	for _, ln := range lines {
		if ln.Qty <= 0 {
			continue
		}
		subtotal += Money(ln.Qty) * ln.UnitPrice
	}
	return subtotal
}

// ShippingFee returns the flat fee, waived once the subtotal reaches the
// free-shipping threshold.
func ShippingFee(subtotal Money, rules Rules) Money {
	if subtotal >= rules.FreeShippingThreshold {
		return 0
	}
	return rules.FlatShippingFee
}

// Quote composes subtotal, shipping and the already-resolved discounts into a
// final payable amount. Coupon and points discounts are clamped to the subtotal
// defensively even though the upstream resolver bounds them already; the total
// never goes negative.
func Quote(lines []Line, couponDiscount, pointsDiscount Money, rules Rules) Result {
	subtotal := Subtotal(lines)
	shipping := ShippingFee(subtotal, rules)
	if couponDiscount < 0 {
		couponDiscount = 0
	}
	if couponDiscount > subtotal {
		couponDiscount = subtotal
	}
	if pointsDiscount < 0 {
		pointsDiscount = 0
	}
	if pointsDiscount > subtotal {
		pointsDiscount = subtotal
	}
	total := subtotal + shipping - couponDiscount - pointsDiscount
	if total < 0 {
		total = 0
	}
	return Result{
		Subtotal:       subtotal,
		ShippingFee:    shipping,
		CouponDiscount: couponDiscount,
		PointsDiscount: pointsDiscount,
		Total:          total,
	}
}
