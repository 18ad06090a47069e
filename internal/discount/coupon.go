package discount

// Kind discriminates how a coupon reduces the subtotal.
type Kind string

const (
	// KindPercent coupons take a fraction of the subtotal, expressed in basis points.
	KindPercent Kind = "percent"
	// KindFixed coupons take a fixed amount off the subtotal.
	KindFixed Kind = "fixed"
)

// Coupon is an immutable discount instrument. Exactly one of PercentBps or
// Amount is meaningful depending on Kind. Expiry and activation windows are
// filtered by the coupon management side before coupons reach this engine;
// only the MinSpend gate is re-checked here.
type Coupon struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       Kind   `json:"kind"`
	PercentBps int32  `json:"percentBps,omitempty"`
	Amount     int64  `json:"amount,omitempty"`
	MinSpend   int64  `json:"minAmount"`
	// MaxDiscount caps percent coupons when positive; zero means uncapped.
	MaxDiscount int64 `json:"maxDiscountAmount,omitempty"`
}

// Eligible reports whether the coupon may be applied to the given subtotal.
func (c Coupon) Eligible(subtotal int64) bool {
	return subtotal >= c.MinSpend
}

// DiscountFor computes the coupon's reduction of the given subtotal. The
// result is always in [0, subtotal]; an ineligible coupon yields 0.
func (c Coupon) DiscountFor(subtotal int64) int64 {
	if subtotal <= 0 || !c.Eligible(subtotal) {
		return 0
	}
	var discount int64
	switch c.Kind {
	case KindPercent:
		if c.PercentBps <= 0 {
			return 0
		}
		discount = (subtotal * int64(c.PercentBps)) / 10_000
		if c.MaxDiscount > 0 && discount > c.MaxDiscount {
			discount = c.MaxDiscount
		}
	case KindFixed:
		discount = c.Amount
	default:
		return 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
