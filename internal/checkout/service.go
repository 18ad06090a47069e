package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lune-shop/backend-lune/internal/account"
	"github.com/lune-shop/backend-lune/internal/cart"
	"github.com/lune-shop/backend-lune/internal/catalog"
	"github.com/lune-shop/backend-lune/internal/discount"
	"github.com/lune-shop/backend-lune/internal/events"
	"github.com/lune-shop/backend-lune/internal/obs"
	"github.com/lune-shop/backend-lune/internal/order"
	"github.com/lune-shop/backend-lune/internal/pricing"
)

var (
	// ErrEmptyCart is returned when a submission arrives with nothing to buy.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrUnavailableItems is returned when a submission includes lines the
	// catalog could not price. Quotes surface these as warnings instead.
	ErrUnavailableItems = errors.New("cart contains unavailable items")
)

type couponSource interface {
	CouponForUser(ctx context.Context, userID, couponID string) (*discount.Coupon, error)
}

type orderPlacer interface {
	Place(ctx context.Context, p order.PlaceParams) (order.Order, error)
}

// ResolvedLine is a cart line joined with its catalog price. Unresolved
// lines keep quantity but price at zero so they stay visible.
type ResolvedLine struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name,omitempty"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
	LineTotal int64  `json:"lineTotal"`
	Resolved  bool   `json:"resolved"`
}

// Quote is a full pricing preview for the current cart and selections.
type Quote struct {
	Items           []ResolvedLine    `json:"items"`
	Pricing         pricing.Result    `json:"pricing"`
	CouponEligible  bool              `json:"couponEligible"`
	MaxUsablePoints int64             `json:"maxUsablePoints"`
	Warnings        []catalog.Warning `json:"warnings,omitempty"`
}

// Service runs the checkout pipeline: cart, catalog resolution, discount
// resolution, pricing, validation and order submission.
type Service struct {
	Carts    *cart.Store
	Resolver *catalog.Resolver
	Coupons  couponSource
	Points   account.PointsReader
	Linked   account.LinkedProviders
	Cards    account.CardReader
	Discount discount.Resolver
	Orders   orderPlacer
	Bus      *events.Bus
	Rules    pricing.Rules
	Log      zerolog.Logger
}

// QuoteCart prices the user's stored cart with the given selections.
// Pricing is recomputed from current inputs on every call.
func (s *Service) QuoteCart(ctx context.Context, userID, couponID string, requestedPoints int64) (Quote, error) {
	if s == nil || s.Carts == nil {
		return Quote{}, fmt.Errorf("checkout service not configured")
	}
	c, err := s.Carts.Load(ctx, userID)
	if err != nil {
		return Quote{}, err
	}
	return s.quote(ctx, userID, c.Lines(), couponID, requestedPoints)
}

// Preview prices arbitrary cart lines with no coupon or points applied.
// It backs the cart page's embedded pricing block.
func (s *Service) Preview(ctx context.Context, items []cart.LineItem) (any, error) {
	q, err := s.quote(ctx, "", items, "", 0)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) quote(ctx context.Context, userID string, items []cart.LineItem, couponID string, requestedPoints int64) (Quote, error) {
	resolved, lines, warnings, err := s.resolveLines(ctx, items)
	if err != nil {
		return Quote{}, err
	}
	subtotal := pricing.Subtotal(lines)

	var coupon *discount.Coupon
	if couponID != "" {
		if s.Coupons == nil {
			return Quote{}, fmt.Errorf("checkout service: coupon source not configured")
		}
		coupon, err = s.Coupons.CouponForUser(ctx, userID, couponID)
		if err != nil {
			return Quote{}, err
		}
	}

	var balance int64
	if userID != "" && s.Points != nil {
		balance, err = s.Points.Balance(ctx, userID)
		if err != nil {
			return Quote{}, err
		}
	}

	resolution := s.Discount.Resolve(subtotal, coupon, balance, requestedPoints)
	result := pricing.Quote(lines, resolution.CouponDiscount, resolution.PointsDiscount, s.Rules)
	if obs.PricingQuotesTotal != nil {
		obs.PricingQuotesTotal.Inc()
	}
	return Quote{
		Items:           resolved,
		Pricing:         result,
		CouponEligible:  resolution.Eligible,
		MaxUsablePoints: resolution.MaxUsablePoints,
		Warnings:        warnings,
	}, nil
}

// Submit runs the whole pipeline and places the order. The cart is
// cleared only after the order is persisted; any failure leaves cart
// and points untouched.
func (s *Service) Submit(ctx context.Context, userID string, c Context, paymentKey string) (order.Order, error) {
	if s == nil || s.Carts == nil || s.Orders == nil {
		return order.Order{}, fmt.Errorf("checkout service not configured")
	}
	stored, err := s.Carts.Load(ctx, userID)
	if err != nil {
		return order.Order{}, err
	}
	items := stored.Lines()
	if len(items) == 0 {
		return order.Order{}, ErrEmptyCart
	}

	resolved, lines, warnings, err := s.resolveLines(ctx, items)
	if err != nil {
		return order.Order{}, err
	}
	if len(warnings) > 0 {
		return order.Order{}, fmt.Errorf("%d unpriceable lines: %w", len(warnings), ErrUnavailableItems)
	}
	subtotal := pricing.Subtotal(lines)

	var coupon *discount.Coupon
	if c.CouponID != "" {
		if s.Coupons == nil {
			return order.Order{}, fmt.Errorf("checkout service: coupon source not configured")
		}
		coupon, err = s.Coupons.CouponForUser(ctx, userID, c.CouponID)
		if err != nil {
			return order.Order{}, err
		}
	}

	var balance int64
	if s.Points != nil {
		balance, err = s.Points.Balance(ctx, userID)
		if err != nil {
			return order.Order{}, err
		}
	}

	resolution := s.Discount.Resolve(subtotal, coupon, balance, c.RequestedPoints)
	result := pricing.Quote(lines, resolution.CouponDiscount, resolution.PointsDiscount, s.Rules)

	if verr := s.validate(ctx, userID, c); verr != nil {
		s.rejected(ctx, userID, verr)
		return order.Order{}, verr
	}

	couponID := ""
	if coupon != nil && resolution.CouponDiscount > 0 {
		couponID = coupon.ID
	}
	placed, err := s.Orders.Place(ctx, order.PlaceParams{
		UserID:         userID,
		Items:          orderItems(resolved),
		Subtotal:       result.Subtotal,
		ShippingFee:    result.ShippingFee,
		CouponDiscount: result.CouponDiscount,
		PointsDiscount: result.PointsDiscount,
		Total:          result.Total,
		CouponID:       couponID,
		Method:         c.Method,
		Provider:       c.WalletProvider,
		PaymentKey:     paymentKey,
		DepositorName:  c.DepositorName,
		CustomerName:   c.BuyerName,
		CustomerEmail:  c.BuyerEmail,
	})
	if err != nil {
		s.countSubmission("payment_failed", err)
		return order.Order{}, err
	}

	if err := s.Carts.Delete(ctx, userID); err != nil {
		// The order is placed; a stale cart is recoverable.
		s.Log.Warn().Err(err).Str("user", userID).Msg("clear cart after order failed")
	}
	s.countSubmission("placed", nil)
	return placed, nil
}

func (s *Service) validate(ctx context.Context, userID string, c Context) *ValidationError {
	var linked map[string]bool
	if c.Method == order.MethodSimple && s.Linked != nil {
		var err error
		linked, err = s.Linked.Linked(ctx, userID)
		if err != nil {
			s.Log.Warn().Err(err).Str("user", userID).Msg("linked provider lookup failed")
			linked = nil
		}
	}
	if verr := Validate(c, linked); verr != nil {
		return verr
	}
	if c.Method == order.MethodCard && s.Cards != nil {
		if _, err := s.Cards.Card(ctx, userID, c.CardID); err != nil {
			if errors.Is(err, account.ErrCardNotFound) {
				return &ValidationError{Field: "cardId", Reason: "not found"}
			}
			s.Log.Warn().Err(err).Str("user", userID).Msg("saved card lookup failed")
			return &ValidationError{Field: "cardId", Reason: "unavailable"}
		}
	}
	return nil
}

func (s *Service) resolveLines(ctx context.Context, items []cart.LineItem) ([]ResolvedLine, []pricing.Line, []catalog.Warning, error) {
	if s.Resolver == nil {
		return nil, nil, nil, fmt.Errorf("checkout service: catalog resolver not configured")
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, warnings, err := s.Resolver.Resolve(ctx, ids)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(warnings) > 0 && obs.CatalogLookupFailuresTotal != nil {
		obs.CatalogLookupFailuresTotal.Add(float64(len(warnings)))
	}

	resolved := make([]ResolvedLine, 0, len(items))
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		line := ResolvedLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Color:     item.Color,
			Size:      item.Size,
		}
		if p, ok := products[item.ProductID]; ok {
			line.Name = p.Name
			line.UnitPrice = p.Price
			line.Resolved = true
		}
		line.LineTotal = line.UnitPrice * int64(line.Quantity)
		resolved = append(resolved, line)
		lines = append(lines, pricing.Line{Qty: line.Quantity, UnitPrice: line.UnitPrice})
	}
	return resolved, lines, warnings, nil
}

func (s *Service) rejected(ctx context.Context, userID string, verr *ValidationError) {
	s.countSubmission("rejected", verr)
	if s.Bus == nil {
		return
	}
	if _, err := s.Bus.Emit(ctx, events.TopicCheckoutRejected, userID, verr); err != nil {
		s.Log.Warn().Err(err).Msg("emit checkout rejection failed")
	}
}

func (s *Service) countSubmission(result string, err error) {
	if obs.CheckoutSubmissionsTotal == nil {
		return
	}
	if err != nil && result == "payment_failed" {
		var payErr *order.PaymentError
		if !errors.As(err, &payErr) {
			result = "error"
		}
	}
	obs.CheckoutSubmissionsTotal.WithLabelValues(result).Inc()
}

func orderItems(resolved []ResolvedLine) []order.Item {
	items := make([]order.Item, 0, len(resolved))
	for _, line := range resolved {
		items = append(items, order.Item{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Color:     line.Color,
			Size:      line.Size,
		})
	}
	return items
}
