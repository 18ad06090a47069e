package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lune-shop/backend-lune/internal/account"
	"github.com/lune-shop/backend-lune/internal/cart"
	"github.com/lune-shop/backend-lune/internal/catalog"
	"github.com/lune-shop/backend-lune/internal/discount"
	"github.com/lune-shop/backend-lune/internal/order"
	"github.com/lune-shop/backend-lune/internal/pricing"
)

type fixtureLookup map[int64]catalog.Product

func (f fixtureLookup) FindByIDs(_ context.Context, ids []int64) (map[int64]catalog.Product, error) {
	out := map[int64]catalog.Product{}
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type stubCoupons struct {
	coupons map[string]discount.Coupon
}

func (s *stubCoupons) CouponForUser(_ context.Context, _, couponID string) (*discount.Coupon, error) {
	if c, ok := s.coupons[couponID]; ok {
		return &c, nil
	}
	return nil, discount.ErrCouponNotFound
}

type stubPoints struct {
	balance int64
}

func (s *stubPoints) Balance(context.Context, string) (int64, error) {
	return s.balance, nil
}

type stubLinked map[string]bool

func (s stubLinked) Linked(context.Context, string) (map[string]bool, error) {
	return s, nil
}

type stubCards map[int64]account.Card

func (s stubCards) Card(_ context.Context, _ string, cardID int64) (account.Card, error) {
	if c, ok := s[cardID]; ok {
		return c, nil
	}
	return account.Card{}, account.ErrCardNotFound
}

type stubPlacer struct {
	params []order.PlaceParams
	err    error
}

func (s *stubPlacer) Place(_ context.Context, p order.PlaceParams) (order.Order, error) {
	s.params = append(s.params, p)
	if s.err != nil {
		return order.Order{}, s.err
	}
	return order.Order{
		ID:     int64(len(s.params)),
		Number: "20260901-AAAA1111",
		UserID: p.UserID,
		Status: order.StatusPaid,
		Total:  p.Total,
	}, nil
}

type checkoutFixture struct {
	svc    *Service
	carts  *cart.Store
	placer *stubPlacer
	mr     *miniredis.Miniredis
}

func newFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	carts := &cart.Store{Client: client, TTL: time.Hour}
	placer := &stubPlacer{}
	svc := &Service{
		Carts: carts,
		Resolver: &catalog.Resolver{Lookup: fixtureLookup{
			1: {ID: 1, Name: "Linen Shirt", Price: 40_000, InStock: true},
			2: {ID: 2, Name: "Silk Scarf", Price: 20_000, InStock: true},
		}},
		Coupons: &stubCoupons{coupons: map[string]discount.Coupon{
			"welcome10": {ID: "welcome10", Name: "WELCOME10", Kind: discount.KindPercent, PercentBps: 1000, MinSpend: 50_000},
		}},
		Points:   &stubPoints{balance: 100_000},
		Linked:   stubLinked{"kakaopay": true},
		Cards:    stubCards{3: {ID: 3, Brand: "hyundai", Last4: "4242"}},
		Discount: discount.Resolver{},
		Orders:   placer,
		Rules:    pricing.DefaultRules(),
	}
	return &checkoutFixture{svc: svc, carts: carts, placer: placer, mr: mr}
}

func (f *checkoutFixture) seedCart(t *testing.T, userID string) {
	t.Helper()
	c := cart.New()
	require.NoError(t, c.Add(1, 2, "Black", "M")) // 80,000
	require.NoError(t, c.Add(2, 1, "", ""))       // 20,000
	require.NoError(t, f.carts.Save(context.Background(), userID, c))
}

func TestSubmitPlacesOrderAndClearsCart(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "user-1")

	c := validCardContext()
	c.CardID = 3
	c.CouponID = "welcome10"
	c.RequestedPoints = 10_000

	placed, err := f.svc.Submit(context.Background(), "user-1", c, "widget-key")
	require.NoError(t, err)
	require.Equal(t, int64(80_000), placed.Total)

	require.Len(t, f.placer.params, 1)
	p := f.placer.params[0]
	require.Equal(t, int64(100_000), p.Subtotal)
	require.Equal(t, int64(0), p.ShippingFee, "free shipping at or above 50,000")
	require.Equal(t, int64(10_000), p.CouponDiscount)
	require.Equal(t, int64(10_000), p.PointsDiscount)
	require.Equal(t, int64(80_000), p.Total)
	require.Equal(t, "welcome10", p.CouponID)
	require.Equal(t, "widget-key", p.PaymentKey)
	require.Len(t, p.Items, 2)

	stored, err := f.carts.Load(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, 0, stored.Len(), "cart cleared after successful submission")
}

func TestSubmitValidationFailureLeavesCartUntouched(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "user-1")

	c := validCardContext()
	c.CardID = 3
	c.AgreeTerms = false

	_, err := f.svc.Submit(context.Background(), "user-1", c, "widget-key")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "agreeTerms", verr.Field)
	require.Empty(t, f.placer.params, "order must not be submitted")

	stored, err := f.carts.Load(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, 3, stored.ItemCount(), "cart intact after rejection")
}

func TestSubmitAddressGateRunsBeforeCardGate(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "user-1")

	c := validCardContext()
	c.CardID = 0
	c.Address = ""

	_, err := f.svc.Submit(context.Background(), "user-1", c, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "address", verr.Field)
}

func TestSubmitUnknownSavedCardRejected(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "user-1")

	c := validCardContext()
	c.CardID = 99

	_, err := f.svc.Submit(context.Background(), "user-1", c, "widget-key")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "cardId", verr.Field)
	require.Equal(t, "not found", verr.Reason)
}

func TestSubmitUnlinkedWalletRejected(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "user-1")

	c := validCardContext()
	c.Method = "simple"
	c.CardID = 0
	c.WalletProvider = "naverpay"

	_, err := f.svc.Submit(context.Background(), "user-1", c, "widget-key")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "walletProvider", verr.Field)
	require.Equal(t, "not linked", verr.Reason)
}

func TestSubmitPaymentFailureLeavesCartUntouched(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "user-1")
	f.placer.err = &order.PaymentError{Code: "REJECT_CARD_COMPANY", Message: "declined", Status: 400}

	c := validCardContext()
	c.CardID = 3

	_, err := f.svc.Submit(context.Background(), "user-1", c, "widget-key")
	var payErr *order.PaymentError
	require.ErrorAs(t, err, &payErr)
	require.Equal(t, "REJECT_CARD_COMPANY", payErr.Code)
	require.Len(t, f.placer.params, 1, "exactly one submission attempt")

	stored, err := f.carts.Load(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, 3, stored.ItemCount())
}

func TestSubmitEmptyCart(t *testing.T) {
	f := newFixture(t)

	c := validCardContext()
	c.CardID = 3

	_, err := f.svc.Submit(context.Background(), "user-1", c, "widget-key")
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestSubmitRefusesUnpriceableLines(t *testing.T) {
	f := newFixture(t)
	c := cart.New()
	require.NoError(t, c.Add(404, 1, "", ""))
	require.NoError(t, f.carts.Save(context.Background(), "user-1", c))

	ctx := validCardContext()
	ctx.CardID = 3

	_, err := f.svc.Submit(context.Background(), "user-1", ctx, "widget-key")
	require.ErrorIs(t, err, ErrUnavailableItems)
}

func TestSubmitIneligibleCouponAppliesNothing(t *testing.T) {
	f := newFixture(t)
	c := cart.New()
	require.NoError(t, c.Add(2, 1, "", "")) // 20,000 < MinSpend 50,000
	require.NoError(t, f.carts.Save(context.Background(), "user-1", c))

	ctx := validCardContext()
	ctx.CardID = 3
	ctx.CouponID = "welcome10"

	_, err := f.svc.Submit(context.Background(), "user-1", ctx, "widget-key")
	require.NoError(t, err)
	p := f.placer.params[0]
	require.Equal(t, int64(0), p.CouponDiscount)
	require.Equal(t, "", p.CouponID, "ineligible coupon is not redeemed")
	require.Equal(t, int64(3_000), p.ShippingFee)
	require.Equal(t, int64(23_000), p.Total)
}

func TestQuoteCartSurfacesWarnings(t *testing.T) {
	f := newFixture(t)
	c := cart.New()
	require.NoError(t, c.Add(1, 1, "", ""))
	require.NoError(t, c.Add(404, 2, "", ""))
	require.NoError(t, f.carts.Save(context.Background(), "user-1", c))

	q, err := f.svc.QuoteCart(context.Background(), "user-1", "", 0)
	require.NoError(t, err)
	require.Len(t, q.Items, 2)
	require.Len(t, q.Warnings, 1)
	require.Equal(t, int64(404), q.Warnings[0].ProductID)
	require.Equal(t, int64(40_000), q.Pricing.Subtotal, "unresolved line contributes zero")

	for _, item := range q.Items {
		if item.ProductID == 404 {
			require.False(t, item.Resolved)
			require.Equal(t, int64(0), item.UnitPrice)
			require.Equal(t, 2, item.Quantity, "unresolved lines stay visible")
		}
	}
}

func TestQuoteCartCapsPointsAtHalfSubtotal(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "user-1") // subtotal 100,000

	q, err := f.svc.QuoteCart(context.Background(), "user-1", "", 999_999)
	require.NoError(t, err)
	require.Equal(t, int64(50_000), q.MaxUsablePoints)
	require.Equal(t, int64(50_000), q.Pricing.PointsDiscount)
	require.Equal(t, int64(50_000), q.Pricing.Total)
}

func TestPreviewPricesAnonymousLines(t *testing.T) {
	f := newFixture(t)

	preview, err := f.svc.Preview(context.Background(), []cart.LineItem{
		{ProductID: 2, Quantity: 1},
	})
	require.NoError(t, err)
	q, ok := preview.(Quote)
	require.True(t, ok)
	require.Equal(t, int64(20_000), q.Pricing.Subtotal)
	require.Equal(t, int64(3_000), q.Pricing.ShippingFee)
	require.Equal(t, int64(23_000), q.Pricing.Total)
	require.Equal(t, int64(0), q.Pricing.PointsDiscount)
}

func TestQuoteUnknownCoupon(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "user-1")

	_, err := f.svc.QuoteCart(context.Background(), "user-1", "ghost", 0)
	require.ErrorIs(t, err, discount.ErrCouponNotFound)
}

func TestSubmitStoreErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "user-1")
	f.placer.err = errors.New("pool exhausted")

	c := validCardContext()
	c.CardID = 3

	_, err := f.svc.Submit(context.Background(), "user-1", c, "widget-key")
	require.Error(t, err)

	stored, loadErr := f.carts.Load(context.Background(), "user-1")
	require.NoError(t, loadErr)
	require.Equal(t, 3, stored.ItemCount())
}
