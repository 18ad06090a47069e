package order

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lune-shop/backend-lune/internal/events"
	"github.com/lune-shop/backend-lune/internal/obs"
)

type orderStore interface {
	Create(ctx context.Context, o Order, couponID string) (Order, error)
	ByNumber(ctx context.Context, userID, number string) (Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	Cancel(ctx context.Context, userID, number string) (Order, error)
}

// PlaceParams captures a validated, priced checkout ready for submission.
type PlaceParams struct {
	UserID         string
	Items          []Item
	Subtotal       int64
	ShippingFee    int64
	CouponDiscount int64
	PointsDiscount int64
	Total          int64
	CouponID       string
	Method         string
	Provider       string
	PaymentKey     string
	DepositorName  string
	CustomerName   string
	CustomerEmail  string
}

// Service places and manages orders. Payment is confirmed before the
// order row is written; the write also redeems points and coupon so a
// storage failure never burns either.
type Service struct {
	Store   orderStore
	Gateway Submitter
	Bus     *events.Bus
	Log     zerolog.Logger
	Now     func() time.Time
}

// Place confirms payment (except bank transfers, which stay pending
// until the deposit arrives) and persists the order. A provider
// rejection is returned untouched and the submission is never repeated.
func (s *Service) Place(ctx context.Context, p PlaceParams) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, fmt.Errorf("order service not configured")
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	o := Order{
		Number:         NewNumber(now()),
		UserID:         p.UserID,
		Status:         StatusPending,
		Subtotal:       p.Subtotal,
		ShippingFee:    p.ShippingFee,
		CouponDiscount: p.CouponDiscount,
		PointsDiscount: p.PointsDiscount,
		Total:          p.Total,
		PaymentMethod:  p.Method,
		DepositorName:  p.DepositorName,
		Items:          p.Items,
	}

	if p.Method != MethodBank {
		if s.Gateway == nil {
			return Order{}, fmt.Errorf("order service: payment gateway not configured")
		}
		confirmation, err := s.Gateway.Submit(ctx, Submission{
			OrderID:       o.Number,
			OrderName:     Name(p.Items),
			Amount:        p.Total,
			Method:        p.Method,
			Provider:      p.Provider,
			PaymentKey:    p.PaymentKey,
			CustomerName:  p.CustomerName,
			CustomerEmail: p.CustomerEmail,
		})
		if err != nil {
			countConfirm(p.Provider, p.Method, "rejected")
			return Order{}, err
		}
		countConfirm(p.Provider, p.Method, "approved")
		o.Status = StatusPaid
		o.PaymentKey = confirmation.PaymentKey
	}

	placed, err := s.Store.Create(ctx, o, p.CouponID)
	if err != nil {
		return Order{}, err
	}
	s.emit(ctx, events.TopicOrderCreated, placed)
	return placed, nil
}

// Get returns one of the user's orders with its items.
func (s *Service) Get(ctx context.Context, userID, number string) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, fmt.Errorf("order service not configured")
	}
	return s.Store.ByNumber(ctx, userID, number)
}

// List returns the user's order history, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	if s == nil || s.Store == nil {
		return nil, fmt.Errorf("order service not configured")
	}
	return s.Store.ListByUser(ctx, userID, limit, offset)
}

// Cancel cancels a pending or paid order, restoring points and coupon.
func (s *Service) Cancel(ctx context.Context, userID, number string) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, fmt.Errorf("order service not configured")
	}
	cancelled, err := s.Store.Cancel(ctx, userID, number)
	if err != nil {
		return Order{}, err
	}
	if obs.OrderCancellationsTotal != nil {
		obs.OrderCancellationsTotal.Inc()
	}
	s.emit(ctx, events.TopicOrderCancelled, cancelled)
	return cancelled, nil
}

func countConfirm(provider, method, result string) {
	if obs.PaymentConfirmTotal == nil {
		return
	}
	label := provider
	if label == "" {
		label = method
	}
	obs.PaymentConfirmTotal.WithLabelValues(label, result).Inc()
}

func (s *Service) emit(ctx context.Context, topic string, o Order) {
	if s.Bus == nil {
		return
	}
	payload := map[string]any{
		"orderNumber": o.Number,
		"status":      o.Status,
		"totalAmount": o.Total,
	}
	if _, err := s.Bus.Emit(ctx, topic, o.Number, payload); err != nil {
		s.Log.Warn().Err(err).Str("topic", topic).Str("order", o.Number).Msg("event emit failed")
	}
}
