package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order lifecycle states.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusPreparing = "preparing"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

var (
	// ErrNotFound is returned when an order does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("order not found")
	// ErrNotCancellable is returned when the order has progressed past the
	// point where the buyer may cancel it.
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)

// Item is one purchased line, denormalised at the price it was sold at.
type Item struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
}

// Order is a placed order with its captured pricing breakdown.
type Order struct {
	ID             int64     `json:"id"`
	Number         string    `json:"orderNumber"`
	UserID         string    `json:"-"`
	Status         string    `json:"status"`
	Subtotal       int64     `json:"subtotal"`
	ShippingFee    int64     `json:"shippingFee"`
	CouponDiscount int64     `json:"couponDiscount"`
	PointsDiscount int64     `json:"pointsDiscount"`
	Total          int64     `json:"totalAmount"`
	PaymentMethod  string    `json:"paymentMethod"`
	PaymentKey     string    `json:"-"`
	DepositorName  string    `json:"depositorName,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	Items          []Item    `json:"items,omitempty"`
}

// Cancellable reports whether the buyer may still cancel. Once the shop
// starts preparing the shipment the window is closed.
func (o Order) Cancellable() bool {
	return o.Status == StatusPending || o.Status == StatusPaid
}

// NewNumber builds a customer-facing order number: the order date
// followed by eight uppercase hex characters.
func NewNumber(now time.Time) string {
	u := uuid.New()
	suffix := strings.ToUpper(u.String()[:8])
	return fmt.Sprintf("%s-%s", now.Format("20060102"), suffix)
}

// Name summarises the order's items for payment screens, e.g.
// "Linen Shirt and 2 more".
func Name(items []Item) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) == 1 {
		return items[0].Name
	}
	return fmt.Sprintf("%s and %d more", items[0].Name, len(items)-1)
}
