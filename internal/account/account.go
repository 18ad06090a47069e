package account

import (
	"context"
	"errors"
)

// Simple-pay providers the storefront can link.
const (
	ProviderKakaoPay   = "kakaopay"
	ProviderNaverPay   = "naverpay"
	ProviderTossPay    = "tosspay"
	ProviderPayco      = "payco"
	ProviderSamsungPay = "samsungpay"
	ProviderApplePay   = "applepay"
)

var knownProviders = map[string]bool{
	ProviderKakaoPay:   true,
	ProviderNaverPay:   true,
	ProviderTossPay:    true,
	ProviderPayco:      true,
	ProviderSamsungPay: true,
	ProviderApplePay:   true,
}

// KnownProvider reports whether name is a supported simple-pay provider.
func KnownProvider(name string) bool {
	return knownProviders[name]
}

// ErrCardNotFound is returned when a saved card id does not belong to the user.
var ErrCardNotFound = errors.New("saved card not found")

// Card is a tokenised saved payment card.
type Card struct {
	ID        int64  `json:"id"`
	Brand     string `json:"brand"`
	Last4     string `json:"last4"`
	IsDefault bool   `json:"isDefault"`
}

// PointsReader exposes the user's spendable points balance.
type PointsReader interface {
	Balance(ctx context.Context, userID string) (int64, error)
}

// LinkedProviders reports which simple-pay providers the user has linked.
type LinkedProviders interface {
	Linked(ctx context.Context, userID string) (map[string]bool, error)
}

// CardReader fetches a saved card owned by the user.
type CardReader interface {
	Card(ctx context.Context, userID string, cardID int64) (Card, error)
}
