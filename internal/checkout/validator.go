package checkout

import (
	"fmt"
	"strings"

	"github.com/lune-shop/backend-lune/internal/account"
	"github.com/lune-shop/backend-lune/internal/order"
)

// ValidationError pinpoints the first field that blocks submission.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout validation failed: %s %s", e.Field, e.Reason)
}

// Validate runs the submission gate in page order and stops at the
// first failure: buyer, then address, then agreements, then payment
// method completeness. Marketing consent is optional and never checked.
// linked holds the simple-pay providers the buyer has connected.
func Validate(c Context, linked map[string]bool) *ValidationError {
	if strings.TrimSpace(c.BuyerName) == "" {
		return &ValidationError{Field: "buyerName", Reason: "required"}
	}
	if strings.TrimSpace(c.BuyerPhone) == "" {
		return &ValidationError{Field: "buyerPhone", Reason: "required"}
	}
	email := strings.TrimSpace(c.BuyerEmail)
	if email == "" {
		return &ValidationError{Field: "buyerEmail", Reason: "required"}
	}
	if !strings.Contains(email, "@") {
		return &ValidationError{Field: "buyerEmail", Reason: "invalid"}
	}

	if strings.TrimSpace(c.ZipCode) == "" {
		return &ValidationError{Field: "zipCode", Reason: "required"}
	}
	if strings.TrimSpace(c.Address) == "" {
		return &ValidationError{Field: "address", Reason: "required"}
	}

	if !c.AgreeTerms {
		return &ValidationError{Field: "agreeTerms", Reason: "required"}
	}
	if !c.AgreePrivacy {
		return &ValidationError{Field: "agreePrivacy", Reason: "required"}
	}

	switch c.Method {
	case order.MethodCard:
		if c.CardID <= 0 {
			return &ValidationError{Field: "cardId", Reason: "required"}
		}
	case order.MethodSimple:
		if c.WalletProvider == "" {
			return &ValidationError{Field: "walletProvider", Reason: "required"}
		}
		if !account.KnownProvider(c.WalletProvider) {
			return &ValidationError{Field: "walletProvider", Reason: "unsupported"}
		}
		if !linked[c.WalletProvider] {
			return &ValidationError{Field: "walletProvider", Reason: "not linked"}
		}
	case order.MethodBank:
		if strings.TrimSpace(c.BankCode) == "" {
			return &ValidationError{Field: "bankCode", Reason: "required"}
		}
		if strings.TrimSpace(c.DepositorName) == "" {
			return &ValidationError{Field: "depositorName", Reason: "required"}
		}
	default:
		return &ValidationError{Field: "paymentMethod", Reason: "unsupported"}
	}
	return nil
}
