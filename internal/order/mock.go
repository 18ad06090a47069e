package order

import (
	"context"
	"strings"
	"time"
)

// MockGateway approves every submission. Used in development and tests;
// order ids containing "decline" are rejected so failure paths stay
// exercisable end to end.
type MockGateway struct{}

func (MockGateway) Submit(_ context.Context, sub Submission) (Confirmation, error) {
	if strings.Contains(strings.ToLower(sub.OrderID), "decline") {
		return Confirmation{}, &PaymentError{
			Code:    "REJECT_CARD_COMPANY",
			Message: "declined by issuer",
			Status:  400,
		}
	}
	method := sub.Method
	if method == "" {
		method = MethodCard
	}
	return Confirmation{
		PaymentKey: "mock-" + sub.OrderID,
		Method:     method,
		ApprovedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}
