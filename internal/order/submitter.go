package order

import (
	"context"
	"fmt"
)

// Payment methods accepted at checkout.
const (
	MethodCard   = "card"
	MethodSimple = "simple"
	MethodBank   = "bank"
)

// Submission carries everything the payment provider needs to confirm
// a payment for one order.
type Submission struct {
	OrderID       string
	OrderName     string
	Amount        int64
	Method        string
	Provider      string
	PaymentKey    string
	CustomerName  string
	CustomerEmail string
}

// Confirmation is the provider's acknowledgement of a captured payment.
type Confirmation struct {
	PaymentKey string
	Method     string
	ApprovedAt string
}

// PaymentError is a rejection from the payment provider. It is surfaced
// to the caller verbatim and the submission is never retried.
type PaymentError struct {
	Code    string
	Message string
	Status  int
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment rejected: %s (%s)", e.Message, e.Code)
}

// Submitter confirms a payment with an external provider. Implementations
// must perform at most one attempt per call.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (Confirmation, error)
}
