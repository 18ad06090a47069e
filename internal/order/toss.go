package order

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lune-shop/backend-lune/internal/resilience"
)

const defaultTossBaseURL = "https://api.tosspayments.com"

// TossGateway confirms payments against the Toss Payments confirm API.
// The resilient client is configured with a single attempt: a payment
// confirmation must never be replayed automatically.
type TossGateway struct {
	Client    resilience.HTTPClient
	BaseURL   string
	SecretKey string
}

type tossConfirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

type tossConfirmResponse struct {
	PaymentKey string `json:"paymentKey"`
	Method     string `json:"method"`
	ApprovedAt string `json:"approvedAt"`
}

type tossErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Submit confirms the payment once. Provider rejections come back as
// *PaymentError; transport failures as plain errors.
func (g *TossGateway) Submit(ctx context.Context, sub Submission) (Confirmation, error) {
	if g == nil || g.SecretKey == "" {
		return Confirmation{}, fmt.Errorf("toss gateway not configured")
	}
	if sub.PaymentKey == "" {
		return Confirmation{}, fmt.Errorf("toss gateway: payment key is required")
	}
	body, err := json.Marshal(tossConfirmRequest{
		PaymentKey: sub.PaymentKey,
		OrderID:    sub.OrderID,
		Amount:     sub.Amount,
	})
	if err != nil {
		return Confirmation{}, fmt.Errorf("toss gateway: encode request: %w", err)
	}

	baseURL := strings.TrimRight(g.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultTossBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/payments/confirm", bytes.NewReader(body))
	if err != nil {
		return Confirmation{}, fmt.Errorf("toss gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(g.SecretKey+":")))

	resp, err := g.Client.Do(ctx, req)
	if err != nil {
		return Confirmation{}, fmt.Errorf("toss gateway: confirm: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Confirmation{}, fmt.Errorf("toss gateway: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var tossErr tossErrorResponse
		if err := json.Unmarshal(data, &tossErr); err != nil || tossErr.Code == "" {
			tossErr = tossErrorResponse{Code: "PROVIDER_ERROR", Message: resp.Status}
		}
		return Confirmation{}, &PaymentError{
			Code:    tossErr.Code,
			Message: tossErr.Message,
			Status:  resp.StatusCode,
		}
	}

	var confirmed tossConfirmResponse
	if err := json.Unmarshal(data, &confirmed); err != nil {
		return Confirmation{}, fmt.Errorf("toss gateway: decode response: %w", err)
	}
	return Confirmation{
		PaymentKey: confirmed.PaymentKey,
		Method:     confirmed.Method,
		ApprovedAt: confirmed.ApprovedAt,
	}, nil
}
