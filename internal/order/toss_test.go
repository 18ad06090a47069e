package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lune-shop/backend-lune/internal/resilience"
)

func tossClient() resilience.HTTPClient {
	return resilience.HTTPClient{Client: &http.Client{}, MaxAttempts: 1}
}

func TestTossSubmitConfirms(t *testing.T) {
	var gotAuth string
	var gotBody tossConfirmRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payments/confirm", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(tossConfirmResponse{
			PaymentKey: gotBody.PaymentKey,
			Method:     "card",
			ApprovedAt: "2026-09-01T10:30:00+09:00",
		})
	}))
	defer srv.Close()

	gw := &TossGateway{Client: tossClient(), BaseURL: srv.URL, SecretKey: "test_sk_abc"}
	conf, err := gw.Submit(context.Background(), Submission{
		OrderID:    "20260901-AAAA1111",
		Amount:     80_000,
		Method:     MethodCard,
		PaymentKey: "widget-key",
	})
	require.NoError(t, err)
	require.Equal(t, "widget-key", conf.PaymentKey)
	require.Equal(t, "card", conf.Method)
	require.True(t, strings.HasPrefix(gotAuth, "Basic "))
	require.Equal(t, "20260901-AAAA1111", gotBody.OrderID)
	require.Equal(t, int64(80_000), gotBody.Amount)
}

func TestTossSubmitRejectionBecomesPaymentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(tossErrorResponse{Code: "INVALID_CARD_EXPIRATION", Message: "expired card"})
	}))
	defer srv.Close()

	gw := &TossGateway{Client: tossClient(), BaseURL: srv.URL, SecretKey: "test_sk_abc"}
	_, err := gw.Submit(context.Background(), Submission{OrderID: "o", Amount: 1, PaymentKey: "k"})

	var payErr *PaymentError
	require.ErrorAs(t, err, &payErr)
	require.Equal(t, "INVALID_CARD_EXPIRATION", payErr.Code)
	require.Equal(t, http.StatusBadRequest, payErr.Status)
}

func TestTossSubmitSingleAttemptOnServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw := &TossGateway{Client: tossClient(), BaseURL: srv.URL, SecretKey: "test_sk_abc"}
	_, err := gw.Submit(context.Background(), Submission{OrderID: "o", Amount: 1, PaymentKey: "k"})
	require.Error(t, err)
	require.Equal(t, 1, calls, "payment confirmation must not be retried")
}

func TestTossSubmitRequiresPaymentKey(t *testing.T) {
	gw := &TossGateway{Client: tossClient(), SecretKey: "test_sk_abc"}
	_, err := gw.Submit(context.Background(), Submission{OrderID: "o", Amount: 1})
	require.Error(t, err)
}

func TestMockGateway(t *testing.T) {
	conf, err := MockGateway{}.Submit(context.Background(), Submission{OrderID: "20260901-CCCC3333", Method: MethodSimple})
	require.NoError(t, err)
	require.Equal(t, "mock-20260901-CCCC3333", conf.PaymentKey)

	_, err = MockGateway{}.Submit(context.Background(), Submission{OrderID: "decline-me"})
	var payErr *PaymentError
	require.ErrorAs(t, err, &payErr)
}
