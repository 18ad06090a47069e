package order

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/lune-shop/backend-lune/internal/obs"
)

func registerTestMetrics(t *testing.T) {
	t.Helper()
	obs.MustRegisterDomainMetrics("ordertest", prometheus.NewRegistry())
}

func TestPlaceCountsPaymentConfirmOutcomes(t *testing.T) {
	registerTestMetrics(t)
	approvedBefore := testutil.ToFloat64(obs.PaymentConfirmTotal.WithLabelValues("kakaopay", "approved"))
	rejectedBefore := testutil.ToFloat64(obs.PaymentConfirmTotal.WithLabelValues("kakaopay", "rejected"))

	p := placeParams()
	p.Method = MethodSimple
	p.Provider = "kakaopay"

	svc := &Service{Store: &stubStore{}, Gateway: &countingGateway{}}
	_, err := svc.Place(context.Background(), p)
	require.NoError(t, err)

	rejecting := &Service{Store: &stubStore{}, Gateway: &countingGateway{
		err: &PaymentError{Code: "REJECT_CARD_COMPANY", Message: "declined", Status: 400},
	}}
	_, err = rejecting.Place(context.Background(), p)
	require.Error(t, err)

	approved := testutil.ToFloat64(obs.PaymentConfirmTotal.WithLabelValues("kakaopay", "approved"))
	rejected := testutil.ToFloat64(obs.PaymentConfirmTotal.WithLabelValues("kakaopay", "rejected"))
	require.Equal(t, approvedBefore+1, approved)
	require.Equal(t, rejectedBefore+1, rejected)
}

func TestPlaceFallsBackToMethodLabelWithoutProvider(t *testing.T) {
	registerTestMetrics(t)
	before := testutil.ToFloat64(obs.PaymentConfirmTotal.WithLabelValues("card", "approved"))

	svc := &Service{Store: &stubStore{}, Gateway: &countingGateway{}}
	_, err := svc.Place(context.Background(), placeParams())
	require.NoError(t, err)

	after := testutil.ToFloat64(obs.PaymentConfirmTotal.WithLabelValues("card", "approved"))
	require.Equal(t, before+1, after)
}

func TestCancelCountsCancellation(t *testing.T) {
	registerTestMetrics(t)
	before := testutil.ToFloat64(obs.OrderCancellationsTotal)

	store := &stubStore{orders: map[string]Order{
		"20260901-CCCC3333": {Number: "20260901-CCCC3333", UserID: "user-1", Status: StatusPaid},
	}}
	svc := &Service{Store: store}
	_, err := svc.Cancel(context.Background(), "user-1", "20260901-CCCC3333")
	require.NoError(t, err)

	after := testutil.ToFloat64(obs.OrderCancellationsTotal)
	require.Equal(t, before+1, after)
}
