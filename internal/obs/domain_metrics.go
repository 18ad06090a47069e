package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutSubmissionsTotal counts checkout submission outcomes.
	CheckoutSubmissionsTotal *prometheus.CounterVec
	// PricingQuotesTotal counts pricing quote computations.
	PricingQuotesTotal prometheus.Counter
	// CatalogLookupFailuresTotal counts cart lines that could not be priced.
	CatalogLookupFailuresTotal prometheus.Counter
	// PaymentConfirmTotal counts payment confirmation outcomes per provider.
	PaymentConfirmTotal *prometheus.CounterVec
	// OrderCancellationsTotal counts buyer-initiated cancellations.
	OrderCancellationsTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_submissions_total",
			Help:      "Count of checkout submissions by outcome.",
		}, []string{"result"})
		PricingQuotesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_quotes_total",
			Help:      "Number of pricing quotes computed.",
		})
		CatalogLookupFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_lookup_failures_total",
			Help:      "Cart lines that contributed zero because catalog lookup failed.",
		})
		PaymentConfirmTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_confirm_total",
			Help:      "Count of payment confirmation outcomes.",
		}, []string{"provider", "result"})
		OrderCancellationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_cancellations_total",
			Help:      "Number of orders cancelled by buyers.",
		})

		mustRegisterCollector(reg, CheckoutSubmissionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutSubmissionsTotal = v
			}
		})
		mustRegisterCollector(reg, PricingQuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PricingQuotesTotal = v
			}
		})
		mustRegisterCollector(reg, CatalogLookupFailuresTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CatalogLookupFailuresTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentConfirmTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentConfirmTotal = v
			}
		})
		mustRegisterCollector(reg, OrderCancellationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrderCancellationsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
