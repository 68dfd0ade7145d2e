package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Checkouts *prometheus.CounterVec
	Webhooks  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Checkouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_billing_checkouts_total",
			Help: "Checkout sessions created, by product",
		}, []string{"product"}),
		Webhooks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_billing_webhooks_total",
			Help: "Payment webhooks received, by event type and outcome",
		}, []string{"type", "outcome"}),
	}
}

func (m *Metrics) IncCheckout(product string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(product).Inc()
}

func (m *Metrics) IncWebhook(eventType, outcome string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.Webhooks.WithLabelValues(eventType, outcome).Inc()
}
