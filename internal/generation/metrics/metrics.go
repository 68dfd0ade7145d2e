package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Requests       *prometheus.CounterVec
	Images         *prometheus.CounterVec
	CreditsCharged prometheus.Counter
	CreditsRefund  prometheus.Counter
	Duration       *prometheus.HistogramVec
	BreakerOpen    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_generation_requests_total",
			Help: "Generation requests by caller type and outcome",
		}, []string{"caller", "outcome"}),
		Images: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_generation_images_total",
			Help: "Images requested from the provider, by result",
		}, []string{"result"}),
		CreditsCharged: factory.NewCounter(prometheus.CounterOpts{
			Name: "atelier_generation_credits_charged_total",
			Help: "Credits kept after refunds for generations",
		}),
		CreditsRefund: factory.NewCounter(prometheus.CounterOpts{
			Name: "atelier_generation_credits_refunded_total",
			Help: "Credits refunded for failed images",
		}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atelier_generation_duration_seconds",
			Help:    "End to end generation latency",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 90, 120},
		}, []string{"caller"}),
		BreakerOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "atelier_imagegen_circuit_open",
			Help: "1 while the image provider circuit breaker is open",
		}),
	}
}

func (m *Metrics) ObserveRequest(caller, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(caller, outcome).Inc()
	m.Duration.WithLabelValues(caller).Observe(elapsed.Seconds())
}

func (m *Metrics) AddImages(ok, failed int) {
	if m == nil {
		return
	}
	m.Images.WithLabelValues("ok").Add(float64(ok))
	m.Images.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) AddCredits(charged, refunded int) {
	if m == nil {
		return
	}
	m.CreditsCharged.Add(float64(charged))
	m.CreditsRefund.Add(float64(refunded))
}

// ObserveBreaker tracks the provider circuit; it matches
// imagegen.StateObserver.
func (m *Metrics) ObserveBreaker(_ string, open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}
