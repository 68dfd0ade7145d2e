package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GuestConsumed  prometheus.Counter
	GuestDenied    *prometheus.CounterVec
	GuestReleased  prometheus.Counter
	GuestSwept     prometheus.Counter
	ThrottledTotal prometheus.Counter
	ThrottleKeys   prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GuestConsumed: factory.NewCounter(prometheus.CounterOpts{
			Name: "atelier_guest_quota_consumed_total",
			Help: "Guest generation units consumed",
		}),
		GuestDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_guest_quota_denied_total",
			Help: "Guest generation attempts denied, by reason",
		}, []string{"reason"}),
		GuestReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "atelier_guest_quota_released_total",
			Help: "Guest units returned after upstream failures",
		}),
		GuestSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "atelier_guest_quota_swept_total",
			Help: "Expired guest quota rows removed by the sweeper",
		}),
		ThrottledTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "atelier_ratelimit_throttled_total",
			Help: "Requests rejected by the per-IP burst throttle",
		}),
		ThrottleKeys: factory.NewGauge(prometheus.GaugeOpts{
			Name: "atelier_ratelimit_throttle_keys",
			Help: "Client keys currently tracked by the burst throttle",
		}),
	}
}

// All methods are nil-safe so callers can run without metrics.

func (m *Metrics) IncConsumed() {
	if m != nil {
		m.GuestConsumed.Inc()
	}
}

func (m *Metrics) IncDenied(reason string) {
	if m != nil {
		m.GuestDenied.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncReleased() {
	if m != nil {
		m.GuestReleased.Inc()
	}
}

func (m *Metrics) AddSwept(n int) {
	if m != nil {
		m.GuestSwept.Add(float64(n))
	}
}

func (m *Metrics) IncThrottled() {
	if m != nil {
		m.ThrottledTotal.Inc()
	}
}

func (m *Metrics) SetThrottleKeys(n int) {
	if m != nil {
		m.ThrottleKeys.Set(float64(n))
	}
}
