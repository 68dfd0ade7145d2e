package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Saved    prometheus.Counter
	Deleted  prometheus.Counter
	Rejected *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Saved: factory.NewCounter(prometheus.CounterOpts{
			Name: "atelier_archive_saved_total",
			Help: "Images saved to user archives",
		}),
		Deleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "atelier_archive_deleted_total",
			Help: "Images removed from user archives",
		}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_archive_rejected_total",
			Help: "Archive saves refused, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncSaved() {
	if m == nil {
		return
	}
	m.Saved.Inc()
}

func (m *Metrics) IncDeleted() {
	if m == nil {
		return
	}
	m.Deleted.Inc()
}

func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}
