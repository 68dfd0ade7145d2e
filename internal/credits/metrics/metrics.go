package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CreditsMoved      *prometheus.CounterVec
	InsufficientTotal prometheus.Counter
	AccountsCreated   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CreditsMoved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_credits_moved_total",
			Help: "Credits moved through the ledger, by transaction kind",
		}, []string{"kind"}),
		InsufficientTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "atelier_credits_insufficient_total",
			Help: "Deductions refused for insufficient balance",
		}),
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "atelier_credits_accounts_created_total",
			Help: "Credit accounts provisioned",
		}),
	}
}

func (m *Metrics) AddMoved(kind string, amount int) {
	if m == nil {
		return
	}
	if amount < 0 {
		amount = -amount
	}
	m.CreditsMoved.WithLabelValues(kind).Add(float64(amount))
}

func (m *Metrics) IncInsufficient() {
	if m != nil {
		m.InsufficientTotal.Inc()
	}
}

func (m *Metrics) IncAccountsCreated() {
	if m != nil {
		m.AccountsCreated.Inc()
	}
}
