package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "entitlements"

type Metrics struct {
	reconciliations     *prometheus.CounterVec
	downgrades          *prometheus.CounterVec
	purchases           *prometheus.CounterVec
	consistencyWarnings *prometheus.CounterVec
}

// New builds the collectors and registers them with reg when reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Reconciliation passes by trigger.",
		}, []string{"trigger"}),
		downgrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downgrades_total",
			Help:      "Premium entitlements cleared, by reason.",
		}, []string{"reason"}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_total",
			Help:      "Confirmed purchases by plan.",
		}, []string{"plan"}),
		consistencyWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consistency_warnings_total",
			Help:      "Cross-store inconsistencies detected, by kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.reconciliations, m.downgrades, m.purchases, m.consistencyWarnings)
	}
	return m
}

// The methods below accept a nil receiver so callers can run without metrics.

func (m *Metrics) ReconciliationRan(trigger string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(trigger).Inc()
}

func (m *Metrics) Downgraded(reason string) {
	if m == nil {
		return
	}
	m.downgrades.WithLabelValues(reason).Inc()
}

func (m *Metrics) Purchased(planID string) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(planID).Inc()
}

func (m *Metrics) ConsistencyWarning(kind string) {
	if m == nil {
		return
	}
	m.consistencyWarnings.WithLabelValues(kind).Inc()
}
