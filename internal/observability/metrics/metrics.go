package metrics

import "github.com/prometheus/client_golang/prometheus"

// ContatoMetrics exposes counters for the contact/appointment flow.
type ContatoMetrics struct {
	operationsTotal         *prometheus.CounterVec
	validationFailuresTotal *prometheus.CounterVec
}

func NewContatoMetrics(reg prometheus.Registerer) *ContatoMetrics {
	m := &ContatoMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "contatos",
			Name:      "operations_total",
			Help:      "Total contato operations by outcome",
		}, []string{"operation", "outcome"}),
		validationFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "contatos",
			Name:      "validation_failures_total",
			Help:      "Total submissions rejected by validation",
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operationsTotal, m.validationFailuresTotal)
	return m
}

func (m *ContatoMetrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *ContatoMetrics) ObserveValidationFailure(operation string) {
	if m == nil {
		return
	}
	m.validationFailuresTotal.WithLabelValues(operation).Inc()
}
