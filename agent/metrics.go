package agent

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

// Metrics holds Prometheus metrics for the intake flow.
type Metrics struct {
	TurnsTotal            *prometheus.CounterVec // Turns by decision kind
	StoreErrorsTotal      *prometheus.CounterVec // Session store failures by operation
	GenerationErrorsTotal prometheus.Counter     // Failed generation calls
}

// NewMetrics creates and registers the intake metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	turnsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_turns_total",
		Help: "Total number of chat turns handled, by decision",
	}, []string{"decision"})

	storeErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_store_errors_total",
		Help: "Total number of session store errors, by operation",
	}, []string{"op"})

	generationErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intake_generation_errors_total",
		Help: "Total number of failed generation calls",
	})

	reg.MustRegister(turnsTotal)
	reg.MustRegister(storeErrorsTotal)
	reg.MustRegister(generationErrorsTotal)

	return &Metrics{
		TurnsTotal:            turnsTotal,
		StoreErrorsTotal:      storeErrorsTotal,
		GenerationErrorsTotal: generationErrorsTotal,
	}
}

func (m *Metrics) turn(kind types.DecisionKind) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) storeError(op string) {
	if m == nil {
		return
	}
	m.StoreErrorsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) generationError() {
	if m == nil {
		return
	}
	m.GenerationErrorsTotal.Inc()
}
