// Package observability exposes Prometheus metrics for the engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	TurnsTotal       *prometheus.CounterVec
	TurnDuration     prometheus.Histogram
	StageTransitions *prometheus.CounterVec
	Suspensions      *prometheus.CounterVec
	ToolExecutions   *prometheus.CounterVec
}

// NewMetrics builds and registers the collectors on reg. Pass
// prometheus.NewRegistry() in tests to avoid global state.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billagent",
			Name:      "turns_total",
			Help:      "Completed turns by outcome status.",
		}, []string{"status"}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "billagent",
			Name:      "turn_duration_seconds",
			Help:      "Wall time of one turn, excluding human wait.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		StageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billagent",
			Name:      "stage_transitions_total",
			Help:      "Stage executions by stage.",
		}, []string{"stage"}),
		Suspensions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billagent",
			Name:      "suspensions_total",
			Help:      "Human intervention suspensions by request type.",
		}, []string{"type"}),
		ToolExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billagent",
			Name:      "tool_executions_total",
			Help:      "Tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
	}
	reg.MustRegister(m.TurnsTotal, m.TurnDuration, m.StageTransitions, m.Suspensions, m.ToolExecutions)
	return m
}
