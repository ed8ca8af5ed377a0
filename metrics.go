package mmm

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects counters of the solver and predictor activity. A nil *Metrics
// records nothing.
type Metrics struct {
	lambertSolves       *prometheus.CounterVec
	searchCandidates    prometheus.Counter
	predictorRecomputes *prometheus.CounterVec
	impacts             *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg when not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lambertSolves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lambert_solves_total",
				Help: "Total number of Lambert solves",
			},
			[]string{"result"}, // ok, geometry, infeasible, convergence, invalid, miss
		),
		searchCandidates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "search_candidates_total",
				Help: "Total number of viable interception candidates",
			},
		),
		predictorRecomputes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictor_recomputes_total",
				Help: "Total number of path recomputations",
			},
			[]string{"reason"},
		),
		impacts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "impacts_total",
				Help: "Total number of impacts",
			},
			[]string{"kind"}, // intercept, surface
		),
	}
	if reg != nil {
		reg.MustRegister(m.lambertSolves, m.searchCandidates, m.predictorRecomputes, m.impacts)
	}
	return m
}

// RecordLambert counts one Lambert solve by result.
func (m *Metrics) RecordLambert(result string) {
	if m == nil {
		return
	}
	m.lambertSolves.WithLabelValues(result).Inc()
}

// RecordCandidates adds the number of viable candidates of a search.
func (m *Metrics) RecordCandidates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.searchCandidates.Add(float64(n))
}

// RecordRecompute counts one path recomputation.
func (m *Metrics) RecordRecompute(reason string) {
	if m == nil {
		return
	}
	m.predictorRecomputes.WithLabelValues(reason).Inc()
}

// RecordImpact counts one impact.
func (m *Metrics) RecordImpact(kind string) {
	if m == nil {
		return
	}
	m.impacts.WithLabelValues(kind).Inc()
}
