package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SearchMetrics implements ports.SearchObserver.
type SearchMetrics struct {
	service string

	searchesTotal   *prometheus.CounterVec
	expansionsTotal *prometheus.CounterVec
	candidates      *prometheus.HistogramVec
	results         *prometheus.HistogramVec
	duration        *prometheus.HistogramVec
	breakerChanges  *prometheus.CounterVec
}

func NewSearchMetrics(registerer prometheus.Registerer, service string) *SearchMetrics {
	m := &SearchMetrics{
		service: service,
		searchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "requests_total",
				Help:      "Search requests by outcome (normal, degraded, failed).",
			},
			[]string{"service", "outcome"},
		),
		expansionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "expansions_total",
				Help:      "Query expansions by outcome (parsed, recovered, defaulted, failed, cached).",
			},
			[]string{"service", "outcome"},
		),
		candidates: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "candidates",
				Help:      "Candidate listings retrieved per search.",
				Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 250, 500},
			},
			[]string{"service", "outcome"},
		),
		results: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "results",
				Help:      "Listings returned per search.",
				Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 250},
			},
			[]string{"service", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "duration_seconds",
				Help:      "End-to-end search duration in seconds.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
			},
			[]string{"service", "outcome"},
		),
		breakerChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "oracle",
				Name:      "breaker_transitions_total",
				Help:      "Circuit breaker state transitions for oracle calls.",
			},
			[]string{"service", "operation", "to"},
		),
	}
	registerer.MustRegister(
		m.searchesTotal,
		m.expansionsTotal,
		m.candidates,
		m.results,
		m.duration,
		m.breakerChanges,
	)
	return m
}

func (m *SearchMetrics) ObserveExpansion(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.expansionsTotal.WithLabelValues(m.service, outcome).Inc()
}

func (m *SearchMetrics) ObserveSearch(outcome string, candidates, results int, durationSeconds float64) {
	m.searchesTotal.WithLabelValues(m.service, outcome).Inc()
	m.candidates.WithLabelValues(m.service, outcome).Observe(float64(candidates))
	m.results.WithLabelValues(m.service, outcome).Observe(float64(results))
	m.duration.WithLabelValues(m.service, outcome).Observe(durationSeconds)
}

// RecordBreakerTransition matches resilience.Config.OnStateChange.
func (m *SearchMetrics) RecordBreakerTransition(operation, _, to string) {
	m.breakerChanges.WithLabelValues(m.service, operation, to).Inc()
}
