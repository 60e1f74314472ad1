package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	enrichTotal     *prometheus.CounterVec
	enrichDuration  *prometheus.HistogramVec
	enrichInFlight  prometheus.Gauge
	rateLimiterWait *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	enrichTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "enrichment_total",
			Help:      "Listing tag enrichments by status and tag source.",
		},
		[]string{"service", "status", "source"},
	)
	enrichDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "enrichment_duration_seconds",
			Help:      "Listing tag enrichment duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	enrichInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "enrichment_in_flight",
			Help:      "Number of in-flight enrichment tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	rateLimiterWait := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "rate_limiter_wait_seconds",
			Help:      "Time spent waiting for the oracle rate limiter before an enrichment.",
			Buckets:   []float64{0, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"service"},
	)

	registry.MustRegister(enrichTotal, enrichDuration, enrichInFlight, rateLimiterWait)

	return &WorkerMetrics{
		registry:        registry,
		enrichTotal:     enrichTotal,
		enrichDuration:  enrichDuration,
		enrichInFlight:  enrichInFlight,
		rateLimiterWait: rateLimiterWait,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartEnrichment() {
	m.enrichInFlight.Inc()
}

func (m *WorkerMetrics) FinishEnrichment(service, source string, duration time.Duration, err error) {
	m.enrichInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	if source == "" {
		source = "none"
	}

	m.enrichTotal.WithLabelValues(service, status, source).Inc()
	m.enrichDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveRateLimiterWait(service string, wait time.Duration) {
	if wait < 0 {
		return
	}
	m.rateLimiterWait.WithLabelValues(service).Observe(wait.Seconds())
}
