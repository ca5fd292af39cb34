package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	recategorizeTotal    *prometheus.CounterVec
	recategorizeDuration *prometheus.HistogramVec
	recategorizeInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	recategorizeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notewise",
			Subsystem: "worker",
			Name:      "recategorize_total",
			Help:      "Total recategorize requests handled by status.",
		},
		[]string{"service", "status"},
	)
	recategorizeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notewise",
			Subsystem: "worker",
			Name:      "recategorize_duration_seconds",
			Help:      "Recategorize duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	recategorizeInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "notewise",
			Subsystem: "worker",
			Name:      "recategorize_in_flight",
			Help:      "Number of in-flight recategorize requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(recategorizeTotal, recategorizeDuration, recategorizeInFlight)

	return &WorkerMetrics{
		registry:             registry,
		recategorizeTotal:    recategorizeTotal,
		recategorizeDuration: recategorizeDuration,
		recategorizeInFlight: recategorizeInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRecategorize() {
	m.recategorizeInFlight.Inc()
}

func (m *WorkerMetrics) FinishRecategorize(service string, duration time.Duration, err error) {
	m.recategorizeInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.recategorizeTotal.WithLabelValues(service, status).Inc()
	m.recategorizeDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}
