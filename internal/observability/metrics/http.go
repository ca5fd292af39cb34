package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	categorizeTotal    *prometheus.CounterVec
	categorizeDuration *prometheus.HistogramVec
	breakerState       *prometheus.GaugeVec
	noteEventsTotal    *prometheus.CounterVec
	streamSubscribers  prometheus.Gauge
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notewise",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notewise",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "notewise",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	categorizeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notewise",
			Subsystem: "categorize",
			Name:      "requests_total",
			Help:      "Total categorizations by decision source and outcome.",
		},
		[]string{"service", "source", "outcome"},
	)
	categorizeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notewise",
			Subsystem: "categorize",
			Name:      "duration_seconds",
			Help:      "Categorization duration in seconds by decision source.",
			Buckets:   []float64{0.005, 0.05, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"service", "source"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "notewise",
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)
	noteEventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notewise",
			Subsystem: "notes",
			Name:      "events_total",
			Help:      "Total note change events observed by kind.",
		},
		[]string{"service", "kind"},
	)
	streamSubscribers := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "notewise",
			Subsystem: "notes",
			Name:      "stream_subscribers",
			Help:      "Number of open note list streams.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		categorizeTotal,
		categorizeDuration,
		breakerState,
		noteEventsTotal,
		streamSubscribers,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		categorizeTotal:    categorizeTotal,
		categorizeDuration: categorizeDuration,
		breakerState:       breakerState,
		noteEventsTotal:    noteEventsTotal,
		streamSubscribers:  streamSubscribers,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	const prefix = "/v1/notes/"
	if !strings.HasPrefix(path, prefix) {
		return path
	}
	rest := strings.TrimPrefix(path, prefix)
	head, tail, _ := strings.Cut(rest, "/")
	if _, err := strconv.ParseInt(head, 10, 64); err != nil {
		return path
	}
	if tail == "" {
		return prefix + "{id}"
	}
	return prefix + "{id}/" + tail
}

// RecordCategorization counts one categorization; outcome is "error" when
// the result carries a fallback error.
func (m *HTTPServerMetrics) RecordCategorization(service, source string, failed bool, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.categorizeTotal.WithLabelValues(service, source, outcome).Inc()
	m.categorizeDuration.WithLabelValues(service, source).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) SetBreakerState(service, operation string, state float64) {
	m.breakerState.WithLabelValues(service, operation).Set(state)
}

func (m *HTTPServerMetrics) RecordNoteEvent(service, kind string) {
	m.noteEventsTotal.WithLabelValues(service, kind).Inc()
}

func (m *HTTPServerMetrics) StreamOpened() {
	m.streamSubscribers.Inc()
}

func (m *HTTPServerMetrics) StreamClosed() {
	m.streamSubscribers.Dec()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
