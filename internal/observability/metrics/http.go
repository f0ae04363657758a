// Package metrics exposes Prometheus registries for the API and worker
// processes. Each process owns its registry so /metrics never mixes
// collectors across services.
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

	searchTotal     *prometheus.CounterVec
	searchFallback  *prometheus.CounterVec
	searchNoAnswer  *prometheus.CounterVec
	searchChunks    *prometheus.HistogramVec
	searchDuration  *prometheus.HistogramVec
	tabularFiles    *prometheus.HistogramVec
	tabularFailures *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btb",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "btb",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "btb",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btb",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total search requests by chosen strategy and answer source.",
		},
		[]string{"service", "strategy", "source"},
	)
	searchFallback := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btb",
			Subsystem: "search",
			Name:      "fallback_total",
			Help:      "Total searches that fell through to tabular data.",
		},
		[]string{"service", "strategy"},
	)
	searchNoAnswer := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btb",
			Subsystem: "search",
			Name:      "no_answer_total",
			Help:      "Total searches that exhausted every stage without an answer.",
		},
		[]string{"service", "strategy"},
	)
	searchChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "btb",
			Subsystem: "search",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per document search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		},
		[]string{"service"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "btb",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "End-to-end search duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "strategy"},
	)
	tabularFiles := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "btb",
			Subsystem: "tabular",
			Name:      "files_queried",
			Help:      "Distribution of tabular files consulted per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	tabularFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btb",
			Subsystem: "tabular",
			Name:      "file_failures_total",
			Help:      "Total tabular files that failed to open or answer.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchTotal,
		searchFallback,
		searchNoAnswer,
		searchChunks,
		searchDuration,
		tabularFiles,
		tabularFailures,
	)

	return &HTTPServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		searchTotal:     searchTotal,
		searchFallback:  searchFallback,
		searchNoAnswer:  searchNoAnswer,
		searchChunks:    searchChunks,
		searchDuration:  searchDuration,
		tabularFiles:    tabularFiles,
		tabularFailures: tabularFailures,
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

// normalizePath folds per-document routes into one label value so the
// cardinality of the path label stays bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{name}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordSearch(service, strategy, source string, duration time.Duration, fellBack, noAnswer bool) {
	if strategy == "" {
		strategy = "unknown"
	}
	if source == "" {
		source = "none"
	}
	m.searchTotal.WithLabelValues(service, strategy, source).Inc()
	m.searchDuration.WithLabelValues(service, strategy).Observe(duration.Seconds())
	if fellBack {
		m.searchFallback.WithLabelValues(service, strategy).Inc()
	}
	if noAnswer {
		m.searchNoAnswer.WithLabelValues(service, strategy).Inc()
	}
}

func (m *HTTPServerMetrics) RecordRetrievedChunks(service string, count int) {
	m.searchChunks.WithLabelValues(service).Observe(float64(count))
}

func (m *HTTPServerMetrics) RecordTabularQuery(service string, files, failures int) {
	m.tabularFiles.WithLabelValues(service).Observe(float64(files))
	if failures > 0 {
		m.tabularFailures.WithLabelValues(service).Add(float64(failures))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
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
