package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatTurnsTotal     *prometheus.CounterVec
	chatFallbacksTotal *prometheus.CounterVec
	chatDuration       *prometheus.HistogramVec
	retrievedPassages  *prometheus.HistogramVec
	llmAttempts        *prometheus.HistogramVec
	rateLimitedTotal   *prometheus.CounterVec
	overloadedTotal    *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "course_assistant",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "course_assistant",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "course_assistant",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatTurnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "course_assistant",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by outcome.",
		},
		[]string{"service", "outcome"},
	)
	chatFallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "course_assistant",
			Subsystem: "chat",
			Name:      "fallbacks_total",
			Help:      "Total chat turns answered with a fallback reply.",
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "course_assistant",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "Chat turn duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"service"},
	)
	retrievedPassages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "course_assistant",
			Subsystem: "rag",
			Name:      "retrieved_passages",
			Help:      "Distribution of passages above threshold per chat turn.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	llmAttempts := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "course_assistant",
			Subsystem: "llm",
			Name:      "attempts",
			Help:      "Generation attempts per chat turn that reached the model.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
		[]string{"service"},
	)
	rateLimitedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "course_assistant",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total requests rejected by the rate limiter.",
		},
		[]string{"service"},
	)
	overloadedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "course_assistant",
			Subsystem: "http",
			Name:      "overloaded_total",
			Help:      "Total requests rejected by the backpressure gate.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatTurnsTotal,
		chatFallbacksTotal,
		chatDuration,
		retrievedPassages,
		llmAttempts,
		rateLimitedTotal,
		overloadedTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		chatTurnsTotal:     chatTurnsTotal,
		chatFallbacksTotal: chatFallbacksTotal,
		chatDuration:       chatDuration,
		retrievedPassages:  retrievedPassages,
		llmAttempts:        llmAttempts,
		rateLimitedTotal:   rateLimitedTotal,
		overloadedTotal:    overloadedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		path := normalizePath(r.URL.Path)
		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps label cardinality bounded to the known routes.
func normalizePath(path string) string {
	switch path {
	case "/chat", "/chat/clear", "/chat/history", "/chat/transcript", "/healthz", "/metrics":
		return path
	default:
		return "other"
	}
}

// RecordChatTurn observes one finished chat turn. attempts is zero when the
// model was never called.
func (m *HTTPServerMetrics) RecordChatTurn(service, outcome string, isFallback bool, sources, attempts int, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.chatTurnsTotal.WithLabelValues(service, outcome).Inc()
	if isFallback {
		m.chatFallbacksTotal.WithLabelValues(service).Inc()
	}
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.retrievedPassages.WithLabelValues(service).Observe(float64(sources))
	if attempts > 0 {
		m.llmAttempts.WithLabelValues(service).Observe(float64(attempts))
	}
}

func (m *HTTPServerMetrics) RecordRateLimited(service string) {
	m.rateLimitedTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordOverloaded(service string) {
	m.overloadedTotal.WithLabelValues(service).Inc()
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
