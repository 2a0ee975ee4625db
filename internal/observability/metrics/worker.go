package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics covers the transcript worker: how many published turns were
// saved, how long saving took and how far the worker trails the chat.
type WorkerMetrics struct {
	registry *prometheus.Registry

	saved    *prometheus.CounterVec
	saveTime *prometheus.HistogramVec
	pending  prometheus.Gauge
	lag      prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	labels := prometheus.Labels{"service": service}
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: "course_assistant", Subsystem: "transcripts", Name: name, Help: help, ConstLabels: labels}
	}

	m := &WorkerMetrics{
		registry: prometheus.NewRegistry(),
		saved: prometheus.NewCounterVec(
			prometheus.CounterOpts(opts("turns_total", "Consumed chat turns by chat outcome and save result.")),
			[]string{"outcome", "result"},
		),
		saveTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "course_assistant",
			Subsystem:   "transcripts",
			Name:        "save_duration_seconds",
			Help:        "Transcript save duration in seconds by result.",
			ConstLabels: labels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"result"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts(opts("pending", "Turns received and not yet saved."))),
		lag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "course_assistant",
			Subsystem:   "transcripts",
			Name:        "lag_seconds",
			Help:        "Delay between a chat turn and the start of its save.",
			ConstLabels: labels,
			Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
	m.registry.MustRegister(m.saved, m.saveTime, m.pending, m.lag)
	return m
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Track marks one turn as pending and returns the func that settles it.
// A zero createdAt skips the lag observation.
func (m *WorkerMetrics) Track(createdAt time.Time) func(outcome string, err error) {
	start := time.Now()
	if !createdAt.IsZero() {
		if lag := start.Sub(createdAt); lag >= 0 {
			m.lag.Observe(lag.Seconds())
		}
	}
	m.pending.Inc()

	return func(outcome string, err error) {
		m.pending.Dec()
		result := "saved"
		if err != nil {
			result = "failed"
		}
		if outcome == "" {
			outcome = "unknown"
		}
		m.saved.WithLabelValues(outcome, result).Inc()
		m.saveTime.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}
}
