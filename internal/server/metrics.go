package server

import (
	"time"

	"github.com/mohammad-safakhou/onboarder/internal/normalize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type metrics struct {
	registry    *prometheus.Registry
	corrections *prometheus.CounterVec
	requests    *prometheus.CounterVec
	duration    prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		corrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onboarder",
			Subsystem: "normalize",
			Name:      "corrections_total",
			Help:      "Corrections applied to generated configurations, by kind.",
		}, []string{"kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onboarder",
			Subsystem: "configure",
			Name:      "requests_total",
			Help:      "Configure requests by generation path and outcome.",
		}, []string{"path", "outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "onboarder",
			Subsystem: "configure",
			Name:      "duration_seconds",
			Help:      "End-to-end configure latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
	}
	m.registry.MustRegister(
		m.corrections, m.requests, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observeReport(r *normalize.Report) {
	for kind, n := range r.Counts() {
		m.corrections.WithLabelValues(string(kind)).Add(float64(n))
	}
}

func (m *metrics) observeConfigure(path, outcome string, started time.Time) {
	if path == "" {
		path = "none"
	}
	m.requests.WithLabelValues(path, outcome).Inc()
	m.duration.Observe(time.Since(started).Seconds())
}
