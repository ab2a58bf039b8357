package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coderanker"

// Metrics groups every collector of the ranking pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	refreshTotal    *prometheus.CounterVec
	rerankDuration  prometheus.Histogram
	rerankRows      *prometheus.CounterVec
	hubConnections  prometheus.Gauge
	hubDroppedTotal prometheus.Counter
}

// New creates the collectors and registers them on the given registry.
func New(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Provider refresh attempts by provider and outcome.",
		}, []string{"provider", "status"}),
		rerankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rerank_duration_seconds",
			Help:      "Duration of full re-rank sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		rerankRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rerank_rows_total",
			Help:      "Rows touched by re-rank sweeps by result.",
		}, []string{"result"}),
		hubConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_connections",
			Help:      "Open real time connections.",
		}),
		hubDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_dropped_total",
			Help:      "Connections dropped after a failed send.",
		}),
	}

	collectors := []prometheus.Collector{
		m.refreshTotal,
		m.rerankDuration,
		m.rerankRows,
		m.hubConnections,
		m.hubDroppedTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordRefresh counts one provider refresh outcome.
func (m *Metrics) RecordRefresh(provider, status string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(provider, status).Inc()
}

// RecordReRank observes a finished sweep.
func (m *Metrics) RecordReRank(duration time.Duration, updated, skipped, failed int) {
	if m == nil {
		return
	}
	m.rerankDuration.Observe(duration.Seconds())
	m.rerankRows.WithLabelValues("updated").Add(float64(updated))
	m.rerankRows.WithLabelValues("skipped").Add(float64(skipped))
	m.rerankRows.WithLabelValues("failed").Add(float64(failed))
}

// ConnectionOpened increments the open connections gauge.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.hubConnections.Inc()
}

// ConnectionClosed decrements the open connections gauge.
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.hubConnections.Dec()
}

// ConnectionDropped counts a connection removed after a failed send.
func (m *Metrics) ConnectionDropped() {
	if m == nil {
		return
	}
	m.hubDroppedTotal.Inc()
}
