package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"WaterMonitoring.influxDB/internal/models"
)

// Metrics counts store interactions of the reading pipeline.
type Metrics struct {
	writes        *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
}

// NewMetrics registers the pipeline counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_monitoring",
			Name:      "record_writes_total",
			Help:      "Records committed to the store, by outcome.",
		}, []string{"outcome"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_monitoring",
			Name:      "latest_fetch_failures_total",
			Help:      "Latest-value lookups that yielded an unknown value, by error kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.writes, m.fetchFailures)
	return m
}

func (m *Metrics) observeWrite(outcome models.WriteOutcome) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) observeFetchFailure(kind string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(kind).Inc()
}
