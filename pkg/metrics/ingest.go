package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics contains Prometheus metrics for the reading consumer.
type IngestMetrics struct {
	MessagesTotal      *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram
	ActiveConsumers    prometheus.Gauge
	LastReadingTime    prometheus.Gauge
}

// NewIngestMetrics creates consumer metrics and registers them with reg (the global registry when nil).
func NewIngestMetrics(reg prometheus.Registerer, namespace string) *IngestMetrics {
	m := &IngestMetrics{
		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "messages_total",
				Help:      "Total number of reading messages consumed",
			},
			[]string{"outcome"}, // outcome: stored, malformed, rejected, requeued
		),
		ProcessingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "processing_duration_seconds",
				Help:      "Duration of reading message processing",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ActiveConsumers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "active_consumers",
				Help:      "Number of running reading consumers",
			},
		),
		LastReadingTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "last_reading_timestamp_seconds",
				Help:      "Timestamp of the most recently stored reading",
			},
		),
	}

	registerer(reg).MustRegister(
		m.MessagesTotal,
		m.ProcessingDuration,
		m.ActiveConsumers,
		m.LastReadingTime,
	)

	return m
}
