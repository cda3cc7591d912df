package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GeneratorMetrics contains Prometheus metrics for the synthetic reading generator.
type GeneratorMetrics struct {
	AssetsSeeded       prometheus.Counter
	ReadingsGenerated  *prometheus.CounterVec
	GenerationFailures *prometheus.CounterVec
	OutOfRangeReadings prometheus.Counter
}

// NewGeneratorMetrics creates generator metrics and registers them with reg (the global registry when nil).
func NewGeneratorMetrics(reg prometheus.Registerer, namespace string) *GeneratorMetrics {
	m := &GeneratorMetrics{
		AssetsSeeded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generator",
				Name:      "assets_seeded_total",
				Help:      "Total number of assets created by the generator",
			},
		),
		ReadingsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generator",
				Name:      "readings_generated_total",
				Help:      "Total number of readings published",
			},
			[]string{"location"},
		),
		GenerationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generator",
				Name:      "failures_total",
				Help:      "Total number of generator failures",
			},
			[]string{"stage"}, // stage: seed, publish
		),
		OutOfRangeReadings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generator",
				Name:      "excursions_total",
				Help:      "Total number of readings generated outside the nominal range",
			},
		),
	}

	registerer(reg).MustRegister(
		m.AssetsSeeded,
		m.ReadingsGenerated,
		m.GenerationFailures,
		m.OutOfRangeReadings,
	)

	return m
}
