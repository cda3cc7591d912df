package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MQMetrics contains Prometheus metrics for the RabbitMQ client.
type MQMetrics struct {
	MessagesPublished *prometheus.CounterVec
	PublishFailures   *prometheus.CounterVec
	PublishDuration   *prometheus.HistogramVec
	ReconnectAttempts *prometheus.CounterVec
	ConnectionStatus  *prometheus.GaugeVec
}

// NewMQMetrics creates RabbitMQ client metrics and registers them with reg (the global registry when nil).
func NewMQMetrics(reg prometheus.Registerer, namespace string) *MQMetrics {
	m := &MQMetrics{
		MessagesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mq",
				Name:      "messages_published_total",
				Help:      "Total number of messages confirmed by the broker",
			},
			[]string{"queue"},
		),
		PublishFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mq",
				Name:      "publish_failures_total",
				Help:      "Total number of messages that could not be published",
			},
			[]string{"queue", "reason"},
		),
		PublishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "mq",
				Name:      "publish_duration_seconds",
				Help:      "Duration of publish calls including retries",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"queue"},
		),
		ReconnectAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mq",
				Name:      "reconnect_attempts_total",
				Help:      "Total number of connection attempts",
			},
			[]string{"queue"},
		),
		ConnectionStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "mq",
				Name:      "connection_status",
				Help:      "1 while connected to the broker, 0 otherwise",
			},
			[]string{"queue"},
		),
	}

	registerer(reg).MustRegister(
		m.MessagesPublished,
		m.PublishFailures,
		m.PublishDuration,
		m.ReconnectAttempts,
		m.ConnectionStatus,
	)

	return m
}
