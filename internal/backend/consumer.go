// Package backend runs the climate monitor service: the reading consumer and the HTTP API
// on top of the Postgres store.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"

	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/pkg/message"
	"procodus.dev/climate-monitor/pkg/metrics"
	"procodus.dev/climate-monitor/pkg/mq"
)

const (
	outcomeStored    = "stored"
	outcomeMalformed = "malformed"
	outcomeRejected  = "rejected"
	outcomeRequeued  = "requeued"
)

// Consumer consumes reading messages from RabbitMQ and appends them to the store.
type Consumer struct {
	logger     *slog.Logger
	sink       monitor.ReadingWriter
	subscriber mq.Subscriber
	metrics    *metrics.IngestMetrics
	done       chan struct{}
	startOnce  sync.Once
	started    bool
}

// ConsumerConfig holds the configuration for the Consumer.
type ConsumerConfig struct {
	Logger     *slog.Logger
	Sink       monitor.ReadingWriter
	Subscriber mq.Subscriber
	// Metrics is optional.
	Metrics *metrics.IngestMetrics
}

// NewConsumer creates a new Consumer instance.
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg == nil {
		return nil, errors.New("consumer config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.Sink == nil {
		return nil, errors.New("reading sink cannot be nil")
	}
	if cfg.Subscriber == nil {
		return nil, errors.New("subscriber cannot be nil")
	}

	return &Consumer{
		logger:     cfg.Logger.With("component", "consumer"),
		sink:       cfg.Sink,
		subscriber: cfg.Subscriber,
		metrics:    cfg.Metrics,
		done:       make(chan struct{}),
	}, nil
}

// Start waits for the subscriber to be ready and begins consuming in the background.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting consumer")

	if err := c.subscriber.WaitReady(ctx); err != nil {
		return fmt.Errorf("failed to wait for queue: %w", err)
	}

	deliveries, err := c.subscriber.Consume()
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.startOnce.Do(func() {
		c.started = true
		go c.processMessages(ctx, deliveries)
	})

	c.logger.Info("consumer started, waiting for messages")
	return nil
}

// processMessages handles deliveries until ctx is done or the channel is closed.
func (c *Consumer) processMessages(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer close(c.done)

	if c.metrics != nil {
		c.metrics.ActiveConsumers.Inc()
		defer c.metrics.ActiveConsumers.Dec()
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context canceled, stopping message processing")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("deliveries channel closed")
				return
			}
			c.handleDelivery(ctx, delivery)
		}
	}
}

// handleDelivery stores one reading. Payloads that can never be stored are acked and dropped;
// store failures are nacked for redelivery.
func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	if c.metrics != nil {
		timer := prometheus.NewTimer(c.metrics.ProcessingDuration)
		defer timer.ObserveDuration()
	}

	msg, err := message.DecodeReading(delivery.Body)
	if err != nil {
		c.logger.Error("failed to decode reading", "error", err)
		c.ack(delivery, outcomeMalformed)
		return
	}

	reading := monitor.Reading{
		AssetID:     msg.AssetID,
		Timestamp:   msg.Timestamp,
		Temperature: *msg.Temperature,
		Humidity:    *msg.Humidity,
	}
	if err := monitor.ValidateReading(reading); err != nil {
		c.logger.Warn("rejected invalid reading", "asset_id", reading.AssetID, "error", err)
		c.ack(delivery, outcomeRejected)
		return
	}

	if err := c.sink.CreateReading(ctx, &reading); err != nil {
		if monitor.IsNotFound(err) || monitor.IsValidation(err) {
			c.logger.Warn("rejected reading", "asset_id", reading.AssetID, "error", err)
			c.ack(delivery, outcomeRejected)
			return
		}
		c.logger.Error("failed to save reading", "asset_id", reading.AssetID, "error", err)
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			c.logger.Error("failed to nack message", "error", nackErr)
		}
		c.count(outcomeRequeued)
		return
	}

	c.ack(delivery, outcomeStored)
	if c.metrics != nil {
		c.metrics.LastReadingTime.Set(float64(reading.Timestamp.Unix()))
	}
	c.logger.Debug("reading saved",
		"reading_id", reading.ID,
		"asset_id", reading.AssetID,
		"timestamp", reading.Timestamp.Format(time.RFC3339),
	)
}

func (c *Consumer) ack(delivery amqp.Delivery, outcome string) {
	if err := delivery.Ack(false); err != nil {
		c.logger.Error("failed to ack message", "error", err)
	}
	c.count(outcome)
}

func (c *Consumer) count(outcome string) {
	if c.metrics != nil {
		c.metrics.MessagesTotal.WithLabelValues(outcome).Inc()
	}
}

// Stop closes the subscriber and waits for in-flight processing to finish.
func (c *Consumer) Stop() error {
	c.logger.Info("stopping consumer")

	if err := c.subscriber.Close(); err != nil && !errors.Is(err, mq.ErrAlreadyClosed) {
		return fmt.Errorf("failed to close mq client: %w", err)
	}

	c.startOnce.Do(func() {})
	if c.started {
		<-c.done
	}

	c.logger.Info("consumer stopped")
	return nil
}
