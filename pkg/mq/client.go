// Package mq provides a RabbitMQ client with automatic reconnection, publisher confirms
// and retrying publication, used to carry readings from producers to the ingest consumer.
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"

	"procodus.dev/climate-monitor/pkg/metrics"
)

const (
	// When reconnecting to the server after connection failure.
	reconnectDelay = 5 * time.Second

	// When setting up the channel after a channel exception.
	reInitDelay = 2 * time.Second

	initialBackoff    = 100 * time.Millisecond
	maxBackoff        = 10 * time.Second
	backoffMultiplier = 2

	// DefaultMaxAttempts bounds Publish retries when Config.MaxAttempts is zero.
	DefaultMaxAttempts = 5

	// DefaultPrefetch is the consumer prefetch count when Config.Prefetch is zero.
	DefaultPrefetch = 1
)

var (
	ErrNotConnected       = errors.New("not connected to a server")
	ErrAlreadyClosed      = errors.New("already closed")
	ErrShutdown           = errors.New("client is shutting down")
	ErrMaxRetriesExceeded = errors.New("maximum retry attempts exceeded")
)

// Config holds the configuration for a Client.
type Config struct {
	Logger  *slog.Logger
	Metrics *metrics.MQMetrics
	URL     string
	Queue   string
	// MaxAttempts bounds the number of Publish attempts.
	MaxAttempts int
	// Prefetch is the number of unacknowledged deliveries the broker sends ahead.
	Prefetch int
	// Durable declares a queue that survives broker restarts and publishes persistent messages.
	Durable bool
}

// Client is a RabbitMQ client bound to a single queue.
type Client struct {
	mu              sync.Mutex
	logger          *slog.Logger
	metrics         *metrics.MQMetrics
	connection      *amqp.Connection
	channel         *amqp.Channel
	done            chan struct{}
	ready           chan struct{}
	notifyConnClose chan *amqp.Error
	notifyChanClose chan *amqp.Error
	notifyConfirm   chan amqp.Confirmation
	queue           string
	maxAttempts     int
	prefetch        int
	durable         bool
	isReady         bool
	closed          bool
}

// New validates cfg and starts connecting to the broker in the background.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("mq config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq URL cannot be empty")
	}
	if cfg.Queue == "" {
		return nil, errors.New("queue name cannot be empty")
	}

	client := &Client{
		logger:      cfg.Logger.With("queue", cfg.Queue),
		metrics:     cfg.Metrics,
		queue:       cfg.Queue,
		maxAttempts: cfg.MaxAttempts,
		prefetch:    cfg.Prefetch,
		durable:     cfg.Durable,
		done:        make(chan struct{}),
		ready:       make(chan struct{}),
	}
	if client.maxAttempts <= 0 {
		client.maxAttempts = DefaultMaxAttempts
	}
	if client.prefetch <= 0 {
		client.prefetch = DefaultPrefetch
	}

	go client.handleReconnect(cfg.URL)
	return client, nil
}

// handleReconnect waits for a connection error and then keeps reconnecting until Close.
func (c *Client) handleReconnect(addr string) {
	for {
		c.setReady(false)
		c.logger.Info("attempting to connect")

		if c.metrics != nil {
			c.metrics.ReconnectAttempts.WithLabelValues(c.queue).Inc()
		}

		conn, err := c.connect(addr)
		if err != nil {
			c.logger.Error("failed to connect, retrying", "error", err, "delay", reconnectDelay)

			select {
			case <-c.done:
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}

		if done := c.handleReInit(conn); done {
			return
		}
	}
}

func (c *Client) connect(addr string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(addr)
	if err != nil {
		c.setConnectionStatus(0)
		return nil, err
	}

	c.mu.Lock()
	c.connection = conn
	c.notifyConnClose = make(chan *amqp.Error, 1)
	c.connection.NotifyClose(c.notifyConnClose)
	c.mu.Unlock()

	c.logger.Info("connected")
	c.setConnectionStatus(1)
	return conn, nil
}

// handleReInit re-opens the channel after channel errors. It returns true on shutdown
// and false when the connection itself was lost.
func (c *Client) handleReInit(conn *amqp.Connection) bool {
	for {
		c.setReady(false)

		if err := c.init(conn); err != nil {
			c.logger.Error("failed to initialize channel, retrying", "error", err)

			select {
			case <-c.done:
				return true
			case <-c.notifyConnClose:
				c.logger.Info("connection closed, reconnecting")
				return false
			case <-time.After(reInitDelay):
			}
			continue
		}

		select {
		case <-c.done:
			return true
		case <-c.notifyConnClose:
			c.logger.Info("connection closed, reconnecting")
			return false
		case <-c.notifyChanClose:
			c.logger.Info("channel closed, re-running init")
		}
	}
}

// init opens a confirm-mode channel and declares the queue.
func (c *Client) init(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("failed to enable confirms: %w", err)
	}

	_, err = ch.QueueDeclare(
		c.queue,
		c.durable, // Durable
		false,     // Delete when unused
		false,     // Exclusive
		false,     // No-wait
		nil,       // Arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	c.mu.Lock()
	c.channel = ch
	c.notifyChanClose = make(chan *amqp.Error, 1)
	c.notifyConfirm = make(chan amqp.Confirmation, 1)
	c.channel.NotifyClose(c.notifyChanClose)
	c.channel.NotifyPublish(c.notifyConfirm)
	c.mu.Unlock()

	c.setReady(true)
	c.logger.Info("client init done")
	return nil
}

// setReady flips the ready flag. The ready channel is closed while the client is usable
// and replaced when it becomes unusable, so WaitReady can block on it.
func (c *Client) setReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ready == c.isReady {
		return
	}
	c.isReady = ready
	if ready {
		close(c.ready)
	} else {
		c.ready = make(chan struct{})
	}
}

func (c *Client) setConnectionStatus(v float64) {
	if c.metrics != nil {
		c.metrics.ConnectionStatus.WithLabelValues(c.queue).Set(v)
	}
}

// WaitReady blocks until the client has a usable channel, ctx is done or the client is closed.
func (c *Client) WaitReady(ctx context.Context) error {
	c.mu.Lock()
	ready := c.ready
	c.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-c.done:
		return ErrShutdown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish sends body and waits for the broker's confirmation. While the client is
// disconnected or the broker nacks, it retries with exponential backoff, giving up
// after the configured number of attempts.
func (c *Client) Publish(ctx context.Context, body []byte) error {
	if c.metrics != nil {
		timer := prometheus.NewTimer(c.metrics.PublishDuration.WithLabelValues(c.queue))
		defer timer.ObserveDuration()
	}

	backoff := initialBackoff
	for attempt := 0; ; attempt++ {
		if attempt >= c.maxAttempts {
			c.logger.Error("maximum retry attempts exceeded", "attempts", attempt)
			c.publishFailed("max_retries_exceeded")
			return ErrMaxRetriesExceeded
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				c.publishFailed("context_canceled")
				return ctx.Err()
			case <-c.done:
				return ErrShutdown
			case <-time.After(backoff):
			}
			backoff *= backoffMultiplier
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		confirms, err := c.publishOnce(ctx, body)
		if err != nil {
			c.logger.Debug("publish failed, backing off", "error", err, "attempt", attempt, "backoff", backoff)
			continue
		}

		select {
		case <-ctx.Done():
			c.publishFailed("context_canceled")
			return ctx.Err()
		case <-c.done:
			return ErrShutdown
		case confirm, ok := <-confirms:
			if !ok {
				c.logger.Warn("channel closed before confirmation", "attempt", attempt)
				continue
			}
			if !confirm.Ack {
				c.logger.Warn("publish not acknowledged", "delivery_tag", confirm.DeliveryTag, "attempt", attempt)
				continue
			}
			if c.metrics != nil {
				c.metrics.MessagesPublished.WithLabelValues(c.queue).Inc()
			}
			c.logger.Debug("publish confirmed", "delivery_tag", confirm.DeliveryTag, "attempt", attempt)
			return nil
		}
	}
}

// PublishJSON encodes v as JSON and publishes it.
func (c *Client) PublishJSON(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return c.Publish(ctx, body)
}

func (c *Client) publishOnce(ctx context.Context, body []byte) (<-chan amqp.Confirmation, error) {
	c.mu.Lock()
	if !c.isReady {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	ch, confirms := c.channel, c.notifyConfirm
	c.mu.Unlock()

	mode := amqp.Transient
	if c.durable {
		mode = amqp.Persistent
	}
	err := ch.PublishWithContext(
		ctx,
		"",      // Exchange
		c.queue, // Routing key
		false,   // Mandatory
		false,   // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: mode,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return nil, err
	}
	return confirms, nil
}

func (c *Client) publishFailed(reason string) {
	if c.metrics != nil {
		c.metrics.PublishFailures.WithLabelValues(c.queue, reason).Inc()
	}
}

// Consume starts delivering queue messages with manual acknowledgement.
func (c *Client) Consume() (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	if !c.isReady {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	ch := c.channel
	c.mu.Unlock()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	return ch.Consume(
		c.queue,
		"",    // Consumer
		false, // Auto-Ack
		false, // Exclusive
		false, // No-local
		false, // No-Wait
		nil,   // Args
	)
}

// Close stops reconnecting and shuts down the channel and connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrAlreadyClosed
	}
	c.closed = true
	close(c.done)

	var errs []error
	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.connection != nil && !c.connection.IsClosed() {
		if err := c.connection.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}

	c.isReady = false
	if c.metrics != nil {
		c.metrics.ConnectionStatus.WithLabelValues(c.queue).Set(0)
	}
	return errors.Join(errs...)
}
