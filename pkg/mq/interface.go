package mq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends messages to a queue.
type Publisher interface {
	// Publish sends body and waits for the broker's confirmation, retrying with backoff
	// while the connection is being re-established.
	Publish(ctx context.Context, body []byte) error
	// PublishJSON encodes v as JSON and publishes it.
	PublishJSON(ctx context.Context, v any) error
	Close() error
}

// Subscriber receives messages from a queue.
type Subscriber interface {
	// WaitReady blocks until the client has a usable channel or ctx is done.
	WaitReady(ctx context.Context) error
	// Consume starts delivering queue messages. Every delivery must be acked or nacked.
	Consume() (<-chan amqp.Delivery, error)
	Close() error
}

var (
	_ Publisher  = (*Client)(nil)
	_ Subscriber = (*Client)(nil)
)
