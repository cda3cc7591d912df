// Package mock provides test doubles for the mq package interfaces.
package mock

import (
	"context"
	"encoding/json"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"procodus.dev/climate-monitor/pkg/mq"
)

// Client is a test double implementing mq.Publisher and mq.Subscriber.
// It records calls and returns the configured errors.
type Client struct {
	mu sync.Mutex

	// PublishFunc is called when Publish is invoked. If nil, PublishError is returned.
	PublishFunc func(ctx context.Context, body []byte) error
	// PublishError is returned by Publish if PublishFunc is nil.
	PublishError error
	// Published holds the body of every Publish call.
	Published [][]byte

	// WaitReadyError is returned by WaitReady.
	WaitReadyError error

	// Deliveries is returned by Consume.
	Deliveries chan amqp.Delivery
	// ConsumeError is returned by Consume.
	ConsumeError error
	// ConsumeCalls counts Consume calls.
	ConsumeCalls int

	// CloseError is returned by Close.
	CloseError error
	// CloseCalls counts Close calls.
	CloseCalls int
}

// NewClient creates a Client with an unbuffered delivery channel and no errors.
func NewClient() *Client {
	return &Client{Deliveries: make(chan amqp.Delivery)}
}

// Publish implements mq.Publisher.
func (c *Client) Publish(ctx context.Context, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Published = append(c.Published, body)
	if c.PublishFunc != nil {
		return c.PublishFunc(ctx, body)
	}
	return c.PublishError
}

// PublishJSON implements mq.Publisher.
func (c *Client) PublishJSON(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Publish(ctx, body)
}

// WaitReady implements mq.Subscriber.
func (c *Client) WaitReady(context.Context) error {
	return c.WaitReadyError
}

// Consume implements mq.Subscriber.
func (c *Client) Consume() (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ConsumeCalls++
	if c.ConsumeError != nil {
		return nil, c.ConsumeError
	}
	return c.Deliveries, nil
}

// Close implements mq.Publisher and mq.Subscriber.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.CloseCalls++
	return c.CloseError
}

// PublishedCount returns the number of Publish calls so far.
func (c *Client) PublishedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Published)
}

// Acknowledger records Ack, Nack and Reject calls made on deliveries.
type Acknowledger struct {
	mu      sync.Mutex
	Acks    []uint64
	Nacks   []uint64
	Requeue []bool
}

// Ack implements amqp.Acknowledger.
func (a *Acknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Acks = append(a.Acks, tag)
	return nil
}

// Nack implements amqp.Acknowledger.
func (a *Acknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Nacks = append(a.Nacks, tag)
	a.Requeue = append(a.Requeue, requeue)
	return nil
}

// Reject implements amqp.Acknowledger.
func (a *Acknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

// Counts returns the number of acks and nacks recorded.
func (a *Acknowledger) Counts() (acks, nacks int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Acks), len(a.Nacks)
}

var (
	_ mq.Publisher      = (*Client)(nil)
	_ mq.Subscriber     = (*Client)(nil)
	_ amqp.Acknowledger = (*Acknowledger)(nil)
)
