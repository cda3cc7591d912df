// Package producer generates synthetic climate readings and publishes them to the reading queue.
package producer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/pkg/generator"
	"procodus.dev/climate-monitor/pkg/message"
	"procodus.dev/climate-monitor/pkg/metrics"
	"procodus.dev/climate-monitor/pkg/mq"
)

// Config holds the configuration for a single Producer.
type Config struct {
	Publisher mq.Publisher
	Generator *generator.Generator
	// Metrics is optional.
	Metrics *metrics.GeneratorMetrics
	Assets  []monitor.Asset
	Reading generator.ReadingConfig
}

type unit struct {
	source *generator.ReadingSource
	asset  monitor.Asset
}

// Producer publishes readings for a fixed set of assets. It is not safe for concurrent use.
type Producer struct {
	publisher mq.Publisher
	metrics   *metrics.GeneratorMetrics
	units     []unit
	next      int
}

// NewProducer creates a producer with one reading source per asset.
func NewProducer(cfg *Config) (*Producer, error) {
	if cfg == nil {
		return nil, errors.New("producer config cannot be nil")
	}
	if cfg.Publisher == nil {
		return nil, errors.New("publisher cannot be nil")
	}
	if cfg.Generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if len(cfg.Assets) == 0 {
		return nil, errors.New("at least one asset is required")
	}

	p := &Producer{
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		units:     make([]unit, 0, len(cfg.Assets)),
	}
	for _, a := range cfg.Assets {
		p.units = append(p.units, unit{asset: a, source: cfg.Generator.Readings(cfg.Reading)})
	}
	return p, nil
}

// AssetIDs returns the ids of the assets this producer publishes for.
func (p *Producer) AssetIDs() []uint {
	ids := make([]uint, len(p.units))
	for i, u := range p.units {
		ids[i] = u.asset.ID
	}
	return ids
}

// PublishNext publishes one reading for the next asset in round-robin order.
func (p *Producer) PublishNext(ctx context.Context, now time.Time) error {
	u := p.units[p.next]
	p.next = (p.next + 1) % len(p.units)

	sample := u.source.Next(now)
	msg := message.NewReading(u.asset.ID, sample.Timestamp, sample.Temperature, sample.Humidity)
	if err := p.publisher.PublishJSON(ctx, msg); err != nil {
		if p.metrics != nil {
			p.metrics.GenerationFailures.WithLabelValues("publish").Inc()
		}
		return fmt.Errorf("failed to publish reading for asset %d: %w", u.asset.ID, err)
	}

	if p.metrics != nil {
		p.metrics.ReadingsGenerated.With(prometheus.Labels{"location": u.asset.Location}).Inc()
		if sample.Excursion {
			p.metrics.OutOfRangeReadings.Inc()
		}
	}
	return nil
}
