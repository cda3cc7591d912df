package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/pkg/generator"
	"procodus.dev/climate-monitor/pkg/metrics"
	"procodus.dev/climate-monitor/pkg/mq"
)

// DialFunc opens the publisher used by one producer.
type DialFunc func(id int) (mq.Publisher, error)

// ServerConfig holds the configuration for the producer server.
type ServerConfig struct {
	// Logger is the structured logger
	Logger *slog.Logger
	// Catalog is where assets are read from and seeded into
	Catalog AssetCatalog
	// Dial opens a publisher per producer. Defaults to a RabbitMQ client on RabbitMQURL/QueueName.
	Dial DialFunc
	// Metrics is the optional Prometheus metrics collector
	Metrics *metrics.GeneratorMetrics
	// MQMetrics is the optional Prometheus metrics collector for MQ operations
	MQMetrics *metrics.MQMetrics
	// RabbitMQURL is the connection string for RabbitMQ
	RabbitMQURL string
	// QueueName is the name of the queue to publish readings to
	QueueName string
	// Interval is the time between readings of one producer
	Interval time.Duration
	// ProducerCount is the number of concurrent producers
	ProducerCount int
	// AssetCount is the minimum number of assets to seed
	AssetCount int
	// Seed fixes the synthetic data sequence; zero picks a random one
	Seed uint64
	// ExcursionRate is the probability that a reading leaves the nominal band
	ExcursionRate float64
}

// Server runs several producers, each publishing for its share of the assets.
type Server struct {
	logger     *slog.Logger
	config     *ServerConfig
	publishers []mq.Publisher
	wg         sync.WaitGroup
}

var (
	errInvalidProducerCount = errors.New("producer count must be greater than 0")
	errInvalidInterval      = errors.New("interval must be greater than 0")
	errLoggerRequired       = errors.New("logger is required")
	errCatalogRequired      = errors.New("asset catalog is required")
)

// NewServer creates a new producer server and opens one publisher per producer.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config cannot be nil")
	}
	if cfg.ProducerCount <= 0 {
		return nil, errInvalidProducerCount
	}
	if cfg.Interval <= 0 {
		return nil, errInvalidInterval
	}
	if cfg.Logger == nil {
		return nil, errLoggerRequired
	}
	if cfg.Catalog == nil {
		return nil, errCatalogRequired
	}

	s := &Server{
		config:     cfg,
		logger:     cfg.Logger,
		publishers: make([]mq.Publisher, 0, cfg.ProducerCount),
	}

	dial := cfg.Dial
	if dial == nil {
		dial = s.dialRabbitMQ
	}
	for i := range cfg.ProducerCount {
		pub, err := dial(i)
		if err != nil {
			s.closePublishers()
			return nil, fmt.Errorf("failed to open publisher %d: %w", i, err)
		}
		s.publishers = append(s.publishers, pub)
	}

	return s, nil
}

func (s *Server) dialRabbitMQ(id int) (mq.Publisher, error) {
	return mq.New(&mq.Config{
		Logger: s.logger.With(
			slog.String("component", "mq-client"),
			slog.Int("producer_id", id),
		),
		Metrics: s.config.MQMetrics,
		URL:     s.config.RabbitMQURL,
		Queue:   s.config.QueueName,
		Durable: true,
	})
}

// Run seeds assets, starts all producers and blocks until a shutdown signal or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.closePublishers()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	assetCount := max(s.config.AssetCount, s.config.ProducerCount)
	assets, err := SeedAssets(ctx, s.config.Catalog, generator.New(s.config.Seed), assetCount,
		s.config.Metrics, s.logger)
	if err != nil {
		return err
	}

	producers, err := s.buildProducers(assets)
	if err != nil {
		return err
	}

	for i, p := range producers {
		s.wg.Add(1)
		go s.runProducer(ctx, i, p)
	}

	s.logger.Info("producer server started",
		"producer_count", len(producers),
		"asset_count", len(assets),
		"interval", s.config.Interval,
	)

	select {
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case <-ctx.Done():
		s.logger.Info("context canceled, shutting down")
	}

	s.logger.Info("waiting for producers to shut down...")
	s.wg.Wait()
	s.logger.Info("producer server stopped")
	return nil
}

// buildProducers deals the assets out to the producers round-robin.
func (s *Server) buildProducers(assets []monitor.Asset) ([]*Producer, error) {
	shares := make([][]monitor.Asset, len(s.publishers))
	for i, a := range assets {
		shares[i%len(shares)] = append(shares[i%len(shares)], a)
	}

	producers := make([]*Producer, 0, len(shares))
	for i, share := range shares {
		if len(share) == 0 {
			continue
		}
		var seed uint64
		if s.config.Seed != 0 {
			seed = s.config.Seed + uint64(i) + 1
		}
		p, err := NewProducer(&Config{
			Publisher: s.publishers[i],
			Generator: generator.New(seed),
			Metrics:   s.config.Metrics,
			Assets:    share,
			Reading:   generator.ReadingConfig{ExcursionRate: s.config.ExcursionRate},
		})
		if err != nil {
			return nil, err
		}
		producers = append(producers, p)
		s.logger.Info("created producer instance", "producer_id", i, "asset_ids", p.AssetIDs())
	}
	return producers, nil
}

// runProducer publishes one reading per tick until ctx is done.
func (s *Server) runProducer(ctx context.Context, id int, producer *Producer) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	producerLogger := s.logger.With(slog.Int("producer_id", id))
	producerLogger.Info("producer started")

	for {
		select {
		case <-ctx.Done():
			producerLogger.Info("producer shutting down")
			return

		case now := <-ticker.C:
			if err := producer.PublishNext(ctx, now); err != nil {
				if ctx.Err() != nil {
					return
				}
				producerLogger.Error("failed to publish reading", "error", err)
				continue
			}
			producerLogger.Debug("reading published")
		}
	}
}

// closePublishers closes all publishers concurrently.
func (s *Server) closePublishers() {
	var wg sync.WaitGroup
	for i, pub := range s.publishers {
		wg.Add(1)
		go func(id int, p mq.Publisher) {
			defer wg.Done()
			if err := p.Close(); err != nil && !errors.Is(err, mq.ErrAlreadyClosed) {
				s.logger.Error("failed to close publisher", "producer_id", id, "error", err)
				return
			}
			s.logger.Debug("publisher closed", "producer_id", id)
		}(i, pub)
	}
	wg.Wait()
}

// Shutdown closes all publishers. Producers still running fail their next publish.
func (s *Server) Shutdown() error {
	s.logger.Info("shutdown requested")
	s.closePublishers()
	return nil
}
