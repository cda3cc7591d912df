package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"procodus.dev/climate-monitor/internal/api"
	"procodus.dev/climate-monitor/internal/auth"
	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/internal/store"
	"procodus.dev/climate-monitor/pkg/metrics"
	"procodus.dev/climate-monitor/pkg/mq"
)

var _ api.Backend = (*store.Store)(nil)

// Server represents the backend server that manages the database, the reading consumer and the HTTP API.
type Server struct {
	logger     *slog.Logger
	db         *gorm.DB
	consumer   *Consumer
	httpServer *http.Server
	config     *ServerConfig
}

// ServerConfig holds the configuration for the Server.
type ServerConfig struct {
	Logger *slog.Logger

	// Metrics are optional; nil disables instrumentation of that component.
	APIMetrics    *metrics.APIMetrics
	IngestMetrics *metrics.IngestMetrics
	MQMetrics     *metrics.MQMetrics
	// MetricsHandler is served on /metrics when set.
	MetricsHandler http.Handler

	// Database configuration
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// RabbitMQ configuration
	RabbitMQURL string
	QueueName   string

	// JWTSecret enables bearer-token authentication on the API when set.
	JWTSecret string

	// HTTP configuration
	HTTPPort int

	// Database port
	DBPort int

	// DashboardLimit is the default number of recent readings on the dashboard.
	DashboardLimit int
}

// NewServer creates a new Server instance.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.RabbitMQURL == "" {
		return nil, errors.New("rabbitmq URL cannot be empty")
	}

	if cfg.QueueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}

	if cfg.DBHost == "" {
		return nil, errors.New("database host cannot be empty")
	}

	if cfg.DBPort <= 0 {
		return nil, errors.New("database port must be positive")
	}

	if cfg.DBUser == "" {
		return nil, errors.New("database user cannot be empty")
	}

	if cfg.DBName == "" {
		return nil, errors.New("database name cannot be empty")
	}

	if cfg.HTTPPort <= 0 {
		return nil, errors.New("HTTP port must be positive")
	}

	if cfg.DashboardLimit < 0 {
		return nil, errors.New("dashboard limit cannot be negative")
	}

	if cfg.DashboardLimit > monitor.MaxRecentReadings {
		return nil, fmt.Errorf("dashboard limit cannot exceed %d", monitor.MaxRecentReadings)
	}

	return &Server{
		logger: cfg.Logger,
		config: cfg,
	}, nil
}

// Run starts the backend server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting backend server")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	// Initialize database
	db, err := store.NewDB(&store.DBConfig{
		Host:     s.config.DBHost,
		Port:     s.config.DBPort,
		User:     s.config.DBUser,
		Password: s.config.DBPassword,
		DBName:   s.config.DBName,
		SSLMode:  s.config.DBSSLMode,
		Logger:   s.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	s.db = db

	st, err := store.New(db)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	s.logger.Info("database initialized successfully")

	// Initialize consumer
	subscriber, err := mq.New(&mq.Config{
		Logger:  s.logger,
		Metrics: s.config.MQMetrics,
		URL:     s.config.RabbitMQURL,
		Queue:   s.config.QueueName,
		Durable: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize mq client: %w", err)
	}

	consumer, err := NewConsumer(&ConsumerConfig{
		Logger:     s.logger,
		Sink:       st,
		Subscriber: subscriber,
		Metrics:    s.config.IngestMetrics,
	})
	if err != nil {
		_ = subscriber.Close()
		return fmt.Errorf("failed to initialize consumer: %w", err)
	}
	s.consumer = consumer

	// Start consumer
	if err := s.consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	handler, err := s.newAPI(st)
	if err != nil {
		return fmt.Errorf("failed to initialize api: %w", err)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "address", s.httpServer.Addr)

	// Start HTTP server in goroutine
	httpErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(httpErr)
	}()

	s.logger.Info("backend server started successfully")

	// Wait for shutdown signal or HTTP error
	select {
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case <-ctx.Done():
		s.logger.Info("context canceled")
	case err := <-httpErr:
		if err != nil {
			s.logger.Error("HTTP server error", "error", err)
			cancel()
			if shutdownErr := s.Shutdown(); shutdownErr != nil {
				return errors.Join(err, shutdownErr)
			}
			return err
		}
	}

	// Shutdown
	return s.Shutdown()
}

func (s *Server) newAPI(st *store.Store) (http.Handler, error) {
	authenticator := auth.NewAuthenticator(s.config.JWTSecret, s.logger)
	if !authenticator.Enabled() {
		s.logger.Warn("no JWT secret configured, API authentication is disabled")
	}

	a, err := api.New(&api.Config{
		Logger:  s.logger,
		Backend: st,
		Snapshot: func(ctx context.Context, fn func(api.Backend) error) error {
			return st.ReadOnly(ctx, func(tx *store.Store) error { return fn(tx) })
		},
		Auth:           authenticator,
		Metrics:        s.config.APIMetrics,
		MetricsHandler: s.config.MetricsHandler,
		DashboardLimit: s.config.DashboardLimit,
	})
	if err != nil {
		return nil, err
	}
	return a.Handler(), nil
}

// Shutdown gracefully shuts down the server. It is safe to call more than once.
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down backend server")

	var shutdownErr error

	// Stop HTTP server
	if s.httpServer != nil {
		s.logger.Info("stopping HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("failed to stop HTTP server", "error", err)
			shutdownErr = fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		cancel()
		s.httpServer = nil
	}

	// Stop consumer
	if s.consumer != nil {
		s.logger.Info("stopping consumer")
		if err := s.consumer.Stop(); err != nil {
			s.logger.Error("failed to stop consumer", "error", err)
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("consumer shutdown error: %w", err))
		}
		s.consumer = nil
	}

	// Close database
	if s.db != nil {
		if err := store.CloseDB(s.db, s.logger); err != nil {
			s.logger.Error("failed to close database", "error", err)
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("database close error: %w", err))
		}
		s.db = nil
	}

	if shutdownErr != nil {
		s.logger.Error("backend server shutdown completed with errors", "error", shutdownErr)
		return shutdownErr
	}

	s.logger.Info("backend server shutdown completed successfully")
	return nil
}
