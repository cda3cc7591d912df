package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/climate-monitor/internal/producer"
	"procodus.dev/climate-monitor/internal/store"
	"procodus.dev/climate-monitor/pkg/generator"
	"procodus.dev/climate-monitor/pkg/metrics"
)

var generatorCmd = &cobra.Command{
	Use:   "generator",
	Short: "Run the synthetic reading generator",
	Long: `Run the data generator that:
- Seeds fake assets into PostgreSQL until the requested count exists
- Generates synthetic temperature and humidity readings with occasional excursions
- Publishes the readings to RabbitMQ
- Supports multiple concurrent producers`,
	RunE: runGenerator,
}

func init() {
	rootCmd.AddCommand(generatorCmd)

	generatorCmd.Flags().String("rabbitmq-url", "amqp://localhost:5672", "RabbitMQ URL")
	generatorCmd.Flags().String("queue-name", "climate-readings", "RabbitMQ queue name for readings")
	generatorCmd.Flags().Int("producer-count", 5, "Number of concurrent producers")
	generatorCmd.Flags().Int("asset-count", 10, "Minimum number of assets to seed")
	generatorCmd.Flags().Duration("interval", 5*time.Second, "Interval between readings of one producer")
	generatorCmd.Flags().Uint64("seed", 0, "Seed for the synthetic data (0 picks a random seed)")
	generatorCmd.Flags().Float64("excursion-rate", generator.DefaultReadingConfig().ExcursionRate,
		"Probability that a reading leaves the nominal band")
	generatorCmd.Flags().Int("metrics-port", 0, "Port to serve Prometheus metrics on (0 disables)")

	_ = viper.BindPFlag("generator.rabbitmq.url", generatorCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("generator.rabbitmq.queue_name", generatorCmd.Flags().Lookup("queue-name"))
	_ = viper.BindPFlag("generator.producer_count", generatorCmd.Flags().Lookup("producer-count"))
	_ = viper.BindPFlag("generator.asset_count", generatorCmd.Flags().Lookup("asset-count"))
	_ = viper.BindPFlag("generator.interval", generatorCmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("generator.seed", generatorCmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("generator.excursion_rate", generatorCmd.Flags().Lookup("excursion-rate"))
	_ = viper.BindPFlag("generator.metrics_port", generatorCmd.Flags().Lookup("metrics-port"))
}

func runGenerator(_ *cobra.Command, _ []string) error {
	logger := GetLogger("generator")
	logger.Info("starting generator service")

	db, st, err := openStore(logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer func() { _ = store.CloseDB(db, logger) }()

	config := &producer.ServerConfig{
		Logger:        logger,
		Catalog:       st,
		Metrics:       metrics.NewGeneratorMetrics(nil, metrics.Namespace),
		MQMetrics:     metrics.NewMQMetrics(nil, metrics.Namespace),
		RabbitMQURL:   viper.GetString("generator.rabbitmq.url"),
		QueueName:     viper.GetString("generator.rabbitmq.queue_name"),
		ProducerCount: viper.GetInt("generator.producer_count"),
		AssetCount:    viper.GetInt("generator.asset_count"),
		Interval:      viper.GetDuration("generator.interval"),
		Seed:          viper.GetUint64("generator.seed"),
		ExcursionRate: viper.GetFloat64("generator.excursion_rate"),
	}

	server, err := producer.NewServer(config)
	if err != nil {
		logger.Error("failed to create generator server", "error", err)
		return err
	}

	logger.Info("generator server configuration",
		"rabbitmq_url", config.RabbitMQURL,
		"queue", config.QueueName,
		"producer_count", config.ProducerCount,
		"asset_count", config.AssetCount,
		"interval", config.Interval,
		"excursion_rate", config.ExcursionRate,
	)

	if port := viper.GetInt("generator.metrics_port"); port > 0 {
		stop := serveMetrics(logger, port)
		defer stop()
	}

	if err := server.Run(context.Background()); err != nil {
		logger.Error("generator server error", "error", err)
		return err
	}

	logger.Info("generator server stopped")
	return nil
}

// serveMetrics exposes the global registry on port until the returned stop func is called.
func serveMetrics(logger *slog.Logger, port int) func() {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
