package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/climate-monitor/internal/api"
	"procodus.dev/climate-monitor/internal/backend"
	"procodus.dev/climate-monitor/pkg/metrics"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the climate monitor server",
	Long: `Run the climate monitor server that:
- Consumes climate readings from RabbitMQ
- Persists assets, readings, rules and maintenance records to PostgreSQL
- Serves the JSON API, the dashboard page and Prometheus metrics over HTTP`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("rabbitmq-url", "amqp://localhost:5672", "RabbitMQ URL")
	serverCmd.Flags().String("queue-name", "climate-readings", "RabbitMQ queue name for readings")
	serverCmd.Flags().Int("http-port", 8080, "HTTP server port")
	serverCmd.Flags().String("jwt-secret", "", "HMAC secret for API tokens (empty disables authentication)")
	serverCmd.Flags().Int("dashboard-limit", api.DefaultDashboardLimit, "default number of recent readings on the dashboard")

	_ = viper.BindPFlag("server.rabbitmq.url", serverCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("server.rabbitmq.queue_name", serverCmd.Flags().Lookup("queue-name"))
	_ = viper.BindPFlag("server.http.port", serverCmd.Flags().Lookup("http-port"))
	_ = viper.BindPFlag("server.auth.jwt_secret", serverCmd.Flags().Lookup("jwt-secret"))
	_ = viper.BindPFlag("server.dashboard.limit", serverCmd.Flags().Lookup("dashboard-limit"))
}

func runServer(_ *cobra.Command, _ []string) error {
	logger := GetLogger("server")
	logger.Info("starting climate monitor server")

	db := dbConfig(logger)
	config := &backend.ServerConfig{
		Logger:         logger,
		APIMetrics:     metrics.NewAPIMetrics(nil, metrics.Namespace),
		IngestMetrics:  metrics.NewIngestMetrics(nil, metrics.Namespace),
		MQMetrics:      metrics.NewMQMetrics(nil, metrics.Namespace),
		MetricsHandler: metrics.Handler(),
		DBHost:         db.Host,
		DBPort:         db.Port,
		DBUser:         db.User,
		DBPassword:     db.Password,
		DBName:         db.DBName,
		DBSSLMode:      db.SSLMode,
		RabbitMQURL:    viper.GetString("server.rabbitmq.url"),
		QueueName:      viper.GetString("server.rabbitmq.queue_name"),
		HTTPPort:       viper.GetInt("server.http.port"),
		JWTSecret:      viper.GetString("server.auth.jwt_secret"),
		DashboardLimit: viper.GetInt("server.dashboard.limit"),
	}

	server, err := backend.NewServer(config)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		return err
	}

	logger.Info("server configuration",
		"db_host", config.DBHost,
		"db_port", config.DBPort,
		"db_name", config.DBName,
		"rabbitmq_url", config.RabbitMQURL,
		"queue", config.QueueName,
		"http_port", config.HTTPPort,
		"auth_enabled", config.JWTSecret != "",
		"dashboard_limit", config.DashboardLimit,
	)

	if err := server.Run(context.Background()); err != nil {
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}
