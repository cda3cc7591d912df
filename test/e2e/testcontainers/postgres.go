package testcontainers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"procodus.dev/climate-monitor/internal/store"
)

// PostgresConfig holds configuration for PostgreSQL test container.
type PostgresConfig struct {
	// User is the PostgreSQL username (default: postgres)
	User string
	// Password is the PostgreSQL password (default: postgres)
	Password string
	// Database is the database name (default: climate)
	Database string
	// ContainerName is the name of the container (optional)
	ContainerName string
}

// Postgres is a running PostgreSQL container.
type Postgres struct {
	Container testcontainers.Container
	Host      string
	User      string
	Password  string
	Database  string
	Port      int
}

// DBConfig returns the store configuration that connects to the container.
func (p *Postgres) DBConfig(logger *slog.Logger) *store.DBConfig {
	return &store.DBConfig{
		Logger:   logger,
		Host:     p.Host,
		Port:     p.Port,
		User:     p.User,
		Password: p.Password,
		DBName:   p.Database,
		SSLMode:  "disable",
	}
}

// Terminate stops and removes the container.
func (p *Postgres) Terminate(ctx context.Context) error {
	if p == nil || p.Container == nil {
		return nil
	}
	return p.Container.Terminate(ctx)
}

// StartPostgres starts a PostgreSQL container for testing.
func StartPostgres(ctx context.Context, config *PostgresConfig) (*Postgres, error) {
	if config == nil {
		config = &PostgresConfig{}
	}
	if config.User == "" {
		config.User = "postgres"
	}
	if config.Password == "" {
		config.Password = "postgres"
	}
	if config.Database == "" {
		config.Database = "climate"
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			),
			Env: map[string]string{
				"POSTGRES_USER":     config.User,
				"POSTGRES_PASSWORD": config.Password,
				"POSTGRES_DB":       config.Database,
			},
			Name: config.ContainerName,
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, terminateWith(ctx, container, fmt.Errorf("failed to get container host: %w", err))
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, terminateWith(ctx, container, fmt.Errorf("failed to get container port: %w", err))
	}

	return &Postgres{
		Container: container,
		Host:      host,
		Port:      port.Int(),
		User:      config.User,
		Password:  config.Password,
		Database:  config.Database,
	}, nil
}

// terminateWith removes a half-started container and returns err, annotated with any cleanup failure.
func terminateWith(ctx context.Context, container testcontainers.Container, err error) error {
	if termErr := container.Terminate(ctx); termErr != nil {
		return fmt.Errorf("%w (cleanup error: %w)", err, termErr)
	}
	return err
}
