// Package testcontainers starts the PostgreSQL and RabbitMQ containers used by the integration and e2e suites.
package testcontainers

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RabbitMQConfig holds configuration for RabbitMQ test container.
type RabbitMQConfig struct {
	// User is the RabbitMQ username (default: guest)
	User string
	// Password is the RabbitMQ password (default: guest)
	Password string
	// ContainerName is the name of the container (optional)
	ContainerName string
}

// RabbitMQ is a running RabbitMQ container.
type RabbitMQ struct {
	Container testcontainers.Container
	// URL is the AMQP URL clients connect with.
	URL string
}

// Terminate stops and removes the container.
func (r *RabbitMQ) Terminate(ctx context.Context) error {
	if r == nil || r.Container == nil {
		return nil
	}
	return r.Container.Terminate(ctx)
}

// StartRabbitMQ starts a RabbitMQ container for testing.
func StartRabbitMQ(ctx context.Context, config *RabbitMQConfig) (*RabbitMQ, error) {
	if config == nil {
		config = &RabbitMQConfig{}
	}
	if config.User == "" {
		config.User = "guest"
	}
	if config.Password == "" {
		config.Password = "guest"
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5672/tcp"),
				wait.ForLog("Server startup complete"),
			),
			Env: map[string]string{
				"RABBITMQ_DEFAULT_USER": config.User,
				"RABBITMQ_DEFAULT_PASS": config.Password,
			},
			Name: config.ContainerName,
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start RabbitMQ container: %w", err)
	}

	endpoint, err := container.PortEndpoint(ctx, "5672/tcp", "")
	if err != nil {
		return nil, terminateWith(ctx, container, fmt.Errorf("failed to get container endpoint: %w", err))
	}

	return &RabbitMQ{
		Container: container,
		URL:       fmt.Sprintf("amqp://%s:%s@%s/", config.User, config.Password, endpoint),
	}, nil
}
