package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Options configures the Redis client shared by the report cache and posting locks.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// New creates a Redis client and verifies the server answers.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("platform/cache: address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := Checker(client).Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// HealthCheck adapts a Redis client to the router's readiness probe.
type HealthCheck struct {
	client redis.UniversalClient
}

// Checker wraps client for /healthz.
func Checker(client redis.UniversalClient) HealthCheck {
	return HealthCheck{client: client}
}

// Ping issues PING with a bounded timeout.
func (h HealthCheck) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("platform/cache: ping: %w", err)
	}
	return nil
}
