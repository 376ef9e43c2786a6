package config

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"go.uber.org/zap"
)

// InitInfluxClient creates the InfluxDB client and checks the connection health.
// With no token configured it signs in with the configured user and password.
// The caller owns the client and must Close it on shutdown.
func InitInfluxClient(ctx context.Context, cfg Config, log *zap.Logger) (influxdb2.Client, error) {
	timeoutSeconds := uint(cfg.StoreTimeout.Seconds())
	if timeoutSeconds == 0 {
		timeoutSeconds = 1
	}
	opts := influxdb2.DefaultOptions().SetHTTPRequestTimeout(timeoutSeconds)
	client := influxdb2.NewClientWithOptions(cfg.InfluxURL(), cfg.InfluxToken, opts)

	healthCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	health, err := client.Health(healthCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB at %s: %w", cfg.InfluxURL(), err)
	}
	if health.Status != domain.HealthCheckStatusPass {
		client.Close()
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return nil, fmt.Errorf("InfluxDB health check failed: %s", msg)
	}

	if cfg.InfluxToken == "" {
		// Without a token the client authenticates with a session cookie.
		signInCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
		if err := client.UsersAPI().SignIn(signInCtx, cfg.InfluxUser, cfg.InfluxPasswd); err != nil {
			client.Close()
			return nil, fmt.Errorf("signing in to InfluxDB as %q: %w", cfg.InfluxUser, err)
		}
		log.Info("Signed in to InfluxDB", zap.String("user", cfg.InfluxUser))
	}

	log.Info("Successfully connected to InfluxDB", zap.String("url", cfg.InfluxURL()))
	return client, nil
}
