//go:build e2e

package e2e

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"WaterMonitoring.influxDB/internal/config"
	"WaterMonitoring.influxDB/internal/models"
	"WaterMonitoring.influxDB/internal/repository"
	"WaterMonitoring.influxDB/internal/service"
)

const (
	influxOrg   = "home"
	influxToken = "e2e-admin-token"
)

func TestInflux_bootstrapWriteAndReadBack(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg := startInflux(t, ctx)
	log := zap.NewNop()

	client, err := config.InitInfluxClient(ctx, cfg, log)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	repo := repository.NewInfluxDBRepository(client, cfg.InfluxOrg, cfg.StoreTimeout, log)
	require.NoError(t, service.NewBootstrapService(repo, log).SelectDatabase(ctx, "water-monitoring"))

	dbs, err := repo.Databases(ctx)
	require.NoError(t, err)
	assert.Contains(t, dbs, "water-monitoring")

	topology := models.Topology{Rooms: []models.Room{
		{Name: "kitchen", Meters: []models.Meter{{ID: 1, Name: "hot", Offset: 1.5}, {ID: 2, Name: "cold"}}},
		{Name: "bathroom", Meters: []models.Meter{{ID: 1, Name: "hot"}}},
	}}
	svc := service.NewReadingService(repo, topology, service.NewNormalizer(time.UTC), nil, log)

	before := svc.FetchAll(ctx)
	hot, ok := before.Get("kitchen", "hot")
	require.True(t, ok)
	assert.False(t, hot.Known)

	result, err := svc.Submit(ctx, models.ReadingInput{
		Date:   "2026-10-18",
		Time:   "08:30",
		Room:   "kitchen",
		Values: map[string]float64{"hot": 12.25, "cold": 0},
	})
	require.NoError(t, err)
	require.True(t, result.OK(), result.Message)

	after := svc.FetchAll(ctx)
	hot, _ = after.Get("kitchen", "hot")
	require.True(t, hot.Known)
	assert.Equal(t, 13.75, hot.Stored)
	assert.Equal(t, 12.25, hot.Display)

	cold, _ := after.Get("kitchen", "cold")
	assert.False(t, cold.Known, "zero readings are never stored")
	bathHot, _ := after.Get("bathroom", "hot")
	assert.False(t, bathHot.Known, "rooms sharing a meter name are independent")

	empty, err := svc.Submit(ctx, models.ReadingInput{
		Date: "2026-10-18", Time: "09:00", Room: "bathroom", Values: map[string]float64{"hot": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, models.WriteOutcomeRejected, empty.Outcome)

	require.NoError(t, svc.Health(ctx))
}

func startInflux(t *testing.T, ctx context.Context) config.Config {
	t.Helper()

	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "admin",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      "init",
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start influxdb container: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Terminate(context.Background())
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, "8086/tcp")
	require.NoError(t, err)
	port, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)

	return config.Config{
		InfluxIP:     host,
		InfluxPort:   port,
		InfluxToken:  influxToken,
		InfluxOrg:    influxOrg,
		DBName:       "water-monitoring",
		Timezone:     time.UTC,
		StoreTimeout: 10 * time.Second,
	}
}
