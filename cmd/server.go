package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"go.uber.org/zap"
	_ "time/tzdata"

	"WaterMonitoring.influxDB/internal/config"
	"WaterMonitoring.influxDB/internal/controller"
	"WaterMonitoring.influxDB/internal/logger"
	"WaterMonitoring.influxDB/internal/middleware"
	"WaterMonitoring.influxDB/internal/repository"
	"WaterMonitoring.influxDB/internal/routes"
	"WaterMonitoring.influxDB/internal/service"
	"WaterMonitoring.influxDB/internal/views"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}

	if err := run(cfg, zlog); err != nil {
		zlog.Error("Server stopped", zap.Error(err))
		_ = zlog.Sync()
		os.Exit(1)
	}
	_ = zlog.Sync()
}

func run(cfg config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	topology, err := config.LoadTopology(cfg.ConfigFile)
	if err != nil {
		return err
	}
	zlog.Info("Topology loaded", zap.String("file", cfg.ConfigFile), zap.Int("rooms", len(topology.Rooms)))

	if err := views.LoadTemplates(); err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	client, err := config.InitInfluxClient(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer client.Close()

	// Initialize repository, service, and controller
	repo := repository.NewInfluxDBRepository(client, cfg.InfluxOrg, cfg.StoreTimeout, zlog)
	if err := service.NewBootstrapService(repo, zlog).SelectDatabase(ctx, cfg.DBName); err != nil {
		return fmt.Errorf("selecting database %q: %w", cfg.DBName, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	normalizer := service.NewNormalizer(cfg.Timezone)
	readings := service.NewReadingService(repo, topology, normalizer, service.NewMetrics(reg), zlog)
	ctrl := controller.NewReadingController(readings, cfg.Debug, zlog)

	router := mux.NewRouter()
	routes.RegisterRoutes(router, ctrl, reg)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	handler := handlers.RecoveryHandler(handlers.PrintRecoveryStack(cfg.Debug))(
		handlers.ProxyHeaders(middleware.RequestLogger(zlog)(c.Handler(router))),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("Server is running", zap.String("addr", srv.Addr), zap.Bool("debug", cfg.Debug))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
