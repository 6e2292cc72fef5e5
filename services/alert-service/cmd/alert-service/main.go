// Package main provides the CLI entry point for the alert-service.
// It parses configuration, wires the alert engine and serves the HTTP API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/afikmenashe/travel-alerting/pkg/metrics"
	"github.com/afikmenashe/travel-alerting/pkg/shared"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/app"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/config"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/handlers"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/router"
)

func main() {
	shared.LoadDotEnv()

	cfg := &config.ServiceConfig{}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	shared.SetupLogging(cfg.LogLevel)

	slog.Info("Starting alert-service",
		"http_port", cfg.HTTPPort,
		"store_backend", cfg.StoreBackend,
		"postgres_dsn", shared.MaskDSN(cfg.PostgresDSN),
		"redis_addr", cfg.RedisAddr,
		"rules_file", cfg.RulesFile,
		"notify_transports", cfg.Transports(),
		"amadeus_client_id", shared.MaskSecret(cfg.AmadeusClientID),
		"openweather_key", shared.MaskSecret(cfg.OpenWeatherKey),
		"weatherapi_key", shared.MaskSecret(cfg.WeatherAPIKey),
		"newsapi_key", shared.MaskSecret(cfg.NewsAPIKey),
		"documents_bucket", cfg.DocumentsBucket,
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Service metrics are reported to Redis
	slog.Info("Connecting to Redis for metrics", "addr", cfg.RedisAddr)
	redisClient, err := shared.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		slog.Info("Tip: Start Redis with 'docker compose up -d redis' or ensure Redis is running")
		os.Exit(1)
	}
	defer redisClient.Close()

	collector := metrics.NewCollector("alert-service", redisClient)
	collector.Start(ctx)
	defer collector.Stop()

	engine, err := app.Build(ctx, cfg.Config, collector)
	if err != nil {
		slog.Error("Failed to initialize alert engine", "error", err)
		slog.Info("Tip: Start the store with 'docker compose up -d postgres redis' or use -store-backend=memory")
		os.Exit(1)
	}
	defer engine.Close()

	opts := []handlers.Option{
		handlers.WithMetrics(collector),
		handlers.WithMetricsReader(metrics.NewReader(redisClient)),
	}
	if engine.Uploads != nil {
		opts = append(opts, handlers.WithDocuments(engine.Documents, engine.Uploads))
	} else {
		opts = append(opts, handlers.WithDocuments(engine.Documents, nil))
	}
	h := handlers.NewHandlers(engine.Aggregator, engine.Trips, engine.Notifier, engine.Store, opts...)

	server := router.NewServer(cfg.HTTPPort, h, cfg.AllowedOrigins())

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down HTTP server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Error shutting down server", "error", err)
		}
		slog.Info("HTTP server stopped")
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Alert-service stopped")
}
