// Package main provides the entry point for the alert-worker, which refreshes alerts for
// users named on the refresh topic and notifies them about high-priority results.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/afikmenashe/travel-alerting/pkg/metrics"
	"github.com/afikmenashe/travel-alerting/pkg/shared"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/app"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/config"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/consumer"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/processor"
)

func main() {
	shared.LoadDotEnv()

	cfg := &config.WorkerConfig{}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	shared.SetupLogging(cfg.LogLevel)

	slog.Info("Starting alert-worker",
		"kafka_brokers", cfg.KafkaBrokers,
		"refresh_topic", cfg.RefreshTopic,
		"consumer_group_id", cfg.ConsumerGroupID,
		"notify_min_priority", cfg.NotifyMinPriority,
		"store_backend", cfg.StoreBackend,
		"postgres_dsn", shared.MaskDSN(cfg.PostgresDSN),
		"redis_addr", cfg.RedisAddr,
		"notify_transports", cfg.Transports(),
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

	slog.Info("Connecting to Redis for metrics", "addr", cfg.RedisAddr)
	redisClient, err := shared.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		slog.Info("Tip: Start Redis with 'docker compose up -d redis' or ensure Redis is running")
		os.Exit(1)
	}
	defer redisClient.Close()

	collector := metrics.NewCollector("alert-worker", redisClient)
	collector.Start(ctx)
	defer collector.Stop()

	engine, err := app.Build(ctx, cfg.Config, collector)
	if err != nil {
		slog.Error("Failed to initialize alert engine", "error", err)
		slog.Info("Tip: Start the store with 'docker compose up -d postgres redis'")
		os.Exit(1)
	}
	defer engine.Close()

	slog.Info("Connecting to Kafka consumer", "topic", cfg.RefreshTopic)
	kafkaConsumer, err := consumer.NewConsumer(cfg.KafkaBrokers, cfg.RefreshTopic, cfg.ConsumerGroupID)
	if err != nil {
		slog.Error("Failed to create Kafka consumer", "error", err)
		slog.Info("Tip: Start Kafka with 'docker compose up -d kafka'")
		os.Exit(1)
	}
	defer kafkaConsumer.Close()
	slog.Info("Successfully connected to Kafka consumer")

	proc := processor.NewProcessorWithMetrics(
		kafkaConsumer,
		engine.Aggregator,
		engine.Store,
		engine.Notifier,
		engine.Store,
		cfg.NotifyMinPriority,
		collector,
	)
	if err := proc.ProcessRefreshes(ctx); err != nil {
		slog.Error("Refresh processing failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Alert-worker stopped")
}
