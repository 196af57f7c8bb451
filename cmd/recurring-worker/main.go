package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"foyer/internal/amqp"
	"foyer/internal/config"
	"foyer/internal/log"
	"foyer/internal/services"
	"foyer/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Materialized transactions go through the same sync pipeline as
	// interactively created ones.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in SQLite-only mode", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	transactions := services.NewTransactionService(repo, publisher)
	materializer := services.NewMaterializer(repo, transactions, cfg.MaterializeInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := materializer.Start(ctx); err != nil {
		logger.Error("Failed to start materializer", "error", err)
		os.Exit(1)
	}

	logger.Info("Materializer running",
		"interval", cfg.MaterializeInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := materializer.Stop(stopCtx); err != nil {
		logger.Error("Materializer shutdown error", "error", err)
	}

	logger.Info("recurring-worker stopped gracefully")
}
