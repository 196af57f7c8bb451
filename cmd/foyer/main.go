package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"foyer/internal/amqp"
	"foyer/internal/cache"
	"foyer/internal/config"
	apphttp "foyer/internal/http"
	"foyer/internal/log"
	"foyer/internal/rates"
	"foyer/internal/services"
	"foyer/internal/storage"
)

func main() {
	// Load .env for local development; production supplies real env vars.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

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

	// Publish sync messages when AMQP is reachable; otherwise run local-only.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	cacheManager := cache.NewManager()

	ratesClient := rates.NewClient(cfg.RatesURL, cfg.RatesTimeout)
	ratesClient.RegisterCache(cacheManager)

	balances := services.NewBalanceService(repo, ratesClient)
	projections := services.NewProjectionService(repo)
	transactions := services.NewTransactionService(repo, publisher)
	transactions.EnforceTemplateWindow(cfg.EnforceTemplateWindow)

	srv := apphttp.NewServer(":"+cfg.Port, balances, projections, transactions)
	srv.RegisterCache(cacheManager)
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting foyer server",
		"port", cfg.Port,
		"db", cfg.SQLiteDBPath,
		"display_currency", cfg.DefaultDisplayCurrency)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
