package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kakeibo/internal/amqp"
	"kakeibo/internal/config"
	applog "kakeibo/internal/log"
	gsheet "kakeibo/internal/sheets/google"
	"kakeibo/internal/storage"
	"kakeibo/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting kakeibo-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	loc := cfg.Location()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite journal holding the rows to sync
	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, loc)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	// Google Sheets client for the sync target
	sheetsClient, err := gsheet.NewFromEnv(ctx, loc)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	syncWorker := worker.NewSyncWorker(sqliteRepo, sheetsClient, cfg.SyncBatchSize)

	// On startup, process any pending transactions that might have been missed
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
		// Don't exit - continue with normal operation
	}

	// AMQP consumption is the fast path; without a broker the worker relies
	// on the periodic scan alone
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			err := amqpClient.ConsumeTransactionSync(ctx, func(msg *amqp.TransactionSyncMessage) error {
				return syncWorker.HandleSyncMessage(ctx, msg)
			})
			if err != nil && err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
				cancel()
			}
		}()
	} else {
		logger.Info("No AMQP URL configured, relying on periodic sync only")
	}

	// Periodic sync for any missed messages
	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := syncWorker.ProcessPendingTransactions(ctx); err != nil {
					logger.Error("Periodic sync failed", "error", err)
				}
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give in-flight operations a moment to finish
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
