package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"golang.org/x/sync/errgroup"

	"kakeibo/internal/amqp"
	"kakeibo/internal/bot"
	"kakeibo/internal/config"
	apphttp "kakeibo/internal/http"
	"kakeibo/internal/ledger"
	applog "kakeibo/internal/log"
	ports "kakeibo/internal/sheets"
	gsheet "kakeibo/internal/sheets/google"
	mem "kakeibo/internal/sheets/memory"
	"kakeibo/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting kakeibo server")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store ports.Store
	switch cfg.DataBackend {
	case "sheets":
		cli, err := gsheet.NewFromEnv(ctx, loc)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err, "backend", cfg.DataBackend)
			os.Exit(1)
		}
		store = cli
		logger.Info("Initialized Google Sheets backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, loc)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store = repo

		// With a broker configured, appended rows are announced to the sync
		// worker instead of waiting for its periodic scan
		if cfg.AMQPURL != "" {
			queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				logger.Error("Failed to initialize AMQP client", "error", err)
				os.Exit(1)
			}
			defer queue.Close()
			store = storage.WithSyncQueue(repo, queue)
			logger.Info("Sync queue attached", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)

	default:
		store = mem.NewFromFiles("data")
		logger.Info("Initialized memory backend")
	}

	client, err := linebot.New(cfg.LineChannelSecret, cfg.LineChannelAccessToken)
	if err != nil {
		logger.Error("Failed to initialize messaging client", "error", err)
		os.Exit(1)
	}

	svc := ledger.NewService(store, loc)
	webhook := bot.New(client, svc, cfg.OwnerUserID)
	srv := apphttp.NewServer(":"+cfg.Port, webhook)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Listening", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
