package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/line/line-bot-sdk-go/v7/linebot"

	"kakeibo/internal/bot"
	"kakeibo/internal/config"
	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	applog "kakeibo/internal/log"
	gsheet "kakeibo/internal/sheets/google"
)

// The worker wakes on a ticker and, on the first day of each month, pushes
// the previous month's report to the owner.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting report-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.OwnerUserID == "" {
		logger.Error("OWNER_USER_ID is required: the monthly report needs a push target")
		os.Exit(1)
	}
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sheetsClient, err := gsheet.NewFromEnv(ctx, loc)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	client, err := linebot.New(cfg.LineChannelSecret, cfg.LineChannelAccessToken)
	if err != nil {
		logger.Error("Failed to initialize messaging client", "error", err)
		os.Exit(1)
	}

	svc := ledger.NewService(sheetsClient, loc)

	ticker := time.NewTicker(cfg.ReportCheckInterval)
	defer ticker.Stop()

	var lastSent core.MonthKey
	check := func() {
		now := time.Now().In(loc)
		if now.Day() != 1 {
			return
		}
		prev := core.MonthOf(now).Prev()
		if prev == lastSent {
			return
		}

		report, err := svc.Report(ctx, prev)
		if err != nil {
			logger.Error("Failed to build monthly report", "month", prev.String(), "error", err)
			return
		}
		text := "Monthly report is ready.\n" + bot.FormatMonthReport(report)
		if _, err := client.PushMessage(cfg.OwnerUserID, linebot.NewTextMessage(text)).WithContext(ctx).Do(); err != nil {
			logger.Error("Failed to push monthly report", "month", prev.String(), "error", err)
			return
		}
		lastSent = prev
		logger.Info("Monthly report pushed", "month", prev.String())
	}

	logger.Info("Report worker running", "check_interval", cfg.ReportCheckInterval.String())
	check()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Report worker stopped")
			return
		case <-ticker.C:
			check()
		}
	}
}
