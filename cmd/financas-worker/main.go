package main

import (
	"context"
	"errors"
	"os"
	"time"

	"financas/internal/amqp"
	"financas/internal/cli"
	"financas/internal/mirror"
	"financas/internal/mirror/google"
	"financas/internal/mirror/memory"
	"financas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting financas-worker")

	cfg := cli.LoadConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store := cli.InitLedger(logger, cfg.DBPath)
	defer store.Close()

	var appender mirror.RowAppender
	switch cfg.MirrorBackend {
	case "sheets":
		client, err := google.New(context.Background(), cfg.SheetsSpreadsheetID, cfg.SheetsTabName, cfg.SheetsCredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.SheetsSpreadsheetID)
	default:
		appender = memory.New()
		logger.Info("Memory mirror initialized")
	}

	events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer events.Close()

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	w := worker.NewMirrorWorker(store, appender, events, cfg.MirrorBatch, cfg.MirrorInterval)

	// Catch up on anything recorded while the worker was down.
	if err := w.MirrorPending(ctx); err != nil {
		logger.Error("Startup mirror pass failed", "error", err)
	}

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
