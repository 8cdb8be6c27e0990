package main

import (
	"context"
	"errors"
	"os"
	"time"

	"spendy/internal/amqp"
	"spendy/internal/backend"
	"spendy/internal/cli"
	"spendy/internal/config"
	"spendy/internal/sheets"
	gsheet "spendy/internal/sheets/google"
	mem "spendy/internal/sheets/memory"
	"spendy/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting spendy-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "error", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger).Create(startupCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	var exporter sheets.MonthExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(startupCtx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = mem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(be.Gateway, exporter,
		worker.WithLocation(loc),
		worker.WithLogger(logger),
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP client shutdown error", "error", err)
		}
		if err := be.Close(); err != nil {
			logger.Error("Backend shutdown error", "error", err)
		}
	})

	// On startup, re-export every month in case messages were missed while down
	if cfg.ExportOnStart {
		logger.Info("Performing startup export...")
		if err := exportWorker.ExportAll(ctx); err != nil {
			logger.Error("Failed startup export", "error", err)
			// Don't exit - continue with normal operation
		}
	}

	go func() {
		err := amqpClient.ConsumeLedgerChanged(ctx, exportWorker.HandleLedgerChanged)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
