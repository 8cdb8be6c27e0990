package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendy/internal/amqp"
	"spendy/internal/backend"
	"spendy/internal/cli"
	"spendy/internal/config"
	"spendy/internal/core"
	apphttp "spendy/internal/http"
	"spendy/internal/ledger"
	"spendy/internal/metrics"
	"spendy/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

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
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Change notifications are only published when a broker is configured
	var (
		publisher  services.Publisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	m := metrics.New()
	svc := services.NewLedgerService(be.Gateway, services.Options{
		Store: ledger.StoreConfig{
			Location: loc,
			Display:  core.NewDisplayFormatter(cfg.Locale),
		},
		SaveTimeout: cfg.SaveTimeout,
		Publisher:   publisher,
		Metrics:     m,
		Logger:      logger,
	})
	store, err := svc.Load(startupCtx)
	if store == nil {
		logger.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}
	if err != nil {
		logger.Warn("Some ledger data could not be loaded", "error", err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, store,
		apphttp.WithLogger(logger),
		apphttp.WithMetrics(m),
		apphttp.WithReadiness(be.Ping),
		apphttp.WithLoadError(err),
	)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		// Flushes pending saves before the backend goes away
		if err := svc.Close(); err != nil {
			logger.Error("Ledger service shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP client shutdown error", "error", err)
			}
		}
		if err := be.Close(); err != nil {
			logger.Error("Backend shutdown error", "error", err)
		}
	})

	logger.Info("Starting spendy server", "port", cfg.Port, "backend", cfg.DataBackend, "timezone", loc.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
