package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"glreport/internal/amqp"
	"glreport/internal/backend"
	"glreport/internal/cache"
	"glreport/internal/config"
	"glreport/internal/events"
	"glreport/internal/events/kafka"
	applog "glreport/internal/log"
	"glreport/internal/services"
	"glreport/internal/sheets"
	gsheet "glreport/internal/sheets/google"
	"glreport/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(applog.ComponentWorker, cfg.LogLevel)
	logger.Info("Starting glreport-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	if !cfg.JobsEnabled() {
		logger.Error("AMQP_URL is required to run the report worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	caches := cache.NewManager()
	if cfg.BalanceCacheSize > 0 {
		caches.StartCleanup(cfg.BalanceCacheTTL)
	}
	defer caches.Stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger, caches).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	reports := services.NewReportService(store.Store, store.Balances, services.ReportServiceConfig{
		OpeningConcurrency: cfg.OpeningConcurrency,
		DefaultCurrency:    cfg.DefaultPresentationCurrency,
	}, logger)

	// Export and events are optional sinks.
	var exporter sheets.ReportExporter
	if cfg.ExportEnabled() {
		e, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, gsheet.Credentials{
			JSON: cfg.GoogleServiceAccountJSON,
			File: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", applog.FieldError, err.Error())
			os.Exit(1)
		}
		exporter = e
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var publisher events.Publisher
	if cfg.EventsEnabled() {
		p := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer p.Close()
		publisher = p
		logger.Info("Report events enabled", "topic", cfg.KafkaTopic, "brokers", len(cfg.KafkaBrokers))
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	reportWorker := worker.NewReportWorker(reports, exporter, publisher, logger)

	go func() {
		if err := amqpClient.ConsumeReportRequests(ctx, reportWorker.HandleReportRequest); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err.Error())
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	// Let the in-flight delivery finish before the deferred closes run.
	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
