package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"glreport/internal/amqp"
	"glreport/internal/backend"
	"glreport/internal/cache"
	"glreport/internal/config"
	apphttp "glreport/internal/http"
	applog "glreport/internal/log"
	"glreport/internal/metrics"
	"glreport/internal/middleware/auth"
	"glreport/internal/middleware/ratelimit"
	"glreport/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(applog.ComponentApp, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	caches := cache.NewManager()
	if cfg.BalanceCacheSize > 0 && !cfg.RedisCacheEnabled() {
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

	checks := map[string]apphttp.CheckFunc{"store": apphttp.CheckFunc(store.Ping)}

	// The queue is optional: without it job submissions answer 503.
	var queue services.JobPublisher
	if cfg.JobsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without report jobs", applog.FieldError, err.Error())
		} else {
			defer client.Close()
			queue = client
			checks["queue"] = func(context.Context) error { return client.Ping() }
			logger.Info("Report jobs enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		m.RegisterCacheStats(caches.Stats)
	}
	if cfg.AuthJWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET is not set, the report API is unauthenticated")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Reports: reports,
		Jobs:    services.NewJobService(queue),
		Checks:  checks,
		Logger:  logger,
		Metrics: m,
		JobRateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.JobRateLimitPerMinute,
			Burst:             cfg.JobRateLimitBurst,
		},
		Auth:           auth.Config{Secret: cfg.AuthJWTSecret, Issuer: cfg.AuthJWTIssuer, Leeway: 30 * time.Second},
		CORSOrigins:    cfg.CORSAllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("Starting glreport server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
