package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"hiretrack/internal/backoff"
	"hiretrack/internal/config"
	"hiretrack/internal/domain/notification"
	"hiretrack/internal/logging"
	"hiretrack/internal/metrics"
	"hiretrack/internal/notify"
	queueredis "hiretrack/internal/queue/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("info", "json")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).With().Str("service", "worker").Logger()
	if err := cfg.ValidateWorker(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := queueredis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer client.Close()

	queue := queueredis.New(client, queueredis.Config{
		MaxAttempts:  cfg.QueueMaxAttempts,
		Backoff:      backoff.Jittered{Initial: cfg.QueueBackoffInitial, Max: cfg.QueueBackoffMax},
		BlockTimeout: cfg.QueueBlockTimeout,
	})
	moved, err := queue.Requeue(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("requeue orphaned deliveries")
	}
	if moved > 0 {
		logger.Warn().Int("count", moved).Msg("requeued deliveries left in processing")
	}

	collector := metrics.NewCollector()
	metricsServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           metricsMux(collector),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics listener")
		}
	}()

	worker := notify.NewWorker(queue, transportFor(cfg, logger), notify.WorkerConfig{
		From:          cfg.EmailFrom,
		Concurrency:   cfg.WorkerConcurrency,
		RatePerSecond: cfg.WorkerRatePerSec,
		SendTimeout:   cfg.WorkerSendTimeout,
	}, logger, collector)
	if err := worker.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("worker stopped with error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}

func transportFor(cfg *config.Config, logger zerolog.Logger) notification.Transport {
	if cfg.SMTPHost == "" {
		logger.Warn().Msg("SMTP_HOST not set: notifications are only logged")
		return notify.NewLogTransport(logger)
	}
	return notify.NewSMTPTransport(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		StartTLS: cfg.SMTPStartTLS,
	})
}

func metricsMux(collector *metrics.Collector) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.NewHandler(collector))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
