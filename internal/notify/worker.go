package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"hiretrack/internal/domain/notification"
	"hiretrack/internal/metrics"
)

type WorkerConfig struct {
	From        string
	Concurrency int
	// RatePerSecond caps transport sends across all goroutines. Zero disables it.
	RatePerSecond float64
	SendTimeout   time.Duration
	// ErrorPause is how long a goroutine sleeps after Receive fails.
	ErrorPause time.Duration
}

type Worker struct {
	consumer  notification.Consumer
	transport notification.Transport
	cfg       WorkerConfig
	limiter   *rate.Limiter
	logger    zerolog.Logger
	metrics   *metrics.Collector
}

func NewWorker(consumer notification.Consumer, transport notification.Transport, cfg WorkerConfig, logger zerolog.Logger, collector *metrics.Collector) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if cfg.ErrorPause <= 0 {
		cfg.ErrorPause = time.Second
	}
	w := &Worker{
		consumer:  consumer,
		transport: transport,
		cfg:       cfg,
		logger:    logger,
		metrics:   collector,
	}
	if cfg.RatePerSecond > 0 {
		burst := int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		w.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return w
}

// Run blocks until ctx is done and every goroutine has finished its current
// delivery.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Int("concurrency", w.cfg.Concurrency).Float64("rate_per_sec", w.cfg.RatePerSecond).Msg("notification worker starting")
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, slot)
		}(i)
	}
	wg.Wait()
	w.logger.Info().Msg("notification worker stopped")
	return nil
}

func (w *Worker) loop(ctx context.Context, slot int) {
	logger := w.logger.With().Int("slot", slot).Logger()
	for {
		if ctx.Err() != nil {
			return
		}
		d, err := w.consumer.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Msg("receive failed")
			w.pause(ctx)
			continue
		}
		if d == nil {
			continue
		}
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				// Shutting down with a delivery in hand: hand it back untouched.
				w.release(d, logger)
				return
			}
		}
		w.Process(context.WithoutCancel(ctx), d, logger)
	}
}

// Process sends one delivery and settles it with the queue.
func (w *Worker) Process(ctx context.Context, d *notification.Delivery, logger zerolog.Logger) {
	sendCtx, cancel := context.WithTimeout(ctx, w.cfg.SendTimeout)
	err := w.transport.Send(sendCtx, notification.Message{
		From:    w.cfg.From,
		To:      d.Request.Recipient,
		Subject: d.Request.Subject,
		Body:    d.Request.Body,
	})
	cancel()

	event := logger.With().Str("delivery_id", d.ID).Str("recipient", d.Request.Recipient).Int("attempts", d.Attempts).Logger()
	if err != nil {
		if w.metrics != nil {
			w.metrics.IncDeliveryFailures()
		}
		event.Warn().Err(err).Msg("notification delivery failed")
		if nackErr := w.consumer.Nack(ctx, d, err); nackErr != nil {
			event.Error().Err(nackErr).Msg("nack failed")
		}
		return
	}
	if w.metrics != nil {
		w.metrics.IncDeliveries()
	}
	event.Info().Str("subject", d.Request.Subject).Msg("notification delivered")
	if ackErr := w.consumer.Ack(ctx, d); ackErr != nil {
		event.Error().Err(ackErr).Msg("ack failed")
	}
}

// release returns a received but unsent delivery to the queue. It counts as an
// attempt; the queue decides when it is due again.
func (w *Worker) release(d *notification.Delivery, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.consumer.Nack(ctx, d, context.Canceled); err != nil {
		logger.Error().Err(err).Str("delivery_id", d.ID).Msg("release on shutdown failed")
	}
}

func (w *Worker) pause(ctx context.Context) {
	timer := time.NewTimer(w.cfg.ErrorPause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
