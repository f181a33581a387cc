// Package notify turns notification requests into queued work and drains that
// work through a transport.
package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hiretrack/internal/common"
	"hiretrack/internal/domain/notification"
)

const defaultEnqueueTimeout = 3 * time.Second

// Dispatcher only enqueues. Delivery happens on the worker side.
type Dispatcher struct {
	queue   notification.Queue
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

type DispatcherOption func(*Dispatcher)

func WithEnqueueTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

func WithDispatcherLogger(logger zerolog.Logger) DispatcherOption {
	return func(disp *Dispatcher) { disp.logger = logger }
}

func NewDispatcher(queue notification.Queue, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		queue:   queue,
		timeout: defaultEnqueueTimeout,
		logger:  zerolog.Nop(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue hands one request to the queue. A failure is reported as a
// dispatch_failure error and is never retried here.
func (d *Dispatcher) Enqueue(ctx context.Context, recipient, subject, body string) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return common.NewValidationError("recipient is required", map[string]string{"subject": subject})
	}
	req := notification.Request{
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		EnqueuedAt: d.now(),
	}
	enqueueCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.queue.Enqueue(enqueueCtx, req); err != nil {
		d.logger.Error().Err(err).Str("recipient", recipient).Str("subject", subject).Msg("notification enqueue failed")
		return common.NewDetailedError(common.CodeDispatchFailure, "failed to enqueue notification", map[string]string{"recipient": recipient}, err)
	}
	d.logger.Debug().Str("recipient", recipient).Str("subject", subject).Msg("notification enqueued")
	return nil
}

// EnqueueAll attempts every request even when earlier ones fail and returns
// the joined failures.
func (d *Dispatcher) EnqueueAll(ctx context.Context, reqs []notification.Request) error {
	var errs []error
	for _, req := range reqs {
		if err := d.Enqueue(ctx, req.Recipient, req.Subject, req.Body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
