// Package memory is an in-process notification queue with the same retry and
// dead-letter behaviour as the Redis queue. Nothing survives a restart, so it is
// only meant for local runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"hiretrack/internal/backoff"
	"hiretrack/internal/common"
	"hiretrack/internal/domain/notification"
)

type DeadLetter struct {
	Delivery  notification.Delivery
	LastError string
	FailedAt  time.Time
}

type Queue struct {
	mu           sync.Mutex
	ready        []notification.Delivery
	inflight     map[string]notification.Delivery
	dead         []DeadLetter
	maxAttempts  int
	backoff      backoff.Strategy
	pollInterval time.Duration
	signal       chan struct{}
	timers       map[*time.Timer]struct{}
}

type Option func(*Queue)

func WithMaxAttempts(n int) Option {
	return func(q *Queue) { q.maxAttempts = n }
}

func WithBackoff(strategy backoff.Strategy) Option {
	return func(q *Queue) { q.backoff = strategy }
}

func WithPollInterval(d time.Duration) Option {
	return func(q *Queue) { q.pollInterval = d }
}

func New(opts ...Option) *Queue {
	q := &Queue{
		inflight:     make(map[string]notification.Delivery),
		maxAttempts:  8,
		backoff:      backoff.Default(),
		pollInterval: time.Second,
		signal:       make(chan struct{}, 1),
		timers:       make(map[*time.Timer]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue) Enqueue(_ context.Context, req notification.Request) error {
	q.push(notification.Delivery{ID: common.NewUUID().String(), Request: req})
	return nil
}

func (q *Queue) push(d notification.Delivery) {
	q.mu.Lock()
	q.ready = append(q.ready, d)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *Queue) Receive(ctx context.Context) (*notification.Delivery, error) {
	timer := time.NewTimer(q.pollInterval)
	defer timer.Stop()
	for {
		q.mu.Lock()
		if len(q.ready) > 0 {
			d := q.ready[0]
			q.ready = q.ready[1:]
			q.inflight[d.ID] = d
			q.mu.Unlock()
			return &d, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case <-q.signal:
		}
	}
}

func (q *Queue) Ack(_ context.Context, d *notification.Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.inflight[d.ID]; !ok {
		return common.NewError(common.CodeNotFound, "delivery not in flight", nil)
	}
	delete(q.inflight, d.ID)
	return nil
}

func (q *Queue) Nack(_ context.Context, d *notification.Delivery, cause error) error {
	q.mu.Lock()
	stored, ok := q.inflight[d.ID]
	if !ok {
		q.mu.Unlock()
		return common.NewError(common.CodeNotFound, "delivery not in flight", nil)
	}
	delete(q.inflight, d.ID)
	stored.Attempts++
	if stored.Attempts >= q.maxAttempts {
		letter := DeadLetter{Delivery: stored, FailedAt: time.Now().UTC()}
		if cause != nil {
			letter.LastError = cause.Error()
		}
		q.dead = append(q.dead, letter)
		q.mu.Unlock()
		return nil
	}
	delay := q.backoff.Delay(stored.Attempts)
	if delay <= 0 {
		q.mu.Unlock()
		q.push(stored)
		return nil
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		q.mu.Lock()
		delete(q.timers, timer)
		q.mu.Unlock()
		q.push(stored)
	})
	q.timers[timer] = struct{}{}
	q.mu.Unlock()
	return nil
}

func (q *Queue) DeadLetters() []DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]DeadLetter, len(q.dead))
	copy(out, q.dead)
	return out
}

// Len returns the number of deliveries waiting to be received.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready)
}

// Close cancels pending retry timers.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for timer := range q.timers {
		timer.Stop()
	}
	q.timers = make(map[*time.Timer]struct{})
}
