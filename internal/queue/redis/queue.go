// Package redis implements the durable notification queue on Redis lists.
//
// A request moves ready -> processing when a worker receives it. Ack removes it
// from processing. Nack either parks it in the delayed sorted set until its
// backoff elapses or, once attempts are exhausted, moves it to the dead list.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"hiretrack/internal/backoff"
	"hiretrack/internal/common"
	"hiretrack/internal/domain/notification"
)

const promoteScript = `
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, tonumber(ARGV[2]))
for _, member in ipairs(due) do
  redis.call("ZREM", KEYS[1], member)
  redis.call("RPUSH", KEYS[2], member)
end
return #due
`

const nackScript = `
local removed = redis.call("LREM", KEYS[1], 1, ARGV[1])
if removed == 0 then
  return 0
end
if ARGV[3] == "1" then
  redis.call("LPUSH", KEYS[3], ARGV[2])
else
  redis.call("ZADD", KEYS[2], tonumber(ARGV[4]), ARGV[2])
end
return 1
`

type Config struct {
	Topic        string
	MaxAttempts  int
	Backoff      backoff.Strategy
	BlockTimeout time.Duration
	PromoteBatch int
}

type Queue struct {
	client  *goredis.Client
	keys    keys
	cfg     Config
	promote *goredis.Script
	nack    *goredis.Script
	now     func() time.Time

	mu       sync.Mutex
	inflight map[string]string
}

func New(client *goredis.Client, cfg Config) *Queue {
	if cfg.Topic == "" {
		cfg.Topic = notification.Topic
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 8
	}
	if cfg.Backoff == nil {
		cfg.Backoff = backoff.Default()
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 2 * time.Second
	}
	if cfg.PromoteBatch <= 0 {
		cfg.PromoteBatch = 100
	}
	return &Queue{
		client:   client,
		keys:     keysFor(cfg.Topic),
		cfg:      cfg,
		promote:  goredis.NewScript(promoteScript),
		nack:     goredis.NewScript(nackScript),
		now:      func() time.Time { return time.Now().UTC() },
		inflight: make(map[string]string),
	}
}

func (q *Queue) Enqueue(ctx context.Context, req notification.Request) error {
	raw, err := encodeEnvelope(envelope{ID: common.NewUUID().String(), Payload: req})
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.keys.ready, raw).Err(); err != nil {
		return fmt.Errorf("hiretrack/redis: enqueue: %w", err)
	}
	return nil
}

func (q *Queue) Receive(ctx context.Context) (*notification.Delivery, error) {
	if err := q.promoteDue(ctx); err != nil {
		return nil, err
	}
	raw, err := q.client.BLMove(ctx, q.keys.ready, q.keys.processing, "RIGHT", "LEFT", q.cfg.BlockTimeout).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("hiretrack/redis: receive: %w", err)
	}
	e, err := decodeEnvelope(raw)
	if err != nil {
		// An undecodable entry can never be delivered; park it with the dead letters.
		pipe := q.client.TxPipeline()
		pipe.LRem(ctx, q.keys.processing, 1, raw)
		pipe.LPush(ctx, q.keys.dead, raw)
		if _, pErr := pipe.Exec(ctx); pErr != nil {
			return nil, fmt.Errorf("hiretrack/redis: park undecodable entry: %w", pErr)
		}
		return nil, err
	}
	q.mu.Lock()
	q.inflight[e.ID] = raw
	q.mu.Unlock()
	d := e.delivery()
	return &d, nil
}

func (q *Queue) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(q.now().UnixMilli(), 10)
	if err := q.promote.Run(ctx, q.client, []string{q.keys.delayed, q.keys.ready}, now, q.cfg.PromoteBatch).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("hiretrack/redis: promote delayed: %w", err)
	}
	return nil
}

func (q *Queue) take(id string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	raw, ok := q.inflight[id]
	if !ok {
		return "", common.NewError(common.CodeNotFound, "delivery not in flight", nil)
	}
	delete(q.inflight, id)
	return raw, nil
}

func (q *Queue) Ack(ctx context.Context, d *notification.Delivery) error {
	raw, err := q.take(d.ID)
	if err != nil {
		return err
	}
	if err := q.client.LRem(ctx, q.keys.processing, 1, raw).Err(); err != nil {
		return fmt.Errorf("hiretrack/redis: ack: %w", err)
	}
	return nil
}

func (q *Queue) Nack(ctx context.Context, d *notification.Delivery, cause error) error {
	raw, err := q.take(d.ID)
	if err != nil {
		return err
	}
	current, err := decodeEnvelope(raw)
	if err != nil {
		return err
	}
	now := q.now()
	next := current.retried(cause, now)
	encoded, err := encodeEnvelope(next)
	if err != nil {
		return err
	}
	dead := "0"
	if next.Attempts >= q.cfg.MaxAttempts {
		dead = "1"
	}
	dueAt := now.Add(q.cfg.Backoff.Delay(next.Attempts)).UnixMilli()
	scriptKeys := []string{q.keys.processing, q.keys.delayed, q.keys.dead}
	if err := q.nack.Run(ctx, q.client, scriptKeys, raw, encoded, dead, dueAt).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("hiretrack/redis: nack: %w", err)
	}
	return nil
}

// Requeue moves everything left in processing back to ready. Run it before any
// consumer of the topic starts so that requests orphaned by a crash are retried.
func (q *Queue) Requeue(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, q.keys.processing, q.keys.ready, "RIGHT", "RIGHT").Err()
		if errors.Is(err, goredis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("hiretrack/redis: requeue: %w", err)
		}
		moved++
	}
}

type DeadLetter struct {
	ID        string               `json:"id"`
	Attempts  int                  `json:"attempts"`
	Request   notification.Request `json:"request"`
	LastError string               `json:"last_error"`
	FailedAt  *time.Time           `json:"failed_at,omitempty"`
}

func (q *Queue) DeadLetters(ctx context.Context, limit int64) ([]DeadLetter, error) {
	if limit <= 0 {
		limit = 50
	}
	raws, err := q.client.LRange(ctx, q.keys.dead, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("hiretrack/redis: list dead letters: %w", err)
	}
	letters := make([]DeadLetter, 0, len(raws))
	for _, raw := range raws {
		e, err := decodeEnvelope(raw)
		if err != nil {
			continue
		}
		letters = append(letters, DeadLetter{ID: e.ID, Attempts: e.Attempts, Request: e.Payload, LastError: e.LastError, FailedAt: e.FailedAt})
	}
	return letters, nil
}

// ReplayDeadLetters puts every dead letter back on the ready list with its
// attempt count reset. The payload is not touched.
func (q *Queue) ReplayDeadLetters(ctx context.Context) (int, error) {
	replayed := 0
	for {
		raw, err := q.client.RPop(ctx, q.keys.dead).Result()
		if errors.Is(err, goredis.Nil) {
			return replayed, nil
		}
		if err != nil {
			return replayed, fmt.Errorf("hiretrack/redis: replay pop: %w", err)
		}
		e, err := decodeEnvelope(raw)
		if err != nil {
			_ = q.client.LPush(ctx, q.keys.dead, raw).Err()
			return replayed, err
		}
		e.Attempts = 0
		e.LastError = ""
		e.FailedAt = nil
		encoded, err := encodeEnvelope(e)
		if err != nil {
			return replayed, err
		}
		if err := q.client.LPush(ctx, q.keys.ready, encoded).Err(); err != nil {
			_ = q.client.RPush(ctx, q.keys.dead, raw).Err()
			return replayed, fmt.Errorf("hiretrack/redis: replay push: %w", err)
		}
		replayed++
	}
}

type Stats struct {
	Ready      int64 `json:"ready"`
	Processing int64 `json:"processing"`
	Delayed    int64 `json:"delayed"`
	Dead       int64 `json:"dead"`
}

func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	pipe := q.client.Pipeline()
	ready := pipe.LLen(ctx, q.keys.ready)
	processing := pipe.LLen(ctx, q.keys.processing)
	delayed := pipe.ZCard(ctx, q.keys.delayed)
	dead := pipe.LLen(ctx, q.keys.dead)
	if _, err := pipe.Exec(ctx); err != nil {
		return Stats{}, fmt.Errorf("hiretrack/redis: stats: %w", err)
	}
	return Stats{Ready: ready.Val(), Processing: processing.Val(), Delayed: delayed.Val(), Dead: dead.Val()}, nil
}
