package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const rateLimitKeyPrefix = "hiretrack:ratelimit:"

// RedisLimiter counts hits per fixed window in Redis so every API replica
// sees the same totals. Each window gets its own key, which expires with it.
// It fails open when Redis does not answer in time.
type RedisLimiter struct {
	client  *redis.Client
	logger  zerolog.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewRedisLimiter(client *redis.Client, logger zerolog.Logger) *RedisLimiter {
	if client == nil {
		return nil
	}
	return &RedisLimiter{
		client:  client,
		logger:  logger,
		timeout: 250 * time.Millisecond,
		now:     time.Now,
	}
}

func (l *RedisLimiter) Allow(key string, limit int, window time.Duration) bool {
	if l == nil || key == "" || limit <= 0 || window <= 0 {
		return true
	}
	if window < time.Millisecond {
		window = time.Millisecond
	}
	bucket := l.now().UnixMilli() / window.Milliseconds()
	windowKey := rateLimitKeyPrefix + key + ":" + strconv.FormatInt(bucket, 10)

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	pipe := l.client.TxPipeline()
	hits := pipe.Incr(ctx, windowKey)
	pipe.PExpire(ctx, windowKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
		return true
	}
	return hits.Val() <= int64(limit)
}
