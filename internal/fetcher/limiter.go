package fetcher

import (
	"context"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// Limiter paces outbound upstream requests.
type Limiter interface {
	Wait(ctx context.Context) error
}

// RedisLimiter applies a per-minute GCRA budget shared through Redis.
type RedisLimiter struct {
	limiter *redis_rate.Limiter
	key     string
	limit   redis_rate.Limit
}

// NewRedisLimiter returns nil when perMinute is not positive.
func NewRedisLimiter(client *redis.Client, key string, perMinute int) *RedisLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &RedisLimiter{
		limiter: redis_rate.NewLimiter(client),
		key:     key,
		limit:   redis_rate.PerMinute(perMinute),
	}
}

// Wait blocks until the budget allows one request or ctx ends.
func (l *RedisLimiter) Wait(ctx context.Context) error {
	for {
		res, err := l.limiter.Allow(ctx, l.key, l.limit)
		if err != nil {
			return err
		}
		if res.Allowed > 0 {
			return nil
		}

		retry := res.RetryAfter
		if retry <= 0 {
			retry = time.Second
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

var _ Limiter = (*RedisLimiter)(nil)
