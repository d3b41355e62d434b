package httpx

import (
	"context"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	rateLimitKeyPrefix = "uberclone:ratelimit:"
	// rateLimitRedisTimeout caps how long the request path waits on redis.
	// Past it the limiter degrades to allow: throttling is advisory here and
	// must never take login or registration down with a redis blip.
	rateLimitRedisTimeout = 500 * time.Millisecond
)

// redisRateLimiter counts requests in redis so limits hold across replicas.
// It shares the blacklist's client; the caller owns the client lifecycle.
type redisRateLimiter struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisRateLimiter wraps an existing redis client as a rate limiter.
func NewRedisRateLimiter(client *redis.Client, logger *slog.Logger) RateLimiter {
	return &redisRateLimiter{client: client, logger: logger}
}

func (rl *redisRateLimiter) Allow(key string, limit int, window time.Duration) rateDecision {
	if limit <= 0 {
		return rateDecision{allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), rateLimitRedisTimeout)
	defer cancel()

	bucket := rateLimitKeyPrefix + key
	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, bucket)
	ttl := pipe.PTTL(ctx, bucket)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.degrade("count", err)
		return rateDecision{allowed: true}
	}

	count := incr.Val()
	remaining := ttl.Val()
	// A negative PTTL means the key has no expiry: either this increment
	// created it, or a previous Expire was lost. Stamp the window either way.
	if remaining < 0 {
		if err := rl.client.PExpire(ctx, bucket, window).Err(); err != nil {
			rl.degrade("expire", err)
		}
		remaining = window
	}

	return rateDecision{
		allowed:   count <= int64(limit),
		count:     int(count),
		windowEnd: time.Now().Add(remaining),
	}
}

// Close is a no-op; the shared client is closed by whoever opened it.
func (rl *redisRateLimiter) Close() {}

func (rl *redisRateLimiter) degrade(op string, err error) {
	if rl.logger == nil {
		return
	}
	rl.logger.Warn("rate limiter degraded to allow", "op", op, "error", err)
}
