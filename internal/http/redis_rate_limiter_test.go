package httpx

import (
	"io"
	"log/slog"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// An unreachable backend must degrade to allow rather than reject traffic.
func TestRedisRateLimiterDegradesToAllow(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	rl := NewRedisRateLimiter(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer rl.Close()

	for i := 0; i < 3; i++ {
		decision := rl.Allow("ip:203.0.113.9", 1, time.Minute)
		if !decision.allowed {
			t.Fatalf("expected request %d to be allowed while redis is down", i+1)
		}
	}
}

func TestRedisRateLimiterZeroLimitAllows(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	rl := NewRedisRateLimiter(client, nil)
	defer rl.Close()

	if decision := rl.Allow("ip:203.0.113.9", 0, time.Minute); !decision.allowed {
		t.Fatalf("expected zero limit to disable throttling")
	}
}
