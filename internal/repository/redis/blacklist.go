package redis

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/nishijain7/uber-clone/internal/repository"
)

const (
	keyPrefix = "uberclone:revoked:"
	// minEntryTTL keeps entries for unparsable or already-expired tokens
	// around briefly rather than dropping them on the floor.
	minEntryTTL = time.Minute

	dialTimeout = 2 * time.Second
)

// NewClient dials redis and verifies connectivity. The one client is shared
// by every redis-backed component, so there is a single connection pool per
// process.
func NewClient(addr, password string, db int) (*redislib.Client, error) {
	client := redislib.NewClient(&redislib.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Blacklist stores revoked tokens as TTL'd redis keys. Expiry pruning is
// native: a key lives exactly as long as the token it revokes could still
// pass the signature/expiry check.
type Blacklist struct {
	client *redislib.Client
}

var _ repository.TokenBlacklist = (*Blacklist)(nil)

// NewBlacklist wraps an existing client. The caller owns the client's
// lifecycle.
func NewBlacklist(client *redislib.Client) *Blacklist {
	return &Blacklist{client: client}
}

// Add marks the token revoked until expiresAt. SET is idempotent, and redis
// acknowledges only after the write is applied, so a Contains issued after
// an acknowledged Add always observes the entry.
func (b *Blacklist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl < minEntryTTL {
		ttl = minEntryTTL
	}
	return b.client.Set(ctx, keyPrefix+token, 1, ttl).Err()
}

// Contains reports whether the token has been revoked.
func (b *Blacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, keyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Prune is a no-op: key TTLs expire entries natively.
func (b *Blacklist) Prune(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// Ping reports backend health.
func (b *Blacklist) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
