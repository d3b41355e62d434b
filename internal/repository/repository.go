package repository

import (
	"context"
	"time"

	"github.com/nishijain7/uber-clone/internal/domain"
)

// UserRepository persists user accounts. Read paths return the full record
// including the password hash; callers are responsible for only ever exposing
// the domain.PublicUser projection.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// TokenBlacklist is the durable set of revoked tokens. Add must be
// idempotent and durably complete before returning, so that any Contains
// call issued after an acknowledged Add observes the entry. Prune may delete
// entries whose expiry has passed; such tokens are already rejected by the
// signature/expiry check independent of blacklist membership.
type TokenBlacklist interface {
	Add(ctx context.Context, token string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
	Prune(ctx context.Context, now time.Time) (int64, error)
}
