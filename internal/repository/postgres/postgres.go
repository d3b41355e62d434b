package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nishijain7/uber-clone/internal/domain"
	"github.com/nishijain7/uber-clone/internal/repository"
)

const uniqueViolation = "23505"

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository = (*Repository)(nil)
	_ repository.TokenBlacklist = (*Repository)(nil)
)

// CreateUser inserts a user. A unique-constraint violation on email maps to
// repository.ErrDuplicate.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, email, firstname, lastname, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Email, user.Fullname.Firstname, user.Fullname.Lastname, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, email, firstname, lastname, password_hash, created_at FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, email, firstname, lastname, password_hash, created_at FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *Repository) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Fullname.Firstname, &u.Fullname.Lastname, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Add records a revoked token. Re-adding an already blacklisted token is a
// no-op. The row is durable once Exec returns, so a Contains issued after an
// acknowledged Add always observes it.
func (r *Repository) Add(ctx context.Context, token string, expiresAt time.Time) error {
	const query = `INSERT INTO blacklisted_tokens (token, revoked_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, token, time.Now().UTC(), expiresAt)
	return err
}

// Contains reports whether the token has been revoked.
func (r *Repository) Contains(ctx context.Context, token string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM blacklisted_tokens WHERE token = $1)`
	var revoked bool
	if err := r.pool.QueryRow(ctx, query, token).Scan(&revoked); err != nil {
		return false, err
	}
	return revoked, nil
}

// Prune deletes entries whose underlying token is past expiry and therefore
// rejected by the signature check regardless of blacklist membership.
func (r *Repository) Prune(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM blacklisted_tokens WHERE expires_at < $1`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
