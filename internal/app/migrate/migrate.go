package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const defaultCommandTimeout = time.Minute

// Runner drives goose migrations over the service's pgx pool. Migrations and
// repository queries share one pool, so there is a single set of connection
// settings to configure and a single thing to health-check.
type Runner struct {
	pool    *pgxpool.Pool
	db      *sql.DB
	dir     string
	timeout time.Duration
	log     *slog.Logger
}

// New validates the migrations directory and prepares a runner. timeout
// bounds each command; zero selects the default. The pool stays owned by the
// caller.
func New(pool *pgxpool.Pool, dir string, timeout time.Duration, log *slog.Logger) (*Runner, error) {
	if pool == nil {
		return nil, errors.New("nil pool provided")
	}
	if dir == "" {
		return nil, errors.New("empty migrations directory")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("locate migrations dir: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("configure goose: %w", err)
	}

	return &Runner{
		pool:    pool,
		db:      stdlib.OpenDBFromPool(pool),
		dir:     dir,
		timeout: timeout,
		log:     log,
	}, nil
}

// Up applies all pending migrations.
func (r *Runner) Up(ctx context.Context) error {
	ctx, cancel := r.commandContext(ctx)
	defer cancel()

	r.log.Info("applying migrations", "dir", r.dir)
	if err := goose.UpContext(ctx, r.db, r.dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	r.log.Info("migrations applied")
	return nil
}

// Status reports applied and pending migrations.
func (r *Runner) Status(ctx context.Context) error {
	ctx, cancel := r.commandContext(ctx)
	defer cancel()

	if err := goose.StatusContext(ctx, r.db, r.dir); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return nil
}

// Down rolls back to targetVersion, or one step when targetVersion is zero.
func (r *Runner) Down(ctx context.Context, targetVersion int64) error {
	ctx, cancel := r.commandContext(ctx)
	defer cancel()

	if targetVersion > 0 {
		r.log.Info("rolling back migrations", "target", targetVersion)
		if err := goose.DownToContext(ctx, r.db, r.dir, targetVersion); err != nil {
			return fmt.Errorf("rollback to version %d: %w", targetVersion, err)
		}
	} else {
		r.log.Info("rolling back latest migration")
		if err := goose.DownContext(ctx, r.db, r.dir); err != nil {
			return fmt.Errorf("rollback latest migration: %w", err)
		}
	}
	r.log.Info("rollback complete")
	return nil
}

// Ping verifies database connectivity.
func (r *Runner) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases the sql handle. The pool itself belongs to the caller.
func (r *Runner) Close() {
	_ = r.db.Close()
}

func (r *Runner) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}
