package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nishijain7/uber-clone/internal/app/migrate"
	"github.com/nishijain7/uber-clone/internal/config"
	"github.com/nishijain7/uber-clone/internal/crypto"
	httpx "github.com/nishijain7/uber-clone/internal/http"
	"github.com/nishijain7/uber-clone/internal/logger"
	"github.com/nishijain7/uber-clone/internal/repository"
	"github.com/nishijain7/uber-clone/internal/repository/postgres"
	redisrepo "github.com/nishijain7/uber-clone/internal/repository/redis"
	"github.com/nishijain7/uber-clone/internal/service/auth"
	"github.com/nishijain7/uber-clone/internal/token"
)

func main() {
	log := logger.New("api", logger.ParseLevel(config.GetString("LOG_LEVEL", "info")))

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	runner, err := migrate.New(pool, cfg.MigrationsDir, cfg.MigrateTimeout, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Up(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)

	// One redis client backs both the blacklist and the rate limiter.
	var blacklist repository.TokenBlacklist = repo
	var blacklistHealth func(context.Context) error
	var limiter httpx.RateLimiter
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		redisClient, err := redisrepo.NewClient(addr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Error("redis unavailable", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		redisBlacklist := redisrepo.NewBlacklist(redisClient)
		blacklist = redisBlacklist
		blacklistHealth = redisBlacklist.Ping
		limiter = httpx.NewRedisRateLimiter(redisClient, log)
	}
	if limiter == nil {
		limiter = httpx.NewMemoryRateLimiter()
	}

	hasher, err := crypto.NewHasher(cfg.BcryptCost, cfg.HashConcurrency)
	if err != nil {
		log.Error("invalid hasher configuration", "error", err)
		os.Exit(1)
	}

	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Error("invalid token configuration", "error", err)
		os.Exit(1)
	}

	authSvc := auth.New(repo, blacklist, hasher, issuer, log)
	go authSvc.RunPruner(ctx, cfg.BlacklistPruneEvery)

	router := httpx.NewRouter(log, authSvc, limiter, cfg.TokenTTL, cfg.CookieSecure, pool.Ping, blacklistHealth)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
