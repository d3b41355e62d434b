package config

import (
	"errors"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrMissingJWTSecret is returned by Load when no signing secret is
// configured. The service refuses to start rather than issue unsigned or
// guessably signed tokens.
var ErrMissingJWTSecret = errors.New("config: JWT_SECRET is not set")

const (
	defaultDatabaseURL   = "postgres://uber:uber@db:5432/uber?sslmode=disable"
	defaultMigrationsDir = "./db/migrations"
)

// Config holds runtime configuration for the auth API service.
type Config struct {
	Environment         string
	Addr                string
	DatabaseURL         string
	MigrationsDir       string
	JWTSecret           string
	TokenTTL            time.Duration
	BcryptCost          int
	HashConcurrency     int
	CookieSecure        bool
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	BlacklistPruneEvery time.Duration
	MigrateTimeout      time.Duration
}

// MigrateConfig is the subset of configuration the migrations CLI needs. It
// carries no signing secret, so migrations can run in environments where
// JWT_SECRET is not provisioned.
type MigrateConfig struct {
	DatabaseURL   string
	MigrationsDir string
}

// LoadMigrate reads the migration-only configuration.
func LoadMigrate() MigrateConfig {
	return MigrateConfig{
		DatabaseURL:   GetString("DATABASE_URL", defaultDatabaseURL),
		MigrationsDir: GetString("DB_MIGRATIONS_DIR", defaultMigrationsDir),
	}
}

// Load constructs a Config from environment variables. The JWT secret is the
// one value with no fallback: rotating it invalidates every outstanding
// token, so it must always be an explicit operator decision.
func Load() (Config, error) {
	cfg := Config{
		Environment:         GetString("APP_ENV", "development"),
		Addr:                GetString("API_ADDR", ":4000"),
		DatabaseURL:         GetString("DATABASE_URL", defaultDatabaseURL),
		MigrationsDir:       GetString("DB_MIGRATIONS_DIR", defaultMigrationsDir),
		JWTSecret:           GetString("JWT_SECRET", ""),
		TokenTTL:            time.Duration(GetInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		BcryptCost:          GetInt("BCRYPT_COST", bcrypt.DefaultCost),
		HashConcurrency:     GetInt("HASH_CONCURRENCY", runtime.NumCPU()),
		CookieSecure:        GetBool("COOKIE_SECURE", false),
		RedisAddr:           GetString("REDIS_ADDR", ""),
		RedisPassword:       GetString("REDIS_PASSWORD", ""),
		RedisDB:             GetInt("REDIS_DB", 0),
		BlacklistPruneEvery: time.Duration(GetInt("BLACKLIST_PRUNE_MINUTES", 60)) * time.Minute,
		MigrateTimeout:      time.Duration(GetInt("MIGRATE_TIMEOUT_SECONDS", 60)) * time.Second,
	}
	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}
	return cfg, nil
}

// GetString retrieves an environment variable or returns a fallback when unset.
func GetString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetInt retrieves an environment variable as integer or returns fallback.
func GetInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}

// GetBool retrieves an environment variable as bool or returns fallback.
func GetBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}
