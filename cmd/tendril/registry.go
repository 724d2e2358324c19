package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	// Postgres driver for production deployments.
	_ "github.com/jackc/pgx/v5/stdlib"
	// SQLite driver for local/dev deployments.
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tendril-lang/tendril/internal/cache"
	"github.com/tendril-lang/tendril/internal/registry"
	"github.com/tendril-lang/tendril/internal/registry/auth"
	"github.com/tendril-lang/tendril/internal/registry/migrate"
	"github.com/tendril-lang/tendril/internal/registry/ratelimit"
	registryserver "github.com/tendril-lang/tendril/internal/registry/server"
	"github.com/tendril-lang/tendril/internal/registry/store"
)

var registryServeCmd = &cobra.Command{
	Use:   "registry-serve",
	Short: "Run the pattern registry HTTP service",
	Long:  "Start an HTTP service that stores named patterns and runs compile/match/find against them on demand.",
	RunE:  runRegistryServe,
}

func init() {
	flags := registryServeCmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.String("db-driver", "sqlite3", "database/sql driver name (pgx or sqlite3)")
	flags.String("db-dsn", "tendril_registry.db", "database connection string")
	flags.String("jwt-secret", "", "secret key used to sign/validate JWTs (required)")
	flags.Duration("jwt-ttl", 24*time.Hour, "JWT token lifetime")
	flags.String("redis-addr", "", "Redis address for the program cache and the rate limiter (empty = in-memory only)")
	flags.Duration("cache-ttl", 10*time.Minute, "compiled-program cache entry lifetime")
	flags.Int("rate-limit", 100, "maximum requests per client per rate-limit-window")
	flags.Duration("rate-limit-window", time.Minute, "rate limit window duration")
	_ = viper.BindPFlags(flags)
}

func runRegistryServe(cmd *cobra.Command, args []string) error {
	secret := viper.GetString("jwt-secret")
	if secret == "" {
		return errors.New("--jwt-secret is required")
	}

	db, err := sql.Open(viper.GetString("db-driver"), viper.GetString("db-dsn"))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	runner := migrate.NewRunner(db)
	if err := runner.Initialize(); err != nil {
		return fmt.Errorf("initializing migration tracker: %w", err)
	}
	if err := runner.MigrateUp(store.Migrations()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	patternStore := store.NewSQLStore(db)
	cacheBackend, err := buildCacheBackend()
	if err != nil {
		return fmt.Errorf("setting up cache: %w", err)
	}
	programs := cache.NewProgramCache(cacheBackend, viper.GetDuration("cache-ttl"))
	authService := auth.NewAuthService(secret, viper.GetDuration("jwt-ttl"))
	limiter, err := buildRateLimiter()
	if err != nil {
		return fmt.Errorf("setting up rate limiter: %w", err)
	}

	api := registry.New(patternStore, programs, logger, limiter)
	handler := api.Router(authService)

	srvConfig := registryserver.DefaultConfig(handler)
	srvConfig.Address = viper.GetString("addr")
	srv, err := registryserver.New(srvConfig)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	shutdownConfig := registryserver.DefaultShutdownConfig()
	gs := registryserver.NewGracefulShutdown(srv, shutdownConfig)
	gs.RegisterHook(func(ctx context.Context) error {
		return db.Close()
	})

	successf("registry service listening on %s", srvConfig.Address)
	if err := gs.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func buildCacheBackend() (cache.Cache, error) {
	addr := viper.GetString("redis-addr")
	if addr == "" {
		return cache.NewMemoryCache(), nil
	}
	cfg := cache.DefaultRedisConfig()
	cfg.Addr = addr
	return cache.NewRedisCacheWithConfig(cfg)
}

// buildRateLimiter uses a Redis-backed sliding window limiter when
// --redis-addr is set, so limits are shared across replicas, and otherwise
// falls back to an in-process token bucket.
func buildRateLimiter() (ratelimit.RateLimiter, error) {
	limit := viper.GetInt("rate-limit")
	window := viper.GetDuration("rate-limit-window")

	addr := viper.GetString("redis-addr")
	if addr == "" {
		return ratelimit.NewTokenBucketWithConfig(ratelimit.TokenBucketConfig{
			Capacity:        limit,
			RefillRate:      window,
			CleanupInterval: 5 * window,
		}), nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	return ratelimit.NewRedisRateLimiter(ratelimit.RedisRateLimiterConfig{
		Client: client,
		Limit:  limit,
		Window: window,
		Prefix: "tendril:ratelimit:",
	})
}
