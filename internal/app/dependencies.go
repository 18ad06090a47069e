package app

import (
	"context"
	"fmt"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/lune-shop/backend-lune/internal/config"
	"github.com/lune-shop/backend-lune/internal/obs"
)

// Dependencies holds the process-wide clients shared across modules.
type Dependencies struct {
	Config          *config.Config
	DB              *pgxpool.Pool
	Redis           *redis.Client
	Validator       *validator.Validate
	TaskClient      *asynq.Client
	MetricsRegistry *prometheus.Registry
}

// New builds the shared clients from configuration. Callers own Close.
func New(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		pool.Close()
		return nil, fmt.Errorf("instrument redis: %w", err)
	}

	taskClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	})

	return &Dependencies{
		Config:          cfg,
		DB:              pool,
		Redis:           rdb,
		Validator:       validator.New(),
		TaskClient:      taskClient,
		MetricsRegistry: prometheus.NewRegistry(),
	}, nil
}

// Close releases every client New opened.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.TaskClient != nil {
		_ = d.TaskClient.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// GlobalRateLimiter returns an IP-keyed middleware applied to the whole
// API surface. The per-endpoint checkout limiter is separate.
func GlobalRateLimiter(rdb *redis.Client, rate limiter.Rate) (func(http.Handler) http.Handler, error) {
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix: "ratelimit:global",
	})
	if err != nil {
		return nil, fmt.Errorf("limiter store: %w", err)
	}
	middleware := limiterstdlib.NewMiddleware(limiter.New(store, rate))
	return middleware.Handler, nil
}

// RunMigrations applies pending migrations, treating no-change as success.
func RunMigrations(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
