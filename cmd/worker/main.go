package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/lune-shop/backend-lune/internal/config"
	"github.com/lune-shop/backend-lune/internal/notify"
	"github.com/lune-shop/backend-lune/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	redisOpts, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	srv := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: envInt("WORKER_CONCURRENCY", 10),
		Queues: map[string]int{
			notify.Queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	worker := &notify.Worker{Log: logger}
	worker.Register(mux)

	logger.Info().Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
