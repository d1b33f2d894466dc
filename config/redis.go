package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ConnectRedis returns a Redis client when REDIS_ADDR is configured. A nil
// client with a nil error means Redis is disabled; callers must treat it as
// optional.
func ConnectRedis(ctx context.Context, cfg *Config, log zerolog.Logger) (*redis.Client, error) {
	if cfg.IsTest() || cfg.RedisAddr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
	return rdb, nil
}
