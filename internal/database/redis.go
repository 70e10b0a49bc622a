package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/escrivo/escrivo-go-api/internal/config"
)

// ConnectRedis dials the instance backing the analysis in-flight guard and
// verifies it is reachable before startup proceeds.
func ConnectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
