package config

import (
	"context"
	"fmt"
	"time"

	"github.com/HSouheill/barrim_commission/logger"
	"github.com/go-redis/redis/v8"
)

// ConnectRedis establishes connection to Redis, used when agents are served from Redis.
func ConnectRedis(ctx context.Context, cfg *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  cfg.AgentLookupTimeout,
		WriteTimeout: cfg.AgentLookupTimeout,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Ping(pingCtx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.FromContext(ctx).Info("Connected to Redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return client, nil
}
