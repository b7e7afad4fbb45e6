// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"parcinfo-verifier/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient holds the connection shared by the response cache and the
// conversation loop guard. Redis going away must never fail a verification,
// so the timeouts here stay short.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	return &RedisClient{Client: rdb}, nil
}

// Ping checks the cache store is reachable.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// GetClient exposes the raw client for the cache manager and loop guard.
func (c *RedisClient) GetClient() *redis.Client {
	return c.Client
}
