package database

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/eslsoft/conceptgraph/internal/infrastructure/config"
)

// NewRedisClient connects to the configured Redis server and pings it.
func NewRedisClient(cfg *config.Config) (*goredis.Client, func(), error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Cache.RedisAddr, err)
	}
	return rdb, func() { _ = rdb.Close() }, nil
}
