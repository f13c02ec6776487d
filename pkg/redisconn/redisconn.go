// Package redisconn builds the shared Redis client handle used by every
// cachekit component. The client is constructed once at the application's
// composition root and injected into the cache, rate limiter, lock, and
// stats components; its lifecycle is tied to application start and stop.
//
// Example usage:
//
//	client, err := redisconn.New(ctx, cfg.Redis)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
package redisconn

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hellen-edu/cachekit/pkg/config"
	"github.com/hellen-edu/cachekit/pkg/errors"
)

// New creates a Redis client from the given configuration and verifies
// connectivity with a PING before returning it.
func New(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewTemporary("failed to connect to Redis", err)
	}

	return client, nil
}
