// Package cache provides the namespaced get-or-compute cache over the shared
// Redis backend. Values are encoded with the tagged codec (see pkg/codec) and
// keys are built through pkg/keys, so callers deal only in logical keys and
// native values.
//
// Example usage:
//
//	c, err := cache.New(client, cache.Options{Prefix: "hellen"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	analysis, err := c.Fetch(ctx, keys.Analysis("123"), time.Hour,
//	    func(ctx context.Context) (interface{}, error) {
//	        return loadAnalysis(ctx, "123")
//	    })
//
// Fetch deliberately provides no single-flight protection: concurrent misses
// for the same key each invoke the compute function independently. The cost
// of an occasional duplicate computation is accepted in exchange for keeping
// this layer a single round trip per operation.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hellen-edu/cachekit/pkg/codec"
	"github.com/hellen-edu/cachekit/pkg/errors"
	"github.com/hellen-edu/cachekit/pkg/keys"
	"github.com/hellen-edu/cachekit/pkg/logging"
	"github.com/hellen-edu/cachekit/pkg/metrics"
)

// ComputeFunc produces the value for a key on a cache miss.
type ComputeFunc func(ctx context.Context) (interface{}, error)

// Options tune the cache. All fields are optional.
type Options struct {
	// Prefix is the global key prefix; empty means keys.DefaultPrefix.
	Prefix string

	// DefaultTTL is applied when Set/Fetch receive a zero TTL. Defaults to 1h.
	DefaultTTL time.Duration

	// Logger for decode warnings and set failures. Nil disables logging.
	Logger *logging.Logger
}

// Cache is the namespaced get-or-compute store. All methods are safe for
// concurrent use; coordination happens entirely through the backend.
type Cache struct {
	client     *redis.Client
	ns         keys.Namespace
	codec      *codec.Codec
	log        *logging.Logger
	defaultTTL time.Duration
}

// New creates a Cache on top of an injected Redis client. The client's
// lifecycle belongs to the caller unless the cache is its sole user, in
// which case Close releases it.
func New(client *redis.Client, opts Options) (*Cache, error) {
	if client == nil {
		return nil, errors.NewInvalidInput("client", "redis client is required")
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	ttl := opts.DefaultTTL
	if ttl == 0 {
		ttl = time.Hour
	}

	return &Cache{
		client:     client,
		ns:         keys.New(opts.Prefix),
		codec:      codec.New(log),
		log:        log.WithComponent("cache"),
		defaultTTL: ttl,
	}, nil
}

// Fetch returns the cached value for key, or computes, stores, and returns it
// on a miss. A backend read failure propagates without invoking compute; a
// store failure after a successful compute is logged and the computed value
// is still returned, since caching is an optimization at that point.
func (c *Cache) Fetch(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) (interface{}, error) {
	k := c.ns.Prefix(key)
	domain := keys.Domain(key)

	data, err := c.client.Get(ctx, k).Bytes()
	if err == nil {
		metrics.RecordCacheHit(domain)
		return c.codec.Decode(data), nil
	}
	if err != redis.Nil {
		metrics.RecordCacheError(domain)
		return nil, errors.NewTemporary("failed to read from cache", err)
	}

	metrics.RecordCacheMiss(domain)
	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		c.log.Warn().Err(err).Str(logging.Key, key).Msg("computed value could not be cached")
	}
	return value, nil
}

// Get returns the decoded value for key. A miss is a NotFoundError; backend
// failures are TemporaryErrors.
func (c *Cache) Get(ctx context.Context, key string) (interface{}, error) {
	data, err := c.client.Get(ctx, c.ns.Prefix(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss(keys.Domain(key))
			return nil, errors.NewNotFound("cache key", key)
		}
		metrics.RecordCacheError(keys.Domain(key))
		return nil, errors.NewTemporary("failed to read from cache", err)
	}
	metrics.RecordCacheHit(keys.Domain(key))
	return c.codec.Decode(data), nil
}

// Set stores a value under key with the given TTL. A zero TTL uses the
// configured default; negative TTLs are invalid.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl < 0 {
		return errors.NewInvalidInput("ttl", "must not be negative")
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	data, err := c.codec.Encode(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.ns.Prefix(key), data, ttl).Err(); err != nil {
		return errors.NewTemporary("failed to write to cache", err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.ns.Prefix(key)).Err(); err != nil {
		return errors.NewTemporary("failed to delete cache key", err)
	}
	return nil
}

// TTL returns the remaining time to live for key. Keys without an expiry
// report -1 (mirroring the backend); a missing key is a NotFoundError.
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.client.TTL(ctx, c.ns.Prefix(key)).Result()
	if err != nil {
		return 0, errors.NewTemporary("failed to read key TTL", err)
	}
	// go-redis reports the sentinel replies unscaled: -2 means the key does
	// not exist, -1 means it exists without an expiry.
	if d == -2 {
		return 0, errors.NewNotFound("cache key", key)
	}
	return d, nil
}

// Exists reports whether key is present.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.ns.Prefix(key)).Result()
	if err != nil {
		return false, errors.NewTemporary("failed to check cache key existence", err)
	}
	return n > 0, nil
}

// Ping verifies backend connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return errors.NewTemporary("cache backend unreachable", err)
	}
	return nil
}

// Check implements the health.Checker interface so the cache can be
// registered directly with the health framework.
func (c *Cache) Check(ctx context.Context) error {
	return c.Ping(ctx)
}

// Namespace returns the cache's key namespace, for collaborators that need
// to build matching patterns (e.g. stats key breakdowns).
func (c *Cache) Namespace() keys.Namespace {
	return c.ns
}

// Close releases the underlying client connection. Call it only when this
// cache is the sole owner of the client; components sharing one injected
// client close it at the composition root instead.
func (c *Cache) Close() error {
	return c.client.Close()
}
