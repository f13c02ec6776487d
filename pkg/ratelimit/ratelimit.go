// Package ratelimit provides fixed-window and sliding-window request
// throttling over the shared Redis backend, plus a stricter login-attempt
// variant with an explicit lockout.
//
// Every check is a single atomic round trip (a Lua script or a MULTI/EXEC
// pipeline), never a read-then-write pair, so concurrent processes cannot
// race past the limit. When the backend itself is unavailable every check
// fails open: an infrastructure failure must not block the traffic the
// limiter protects.
//
// Example usage:
//
//	rl := ratelimit.New(client, cfg.RateLimit, ratelimit.Options{Prefix: "hellen"})
//
//	d := rl.Allow(ctx, "api", userID, 100, time.Minute)
//	if !d.Allowed {
//	    w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds())))
//	    w.WriteHeader(http.StatusTooManyRequests)
//	    return
//	}
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hellen-edu/cachekit/pkg/config"
	"github.com/hellen-edu/cachekit/pkg/errors"
	"github.com/hellen-edu/cachekit/pkg/keys"
	"github.com/hellen-edu/cachekit/pkg/logging"
	"github.com/hellen-edu/cachekit/pkg/metrics"
)

// Decision reports the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Scope      string
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Err converts a denial into a RateLimitedError; an allowed decision is nil.
// For callers that propagate denials as errors instead of branching.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return errors.NewRateLimited(d.Scope, d.RetryAfter)
}

// fixedWindowScript increments the window counter and arms its expiry in one
// atomic step. Setting the TTL only on the first hit is what makes the window
// fixed rather than sliding.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Limiter enforces per-scope, per-identifier rate limits using atomic Redis
// operations. Safe for concurrent use across processes.
type Limiter struct {
	client *redis.Client
	ns     keys.Namespace
	cfg    config.RateLimitConfig
	log    *logging.Logger
}

// Options tune the limiter. All fields are optional.
type Options struct {
	Prefix string
	Logger *logging.Logger
}

// New creates a rate Limiter backed by the given Redis client.
func New(client *redis.Client, cfg config.RateLimitConfig, opts Options) *Limiter {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = 100
	}
	if cfg.DefaultWindow == 0 {
		cfg.DefaultWindow = time.Minute
	}
	if cfg.LoginMaxAttempts == 0 {
		cfg.LoginMaxAttempts = 5
	}
	if cfg.LoginWindow == 0 {
		cfg.LoginWindow = 15 * time.Minute
	}
	if cfg.LoginLockout == 0 {
		cfg.LoginLockout = 30 * time.Minute
	}

	return &Limiter{
		client: client,
		ns:     keys.New(opts.Prefix),
		cfg:    cfg,
		log:    log.WithComponent("ratelimit"),
	}
}

// Allow checks a fixed-window limit for (scope, identifier). Zero limit or
// window fall back to the configured defaults. On a denial RetryAfter is the
// counter key's remaining TTL, or the full window when the TTL read fails.
func (l *Limiter) Allow(ctx context.Context, scope, identifier string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		limit = l.cfg.DefaultLimit
	}
	if window <= 0 {
		window = l.cfg.DefaultWindow
	}

	key := l.ns.Prefix(keys.RateLimit(scope, identifier))
	count, err := fixedWindowScript.Run(ctx, l.client, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return l.failOpen(scope, identifier, limit, err)
	}

	if count <= int64(limit) {
		metrics.RecordRateLimit(scope, "allowed")
		return Decision{Allowed: true, Scope: scope, Limit: limit, Remaining: limit - int(count)}
	}

	retryAfter := window
	if ttl, err := l.client.PTTL(ctx, key).Result(); err == nil && ttl > 0 {
		retryAfter = ttl
	}
	metrics.RecordRateLimit(scope, "denied")
	return Decision{Allowed: false, Scope: scope, Limit: limit, RetryAfter: retryAfter}
}

// AllowSliding checks a sliding-window limit for (scope, identifier). The
// window state is a sorted set of request timestamps, updated and counted in
// one MULTI/EXEC pipeline: prune entries older than the window, record this
// request, count cardinality, refresh the set's expiry.
//
// The current request's timestamp is recorded even when the request ends up
// denied, so denied requests still occupy the window and a retry storm keeps
// itself locked out. RetryAfter on denial is the full window length, an
// approximation rather than the exact time until the oldest entry ages out.
func (l *Limiter) AllowSliding(ctx context.Context, scope, identifier string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		limit = l.cfg.DefaultLimit
	}
	if window <= 0 {
		window = l.cfg.DefaultWindow
	}

	key := l.ns.Prefix(keys.RateLimit(scope, identifier))
	now := time.Now()
	cutoff := now.Add(-window).UnixMilli()
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())

	var card *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff, 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
		card = pipe.ZCard(ctx, key)
		pipe.PExpire(ctx, key, window)
		return nil
	})
	if err != nil {
		return l.failOpen(scope, identifier, limit, err)
	}

	count := card.Val()
	if count <= int64(limit) {
		metrics.RecordRateLimit(scope, "allowed")
		return Decision{Allowed: true, Scope: scope, Limit: limit, Remaining: limit - int(count)}
	}
	metrics.RecordRateLimit(scope, "denied")
	return Decision{Allowed: false, Scope: scope, Limit: limit, RetryAfter: window}
}

// Reset clears the window state for (scope, identifier). Windows normally
// expire on their own; this is for manual intervention.
func (l *Limiter) Reset(ctx context.Context, scope, identifier string) error {
	return l.client.Del(ctx, l.ns.Prefix(keys.RateLimit(scope, identifier))).Err()
}

// failOpen allows the request when the backend is unavailable, reporting the
// full limit as remaining so callers cannot distinguish degraded operation
// from an idle window.
func (l *Limiter) failOpen(scope, identifier string, limit int, err error) Decision {
	l.log.Warn().Err(err).
		Str(logging.Scope, scope).
		Str(logging.Identifier, identifier).
		Msg("rate limit backend unavailable, failing open")
	metrics.RecordRateLimit(scope, "failopen")
	return Decision{Allowed: true, Scope: scope, Limit: limit, Remaining: limit}
}
