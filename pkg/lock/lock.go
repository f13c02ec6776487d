// Package lock provides a token-based distributed mutual-exclusion primitive
// over the shared Redis backend.
//
// A lock is a key holding a random per-acquisition token. Acquisition is a
// single conditional SET (NX with expiry); release and extension run as Lua
// scripts that compare the caller's token against the current holder and
// mutate in the same indivisible step, so no other acquirer can race between
// the check and the delete. The TTL is the sole crash-recovery mechanism: a
// holder that dies simply lets the key expire.
//
// Acquisition fails closed: when the backend is unavailable the resource is
// reported as locked, favoring safety over availability for mutual exclusion.
//
// Example usage:
//
//	lk := lock.New(client, cfg.Lock, lock.Options{Prefix: "hellen"})
//
//	result, err := lk.WithLock(ctx, "job:transcribe:"+lessonID,
//	    func(ctx context.Context) (interface{}, error) {
//	        return transcribe(ctx, lessonID)
//	    }, nil)
package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hellen-edu/cachekit/pkg/config"
	"github.com/hellen-edu/cachekit/pkg/errors"
	"github.com/hellen-edu/cachekit/pkg/keys"
	"github.com/hellen-edu/cachekit/pkg/logging"
	"github.com/hellen-edu/cachekit/pkg/metrics"
	"github.com/hellen-edu/cachekit/pkg/retry"
)

// MaxTTL bounds how long a crashed holder can keep a resource locked.
// Requested TTLs above this are clamped, regardless of configuration.
const MaxTTL = 5 * time.Minute

// releaseScript deletes the lock only when the caller still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript refreshes the expiry only when the caller still holds the lock.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Lock acquires and manages distributed locks. Safe for concurrent use;
// all coordination happens through the backend's atomicity guarantees.
type Lock struct {
	client *redis.Client
	ns     keys.Namespace
	cfg    config.LockConfig
	log    *logging.Logger
}

// Options tune the lock manager. All fields are optional.
type Options struct {
	Prefix string
	Logger *logging.Logger
}

// New creates a lock manager backed by the given Redis client.
func New(client *redis.Client, cfg config.LockConfig, opts Options) *Lock {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = 30 * time.Second
	}
	if cfg.MaxTTL == 0 || cfg.MaxTTL > MaxTTL {
		cfg.MaxTTL = MaxTTL
	}
	if cfg.RetryCount == 0 {
		cfg.RetryCount = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}

	return &Lock{
		client: client,
		ns:     keys.New(opts.Prefix),
		cfg:    cfg,
		log:    log.WithComponent("lock"),
	}
}

// Acquire tries to take the lock on resource using the configured retry
// budget. On success it returns the ownership token required by Release and
// Extend. A zero ttl uses the configured default; any ttl is clamped to the
// maximum.
func (l *Lock) Acquire(ctx context.Context, resource string, ttl time.Duration) (string, error) {
	return l.AcquireWithRetry(ctx, resource, ttl, l.cfg.RetryCount, l.cfg.RetryDelay)
}

// AcquireWithRetry is Acquire with an explicit retry budget: up to retryCount
// additional attempts, sleeping retryDelay between them. Contention is
// retried; a backend failure fails closed immediately and reports the
// resource as locked.
func (l *Lock) AcquireWithRetry(ctx context.Context, resource string, ttl time.Duration, retryCount int, retryDelay time.Duration) (string, error) {
	ttl = l.clampTTL(ttl)
	if retryCount < 0 {
		retryCount = 0
	}
	if retryDelay <= 0 {
		retryDelay = l.cfg.RetryDelay
	}

	key := l.ns.Prefix(keys.Lock(resource))
	token := uuid.NewString()

	attempt := func() (string, error) {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			metrics.RecordLockAcquisition("error")
			l.log.Warn().Err(err).Str(logging.Resource, resource).Msg("lock backend unavailable, failing closed")
			return "", errors.NewLockedWithCause(resource, err)
		}
		if !ok {
			return "", errors.NewLocked(resource)
		}
		return token, nil
	}

	got, err := retry.DoWithData(ctx, retry.Config{
		MaxAttempts:  retryCount + 1,
		InitialDelay: retryDelay,
		MaxDelay:     retryDelay,
		Multiplier:   1.0,
		Jitter:       -1,
		PolicyFunc: func(err error) bool {
			// Retry pure contention; a backend failure already failed closed.
			var le *errors.LockedError
			return errors.As(err, &le) && le.Unwrap() == nil
		},
	}, attempt)
	if err != nil {
		if errors.IsLocked(err) {
			metrics.RecordLockAcquisition("contended")
			return "", err
		}
		metrics.RecordLockAcquisition("error")
		return "", errors.NewLockedWithCause(resource, err)
	}
	metrics.RecordLockAcquisition("acquired")
	return got, nil
}

// Release removes the lock if token still owns it. A token mismatch (or an
// already-expired lock) returns a NotOwnerError and leaves the current
// holder, if any, untouched.
func (l *Lock) Release(ctx context.Context, resource, token string) error {
	key := l.ns.Prefix(keys.Lock(resource))
	deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
	if err != nil {
		return errors.NewTemporary("lock release failed", err)
	}
	if deleted == 0 {
		return errors.NewNotOwner(resource)
	}
	return nil
}

// Extend refreshes the lock's expiry if token still owns it. The new ttl is
// clamped the same way as on acquisition.
func (l *Lock) Extend(ctx context.Context, resource, token string, ttl time.Duration) error {
	ttl = l.clampTTL(ttl)
	key := l.ns.Prefix(keys.Lock(resource))
	extended, err := extendScript.Run(ctx, l.client, []string{key}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		return errors.NewTemporary("lock extend failed", err)
	}
	if extended == 0 {
		return errors.NewNotOwner(resource)
	}
	return nil
}

// IsLocked reports whether resource is currently locked by anyone.
func (l *Lock) IsLocked(ctx context.Context, resource string) (bool, error) {
	n, err := l.client.Exists(ctx, l.ns.Prefix(keys.Lock(resource))).Result()
	if err != nil {
		return false, errors.NewTemporary("lock status check failed", err)
	}
	return n > 0, nil
}

// TTL returns the lock's remaining lifetime. A missing lock is a
// NotFoundError.
func (l *Lock) TTL(ctx context.Context, resource string) (time.Duration, error) {
	d, err := l.client.PTTL(ctx, l.ns.Prefix(keys.Lock(resource))).Result()
	if err != nil {
		return 0, errors.NewTemporary("lock TTL read failed", err)
	}
	if d == -2 {
		return 0, errors.NewNotFound("lock", resource)
	}
	return d, nil
}

// ForceRelease removes the lock without checking ownership. Dangerous: it
// can release a lock held by a live process. Intended for operators clearing
// a wedged resource, never for normal control flow.
func (l *Lock) ForceRelease(ctx context.Context, resource string) error {
	if err := l.client.Del(ctx, l.ns.Prefix(keys.Lock(resource))).Err(); err != nil {
		return errors.NewTemporary("lock force release failed", err)
	}
	l.log.Warn().Str(logging.Resource, resource).Msg("lock force released")
	return nil
}

func (l *Lock) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = l.cfg.DefaultTTL
	}
	if ttl > l.cfg.MaxTTL {
		ttl = l.cfg.MaxTTL
	}
	return ttl
}
