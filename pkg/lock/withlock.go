package lock

import (
	"context"
	"time"

	"github.com/hellen-edu/cachekit/pkg/errors"
	"github.com/hellen-edu/cachekit/pkg/logging"
	"github.com/hellen-edu/cachekit/pkg/metrics"
)

// WithLockOptions tune WithLock. The zero value uses the configured defaults.
type WithLockOptions struct {
	// TTL for the lock while fn runs. Zero uses the configured default.
	TTL time.Duration

	// RetryCount and RetryDelay override the acquisition retry budget.
	// Negative RetryCount means no retries.
	RetryCount int
	RetryDelay time.Duration

	// OnLocked runs when the lock cannot be acquired. Nil returns the
	// LockedError to the caller.
	OnLocked func(ctx context.Context) (interface{}, error)
}

// WithLock acquires the lock on resource, runs fn, and releases the lock on
// every exit path, including a panic inside fn (the panic is re-raised after
// the release). When acquisition fails the OnLocked fallback is invoked if
// provided; otherwise the LockedError is returned.
func (l *Lock) WithLock(ctx context.Context, resource string, fn func(ctx context.Context) (interface{}, error), opts *WithLockOptions) (interface{}, error) {
	var o WithLockOptions
	if opts != nil {
		o = *opts
	}
	retryCount := l.cfg.RetryCount
	if opts != nil && o.RetryCount != 0 {
		retryCount = o.RetryCount
		if retryCount < 0 {
			retryCount = 0
		}
	}
	retryDelay := o.RetryDelay
	if retryDelay <= 0 {
		retryDelay = l.cfg.RetryDelay
	}

	token, err := l.AcquireWithRetry(ctx, resource, o.TTL, retryCount, retryDelay)
	if err != nil {
		if errors.IsLocked(err) && o.OnLocked != nil {
			return o.OnLocked(ctx)
		}
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.ObserveLockHold(time.Since(start).Seconds())
		if rerr := l.Release(ctx, resource, token); rerr != nil {
			// Losing the release race means the TTL already reclaimed the
			// lock; nothing is held, so log rather than fail the caller.
			l.log.Warn().Err(rerr).Str(logging.Resource, resource).Msg("lock release after work failed")
		}
	}()

	return fn(ctx)
}
