package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hellen-edu/cachekit/pkg/keys"
	"github.com/hellen-edu/cachekit/pkg/logging"
	"github.com/hellen-edu/cachekit/pkg/metrics"
)

// loginScope labels login decisions in metrics and logs.
const loginScope = "login"

// loginFailureScript counts a failed attempt and, when the threshold is
// reached, arms the lockout marker whose TTL outlives the counting window.
// One script keeps the count-and-lock transition atomic across processes.
var loginFailureScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if count >= tonumber(ARGV[3]) then
  redis.call("SET", KEYS[2], "1", "PX", ARGV[2])
end
return count
`)

// CheckLogin reports whether a login attempt for identifier may proceed.
// While locked out the denial's RetryAfter is whichever TTL is greater, the
// lockout marker's or the attempt counter's. Backend failures fail open the
// same as every other check.
func (l *Limiter) CheckLogin(ctx context.Context, identifier string) Decision {
	limit := l.cfg.LoginMaxAttempts
	lockKey := l.ns.Prefix(keys.LoginLockout(identifier))
	attemptsKey := l.ns.Prefix(keys.LoginAttempts(identifier))

	locked, err := l.client.Exists(ctx, lockKey).Result()
	if err != nil {
		return l.failOpen(loginScope, identifier, limit, err)
	}
	if locked > 0 {
		retryAfter := l.cfg.LoginLockout
		lockTTL, lerr := l.client.PTTL(ctx, lockKey).Result()
		attemptTTL, aerr := l.client.PTTL(ctx, attemptsKey).Result()
		if lerr == nil || aerr == nil {
			retryAfter = maxDuration(lockTTL, attemptTTL)
		}
		metrics.RecordRateLimit(loginScope, "denied")
		return Decision{Allowed: false, Scope: loginScope, Limit: limit, RetryAfter: retryAfter}
	}

	count, err := l.client.Get(ctx, attemptsKey).Int64()
	if err != nil && err != redis.Nil {
		return l.failOpen(loginScope, identifier, limit, err)
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	metrics.RecordRateLimit(loginScope, "allowed")
	return Decision{Allowed: true, Scope: loginScope, Limit: limit, Remaining: remaining}
}

// RecordLoginFailure counts a failed login attempt for identifier. When the
// attempt threshold is reached the lockout marker is set in the same atomic
// step. Returns the resulting decision so callers can surface the lockout
// immediately.
func (l *Limiter) RecordLoginFailure(ctx context.Context, identifier string) Decision {
	limit := l.cfg.LoginMaxAttempts
	attemptsKey := l.ns.Prefix(keys.LoginAttempts(identifier))
	lockKey := l.ns.Prefix(keys.LoginLockout(identifier))

	count, err := loginFailureScript.Run(ctx, l.client,
		[]string{attemptsKey, lockKey},
		l.cfg.LoginWindow.Milliseconds(),
		l.cfg.LoginLockout.Milliseconds(),
		limit,
	).Int64()
	if err != nil {
		return l.failOpen(loginScope, identifier, limit, err)
	}

	if count >= int64(limit) {
		l.log.Info().
			Str(logging.Identifier, identifier).
			Int64("attempts", count).
			Msg("login lockout engaged")
		metrics.RecordRateLimit(loginScope, "denied")
		return Decision{Allowed: false, Scope: loginScope, Limit: limit, RetryAfter: l.cfg.LoginLockout}
	}
	metrics.RecordRateLimit(loginScope, "allowed")
	return Decision{Allowed: true, Scope: loginScope, Limit: limit, Remaining: limit - int(count)}
}

// ResetLoginAttempts clears the attempt counter and lockout for identifier.
// Called only after a successful authentication; lockouts never reset
// themselves short of TTL expiry.
func (l *Limiter) ResetLoginAttempts(ctx context.Context, identifier string) error {
	return l.client.Del(ctx,
		l.ns.Prefix(keys.LoginAttempts(identifier)),
		l.ns.Prefix(keys.LoginLockout(identifier)),
	).Err()
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
