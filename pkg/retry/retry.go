// Package retry provides retry logic with backoff for transient failures.
//
// It wraps github.com/cenkalti/backoff/v5 and integrates it with the cachekit
// error package so retry policies can key off error types: by default only
// Temporary (backend unavailable) errors are retried. Lock acquisition uses a
// constant-interval policy; callers talking to a flaky backend typically use
// exponential backoff with jitter.
//
// Example usage:
//
//	cfg := retry.Config{
//		MaxAttempts:  5,
//		InitialDelay: 100 * time.Millisecond,
//		MaxDelay:     5 * time.Second,
//		Multiplier:   2.0,
//		Policy:       retry.PolicyTemporary,
//	}
//
//	err := retry.Do(ctx, cfg, func() error {
//		return someOperation()
//	})
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/hellen-edu/cachekit/pkg/errors"
)

// Policy determines which errors are retried.
type Policy int

const (
	// PolicyTemporary retries only Temporary errors. The default.
	PolicyTemporary Policy = iota

	// PolicyAll retries every error.
	PolicyAll

	// PolicyNone executes exactly once.
	PolicyNone
)

// Config tunes retry behavior.
type Config struct {
	// MaxAttempts bounds total attempts (including the first). 0 means 3.
	MaxAttempts int

	// InitialDelay is the first backoff interval. 0 means 100ms.
	InitialDelay time.Duration

	// MaxDelay caps the backoff interval. 0 means 5s.
	MaxDelay time.Duration

	// Multiplier grows the interval between attempts. 0 means 2.0;
	// use 1.0 for a constant delay.
	Multiplier float64

	// Jitter randomizes intervals to avoid thundering herds. Negative
	// disables; 0 means 0.1.
	Jitter float64

	// MaxElapsedTime bounds the total retry duration. 0 means unbounded
	// (the attempt budget still applies).
	MaxElapsedTime time.Duration

	// Policy selects which errors are retried.
	Policy Policy

	// PolicyFunc overrides Policy when set.
	PolicyFunc func(error) bool
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 5 * time.Second
	}
	if c.Multiplier == 0 {
		c.Multiplier = 2.0
	}
	if c.Jitter == 0 {
		c.Jitter = 0.1
	} else if c.Jitter < 0 {
		c.Jitter = 0
	}
	return c
}

func (c Config) shouldRetry(err error) bool {
	if c.PolicyFunc != nil {
		return c.PolicyFunc(err)
	}
	switch c.Policy {
	case PolicyAll:
		return true
	case PolicyNone:
		return false
	default:
		return errors.IsTemporary(err)
	}
}

// Do executes fn with retry logic based on the configuration. It respects
// context cancellation and applies backoff between attempts. Returns the
// error from the last attempt if the budget is exhausted.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	_, err := DoWithData(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithData executes fn with retry logic and returns its value.
func DoWithData[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	b.MaxInterval = cfg.MaxDelay
	b.Multiplier = cfg.Multiplier
	b.RandomizationFactor = cfg.Jitter

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
	}
	if cfg.MaxElapsedTime > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(cfg.MaxElapsedTime))
	}

	operation := func() (T, error) {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !cfg.shouldRetry(err) {
			var zero T
			return zero, backoff.Permanent(err)
		}
		return result, err
	}

	return backoff.Retry(ctx, operation, opts...)
}
