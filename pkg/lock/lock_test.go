package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hellen-edu/cachekit/pkg/config"
	"github.com/hellen-edu/cachekit/pkg/errors"
)

func newTestLock(t *testing.T) (*Lock, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	// Single-attempt acquisition keeps contention tests fast.
	return New(client, config.LockConfig{
		RetryCount: -1,
		RetryDelay: 10 * time.Millisecond,
	}, Options{Prefix: "hellen"}), mr
}

func TestAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("returns a token and sets the key", func(t *testing.T) {
		lk, mr := newTestLock(t)

		token, err := lk.Acquire(ctx, "job:analyze:1", time.Minute)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if token == "" {
			t.Fatal("Expected a non-empty token")
		}
		got, err := mr.Get("hellen:lock:job:analyze:1")
		if err != nil {
			t.Fatalf("Failed to read lock key: %v", err)
		}
		if got != token {
			t.Errorf("Lock key holds %q, expected the token %q", got, token)
		}
	})

	t.Run("held lock cannot be reacquired", func(t *testing.T) {
		lk, _ := newTestLock(t)

		if _, err := lk.Acquire(ctx, "job:analyze:1", time.Minute); err != nil {
			t.Fatalf("First acquire failed: %v", err)
		}
		_, err := lk.Acquire(ctx, "job:analyze:1", time.Minute)
		if !errors.IsLocked(err) {
			t.Errorf("Expected locked error, got %v", err)
		}
	})

	t.Run("released lock can be reacquired", func(t *testing.T) {
		lk, _ := newTestLock(t)

		token, err := lk.Acquire(ctx, "job:analyze:1", time.Minute)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if err := lk.Release(ctx, "job:analyze:1", token); err != nil {
			t.Fatalf("Release failed: %v", err)
		}
		if _, err := lk.Acquire(ctx, "job:analyze:1", time.Minute); err != nil {
			t.Errorf("Reacquire after release failed: %v", err)
		}
	})

	t.Run("expired lock can be reacquired", func(t *testing.T) {
		lk, mr := newTestLock(t)

		if _, err := lk.Acquire(ctx, "job:analyze:1", time.Second); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		mr.FastForward(2 * time.Second)
		if _, err := lk.Acquire(ctx, "job:analyze:1", time.Second); err != nil {
			t.Errorf("Reacquire after expiry failed: %v", err)
		}
	})

	t.Run("zero TTL uses the default", func(t *testing.T) {
		lk, mr := newTestLock(t)

		if _, err := lk.Acquire(ctx, "job:analyze:1", 0); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if got := mr.TTL("hellen:lock:job:analyze:1"); got != 30*time.Second {
			t.Errorf("Expected default 30s TTL, got %v", got)
		}
	})

	t.Run("TTL is clamped to the maximum", func(t *testing.T) {
		lk, mr := newTestLock(t)

		if _, err := lk.Acquire(ctx, "job:analyze:1", time.Hour); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if got := mr.TTL("hellen:lock:job:analyze:1"); got != MaxTTL {
			t.Errorf("Expected TTL clamped to %v, got %v", MaxTTL, got)
		}
	})

	t.Run("backend failure fails closed with a cause", func(t *testing.T) {
		lk, mr := newTestLock(t)
		mr.Close()

		_, err := lk.Acquire(ctx, "job:analyze:1", time.Minute)
		if !errors.IsLocked(err) {
			t.Fatalf("Expected locked error, got %v", err)
		}
		var le *errors.LockedError
		if !errors.As(err, &le) || le.Unwrap() == nil {
			t.Error("Expected the backend failure as the locked error's cause")
		}
	})

	t.Run("retries win once the holder releases", func(t *testing.T) {
		lk, _ := newTestLock(t)

		token, err := lk.Acquire(ctx, "job:analyze:1", time.Minute)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}

		release := time.AfterFunc(30*time.Millisecond, func() {
			lk.Release(ctx, "job:analyze:1", token)
		})
		defer release.Stop()

		if _, err := lk.AcquireWithRetry(ctx, "job:analyze:1", time.Minute, 10, 10*time.Millisecond); err != nil {
			t.Errorf("Acquire with retries failed: %v", err)
		}
	})
}

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong token is not owner", func(t *testing.T) {
		lk, mr := newTestLock(t)

		token, err := lk.Acquire(ctx, "job:analyze:1", time.Minute)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if err := lk.Release(ctx, "job:analyze:1", "someone-else"); !errors.IsNotOwner(err) {
			t.Errorf("Expected not-owner error, got %v", err)
		}
		// The holder's lock must survive the failed release.
		got, _ := mr.Get("hellen:lock:job:analyze:1")
		if got != token {
			t.Error("Failed release removed the holder's lock")
		}
	})

	t.Run("expired lock is not owner", func(t *testing.T) {
		lk, mr := newTestLock(t)

		token, err := lk.Acquire(ctx, "job:analyze:1", time.Second)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		mr.FastForward(2 * time.Second)
		if err := lk.Release(ctx, "job:analyze:1", token); !errors.IsNotOwner(err) {
			t.Errorf("Expected not-owner error, got %v", err)
		}
	})
}

func TestExtend(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes the expiry", func(t *testing.T) {
		lk, mr := newTestLock(t)

		token, err := lk.Acquire(ctx, "job:analyze:1", time.Minute)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if err := lk.Extend(ctx, "job:analyze:1", token, 2*time.Minute); err != nil {
			t.Fatalf("Extend failed: %v", err)
		}
		if got := mr.TTL("hellen:lock:job:analyze:1"); got != 2*time.Minute {
			t.Errorf("Expected 2m TTL after extend, got %v", got)
		}
	})

	t.Run("wrong token is not owner", func(t *testing.T) {
		lk, _ := newTestLock(t)

		if _, err := lk.Acquire(ctx, "job:analyze:1", time.Minute); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if err := lk.Extend(ctx, "job:analyze:1", "someone-else", time.Minute); !errors.IsNotOwner(err) {
			t.Errorf("Expected not-owner error, got %v", err)
		}
	})

	t.Run("extension is clamped to the maximum", func(t *testing.T) {
		lk, mr := newTestLock(t)

		token, err := lk.Acquire(ctx, "job:analyze:1", time.Minute)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if err := lk.Extend(ctx, "job:analyze:1", token, time.Hour); err != nil {
			t.Fatalf("Extend failed: %v", err)
		}
		if got := mr.TTL("hellen:lock:job:analyze:1"); got != MaxTTL {
			t.Errorf("Expected TTL clamped to %v, got %v", MaxTTL, got)
		}
	})
}

func TestIsLockedAndTTL(t *testing.T) {
	ctx := context.Background()
	lk, _ := newTestLock(t)

	locked, err := lk.IsLocked(ctx, "job:analyze:1")
	if err != nil {
		t.Fatalf("IsLocked failed: %v", err)
	}
	if locked {
		t.Error("Fresh resource should not be locked")
	}
	if _, err := lk.TTL(ctx, "job:analyze:1"); !errors.IsNotFound(err) {
		t.Errorf("Expected not found for missing lock, got %v", err)
	}

	if _, err := lk.Acquire(ctx, "job:analyze:1", time.Minute); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	locked, err = lk.IsLocked(ctx, "job:analyze:1")
	if err != nil {
		t.Fatalf("IsLocked failed: %v", err)
	}
	if !locked {
		t.Error("Resource should be locked")
	}
	d, err := lk.TTL(ctx, "job:analyze:1")
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if d != time.Minute {
		t.Errorf("Expected 1m TTL, got %v", d)
	}
}

func TestForceRelease(t *testing.T) {
	ctx := context.Background()
	lk, mr := newTestLock(t)

	if _, err := lk.Acquire(ctx, "job:analyze:1", time.Minute); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := lk.ForceRelease(ctx, "job:analyze:1"); err != nil {
		t.Fatalf("ForceRelease failed: %v", err)
	}
	if mr.Exists("hellen:lock:job:analyze:1") {
		t.Error("Lock key survived force release")
	}
}

func TestWithLock(t *testing.T) {
	ctx := context.Background()

	t.Run("runs fn and releases", func(t *testing.T) {
		lk, mr := newTestLock(t)

		v, err := lk.WithLock(ctx, "job:analyze:1", func(ctx context.Context) (interface{}, error) {
			if !mr.Exists("hellen:lock:job:analyze:1") {
				t.Error("Lock not held while fn runs")
			}
			return "done", nil
		}, nil)
		if err != nil {
			t.Fatalf("WithLock failed: %v", err)
		}
		if v != "done" {
			t.Errorf("Expected fn result, got %v", v)
		}
		if mr.Exists("hellen:lock:job:analyze:1") {
			t.Error("Lock key survived WithLock")
		}
	})

	t.Run("releases when fn fails", func(t *testing.T) {
		lk, mr := newTestLock(t)

		_, err := lk.WithLock(ctx, "job:analyze:1", func(ctx context.Context) (interface{}, error) {
			return nil, errors.NewPermanent("work exploded", nil)
		}, nil)
		if !errors.IsPermanent(err) {
			t.Errorf("Expected fn error, got %v", err)
		}
		if mr.Exists("hellen:lock:job:analyze:1") {
			t.Error("Lock key survived fn failure")
		}
	})

	t.Run("releases when fn panics", func(t *testing.T) {
		lk, mr := newTestLock(t)

		func() {
			defer func() {
				if recover() == nil {
					t.Error("Expected the panic to propagate")
				}
			}()
			lk.WithLock(ctx, "job:analyze:1", func(ctx context.Context) (interface{}, error) {
				panic("worker bug")
			}, nil)
		}()

		if mr.Exists("hellen:lock:job:analyze:1") {
			t.Error("Lock key survived fn panic")
		}
	})

	t.Run("locked without fallback returns the error", func(t *testing.T) {
		lk, _ := newTestLock(t)

		if _, err := lk.Acquire(ctx, "job:analyze:1", time.Minute); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		_, err := lk.WithLock(ctx, "job:analyze:1", func(ctx context.Context) (interface{}, error) {
			t.Error("fn ran despite held lock")
			return nil, nil
		}, &WithLockOptions{RetryCount: -1})
		if !errors.IsLocked(err) {
			t.Errorf("Expected locked error, got %v", err)
		}
	})

	t.Run("locked with fallback runs OnLocked", func(t *testing.T) {
		lk, _ := newTestLock(t)

		if _, err := lk.Acquire(ctx, "job:analyze:1", time.Minute); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		v, err := lk.WithLock(ctx, "job:analyze:1", func(ctx context.Context) (interface{}, error) {
			t.Error("fn ran despite held lock")
			return nil, nil
		}, &WithLockOptions{
			RetryCount: -1,
			OnLocked: func(ctx context.Context) (interface{}, error) {
				return "fallback", nil
			},
		})
		if err != nil {
			t.Fatalf("WithLock failed: %v", err)
		}
		if v != "fallback" {
			t.Errorf("Expected fallback result, got %v", v)
		}
	})
}
