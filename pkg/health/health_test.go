package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hellen-edu/cachekit/pkg/errors"
)

func TestCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("no checkers is healthy", func(t *testing.T) {
		h := New()
		result := h.Check(ctx)
		if result.Status != "healthy" {
			t.Errorf("Expected healthy, got %q", result.Status)
		}
		if len(result.Checks) != 0 {
			t.Errorf("Expected no checks, got %v", result.Checks)
		}
	})

	t.Run("all passing is healthy", func(t *testing.T) {
		h := New()
		h.RegisterChecker("cache", CheckerFunc(func(ctx context.Context) error { return nil }))
		h.RegisterChecker("redis", CheckerFunc(func(ctx context.Context) error { return nil }))

		result := h.Check(ctx)
		if result.Status != "healthy" {
			t.Errorf("Expected healthy, got %q", result.Status)
		}
		if len(result.Checks) != 2 {
			t.Errorf("Expected 2 checks, got %d", len(result.Checks))
		}
		if result.Checks["cache"].Status != "ok" {
			t.Errorf("Expected cache ok, got %+v", result.Checks["cache"])
		}
	})

	t.Run("one failure makes the whole result unhealthy", func(t *testing.T) {
		h := New()
		h.RegisterChecker("cache", CheckerFunc(func(ctx context.Context) error { return nil }))
		h.RegisterChecker("redis", CheckerFunc(func(ctx context.Context) error {
			return errors.NewTemporary("backend unreachable", nil)
		}))

		result := h.Check(ctx)
		if result.Status != "unhealthy" {
			t.Errorf("Expected unhealthy, got %q", result.Status)
		}
		if result.Checks["redis"].Status != "error" {
			t.Errorf("Expected redis error, got %+v", result.Checks["redis"])
		}
		if !strings.Contains(result.Checks["redis"].Message, "unreachable") {
			t.Errorf("Expected failure reason, got %q", result.Checks["redis"].Message)
		}
		if result.Checks["cache"].Status != "ok" {
			t.Errorf("Healthy checker should stay ok, got %+v", result.Checks["cache"])
		}
	})

	t.Run("results are cached briefly", func(t *testing.T) {
		h := NewWithConfig(time.Second, time.Minute)
		calls := 0
		h.RegisterChecker("cache", CheckerFunc(func(ctx context.Context) error {
			calls++
			return nil
		}))

		h.Check(ctx)
		h.Check(ctx)
		h.Check(ctx)
		if calls != 1 {
			t.Errorf("Expected 1 execution within the cache TTL, got %d", calls)
		}
	})

	t.Run("slow checkers hit the timeout", func(t *testing.T) {
		h := NewWithConfig(20*time.Millisecond, 0)
		h.RegisterChecker("slow", CheckerFunc(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
				return nil
			}
		}))

		start := time.Now()
		result := h.Check(ctx)
		if time.Since(start) > 500*time.Millisecond {
			t.Error("Check did not respect the configured timeout")
		}
		if result.Status != "unhealthy" {
			t.Errorf("Expected unhealthy after timeout, got %q", result.Status)
		}
	})
}

func TestUnregisterChecker(t *testing.T) {
	h := NewWithConfig(time.Second, 0)
	h.RegisterChecker("cache", CheckerFunc(func(ctx context.Context) error {
		return errors.NewTemporary("down", nil)
	}))

	if !h.UnregisterChecker("cache") {
		t.Error("Expected removal of a registered checker")
	}
	if h.UnregisterChecker("cache") {
		t.Error("Second removal should report false")
	}

	if result := h.Check(context.Background()); result.Status != "healthy" {
		t.Errorf("Expected healthy after removing the failing checker, got %q", result.Status)
	}
}

func TestHandlers(t *testing.T) {
	t.Run("liveness always answers 200", func(t *testing.T) {
		h := New()
		h.RegisterChecker("redis", CheckerFunc(func(ctx context.Context) error {
			return errors.NewTemporary("down", nil)
		}))

		rec := httptest.NewRecorder()
		h.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("readiness answers 200 when healthy", func(t *testing.T) {
		h := New()
		h.RegisterChecker("redis", CheckerFunc(func(ctx context.Context) error { return nil }))

		rec := httptest.NewRecorder()
		h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("readiness answers 503 when a check fails", func(t *testing.T) {
		h := New()
		h.RegisterChecker("redis", CheckerFunc(func(ctx context.Context) error {
			return errors.NewTemporary("down", nil)
		}))

		rec := httptest.NewRecorder()
		h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "unhealthy") {
			t.Errorf("Expected detailed body, got %q", rec.Body.String())
		}
	})
}
