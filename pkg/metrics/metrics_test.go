package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hellen-edu/cachekit/pkg/config"
)

// initForTest initializes metrics without the HTTP server and guarantees
// shutdown, keeping the global registry isolated between tests.
func initForTest(t *testing.T) {
	t.Helper()
	if err := Init(config.MetricsConfig{Enabled: false}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() {
		if err := Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	})
}

func TestInit(t *testing.T) {
	t.Run("initializes once", func(t *testing.T) {
		initForTest(t)
		if !IsInitialized() {
			t.Error("Expected IsInitialized after Init")
		}
		if err := Init(config.MetricsConfig{Enabled: false}); err != nil {
			t.Errorf("Second Init should be a no-op, got %v", err)
		}
	})

	t.Run("shutdown resets state", func(t *testing.T) {
		if err := Init(config.MetricsConfig{Enabled: false}); err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if err := Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown failed: %v", err)
		}
		if IsInitialized() {
			t.Error("Expected IsInitialized false after Shutdown")
		}
		if Handler() != nil {
			t.Error("Expected nil handler after Shutdown")
		}
	})
}

func TestRecordingBeforeInit(t *testing.T) {
	if IsInitialized() {
		t.Fatal("Test requires an uninitialized metrics system")
	}

	// None of these may panic or register anything.
	RecordCacheHit("user")
	RecordCacheMiss("user")
	RecordCacheError("user")
	RecordRateLimit("api", "allowed")
	RecordLockAcquisition("acquired")
	ObserveLockHold(0.25)
}

func TestRecording(t *testing.T) {
	initForTest(t)

	RecordCacheHit("user")
	RecordCacheHit("user")
	RecordCacheMiss("lesson")
	RecordRateLimit("api", "denied")
	RecordLockAcquisition("contended")
	ObserveLockHold(0.05)

	h := Handler()
	if h == nil {
		t.Fatal("Expected a metrics handler")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`cachekit_cache_operations_total{domain="user",outcome="hit"} 2`,
		`cachekit_cache_operations_total{domain="lesson",outcome="miss"} 1`,
		`cachekit_ratelimit_decisions_total{outcome="denied",scope="api"} 1`,
		`cachekit_lock_acquisitions_total{outcome="contended"} 1`,
		"cachekit_lock_hold_seconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in metrics output:\n%s", want, body)
		}
	}
}
