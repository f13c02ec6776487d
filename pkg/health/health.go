package health

import (
	"context"
	"sync"
	"time"
)

// Health manages health checks for registered components.
// It coordinates multiple checker registrations and executes them with
// caching and timeout support.
type Health struct {
	mu       sync.RWMutex
	checkers map[string]Checker

	// Result caching to prevent stampede
	cacheMu      sync.RWMutex
	cachedResult *Result
	cacheExpiry  time.Time
	cacheTTL     time.Duration

	// Default timeout for health checks
	checkTimeout time.Duration
}

// Result represents the aggregated health check result.
type Result struct {
	Status string                 `json:"status"` // "healthy" or "unhealthy"
	Checks map[string]CheckResult `json:"checks"`
}

// CheckResult represents the result of a single component health check.
type CheckResult struct {
	Status  string `json:"status"`            // "ok" or "error"
	Message string `json:"message,omitempty"` // error message if status is "error"
}

// New creates a new Health instance with default configuration.
// Default check timeout is 5 seconds and cache TTL is 1 second.
func New() *Health {
	return &Health{
		checkers:     make(map[string]Checker),
		checkTimeout: 5 * time.Second,
		cacheTTL:     1 * time.Second,
	}
}

// NewWithConfig creates a new Health instance with custom configuration.
func NewWithConfig(checkTimeout, cacheTTL time.Duration) *Health {
	return &Health{
		checkers:     make(map[string]Checker),
		checkTimeout: checkTimeout,
		cacheTTL:     cacheTTL,
	}
}

// RegisterChecker registers a health checker for a named component.
// If a checker with the same name is already registered, it will be replaced.
func (h *Health) RegisterChecker(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.checkers[name] = checker
}

// UnregisterChecker removes a health checker by name.
// Returns true if a checker was removed, false if no checker with that name existed.
func (h *Health) UnregisterChecker(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.checkers[name]; exists {
		delete(h.checkers, name)
		return true
	}
	return false
}

// Check executes all registered health checkers and returns the aggregated result.
// Results are cached for cacheTTL duration to prevent stampede under load.
// Each checker is executed with checkTimeout unless the context has a shorter deadline.
func (h *Health) Check(ctx context.Context) *Result {
	// Check cache first
	h.cacheMu.RLock()
	if h.cachedResult != nil && time.Now().Before(h.cacheExpiry) {
		result := h.cachedResult
		h.cacheMu.RUnlock()
		return result
	}
	h.cacheMu.RUnlock()

	// Execute health checks
	result := h.executeChecks(ctx)

	// Update cache
	h.cacheMu.Lock()
	h.cachedResult = result
	h.cacheExpiry = time.Now().Add(h.cacheTTL)
	h.cacheMu.Unlock()

	return result
}

// executeChecks runs all registered checkers concurrently and aggregates results.
func (h *Health) executeChecks(ctx context.Context) *Result {
	h.mu.RLock()
	checkers := make(map[string]Checker, len(h.checkers))
	for name, checker := range h.checkers {
		checkers[name] = checker
	}
	h.mu.RUnlock()

	// If no checkers registered, return healthy
	if len(checkers) == 0 {
		return &Result{
			Status: "healthy",
			Checks: make(map[string]CheckResult),
		}
	}

	type namedResult struct {
		name   string
		result CheckResult
	}

	results := make(chan namedResult, len(checkers))
	var wg sync.WaitGroup

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, h.checkTimeout)
			defer cancel()

			if err := checker.Check(checkCtx); err != nil {
				results <- namedResult{name, CheckResult{Status: "error", Message: err.Error()}}
				return
			}
			results <- namedResult{name, CheckResult{Status: "ok"}}
		}(name, checker)
	}

	wg.Wait()
	close(results)

	aggregate := &Result{
		Status: "healthy",
		Checks: make(map[string]CheckResult, len(checkers)),
	}
	for r := range results {
		aggregate.Checks[r.name] = r.result
		if r.result.Status != "ok" {
			aggregate.Status = "unhealthy"
		}
	}
	return aggregate
}
