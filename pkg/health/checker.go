// Package health provides a health check framework for the cachekit
// components. It supports liveness and readiness probes for Kubernetes and
// load balancers.
//
// Example usage:
//
//	h := health.New()
//
//	// Register component checkers
//	h.RegisterChecker("cache", cacheInstance)
//	h.RegisterChecker("redis", statsInstance)
//
//	// Set up HTTP endpoints
//	http.HandleFunc("/health/live", h.LivenessHandler())
//	http.HandleFunc("/health/ready", h.ReadinessHandler())
//
// Liveness checks verify the service is running (no dependency checks).
// Readiness checks verify all registered components are healthy.
package health

import (
	"context"
)

// Checker defines the interface for health checking a component.
// The cache and stats components implement this interface directly.
type Checker interface {
	// Check performs a health check on the component.
	// Returns nil if the component is healthy, or an error describing the
	// problem. The context may include a timeout, which the implementation
	// must respect.
	Check(ctx context.Context) error
}

// CheckerFunc is a function adapter that implements the Checker interface.
type CheckerFunc func(ctx context.Context) error

// Check implements the Checker interface by calling the function.
func (f CheckerFunc) Check(ctx context.Context) error {
	return f(ctx)
}
