// Package metrics provides Prometheus metrics for the cachekit components:
// cache hit/miss counters, rate limit decisions, and lock acquisition
// outcomes, exposed over a standard HTTP endpoint.
//
// Example usage:
//
//	if err := metrics.Init(cfg.Metrics); err != nil {
//	    log.Fatal(err)
//	}
//	defer metrics.Shutdown(context.Background())
//
// Recording functions are safe to call before Init; they no-op until the
// metrics system is initialized, so components never need to know whether
// metrics are enabled.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hellen-edu/cachekit/pkg/config"
)

var (
	// registry is the global Prometheus registry for all metrics
	registry *prometheus.Registry

	// registryMu protects concurrent access to registry initialization
	registryMu sync.RWMutex

	// initialized tracks whether Init() has been called
	initialized bool

	// server is the HTTP server for the metrics endpoint
	server *http.Server

	// serverMu protects concurrent access to server
	serverMu sync.Mutex
)

// Init initializes the metrics system with the provided configuration.
// It creates a new Prometheus registry, registers the cachekit collectors,
// and starts an HTTP server on the configured port and path.
//
// This function is safe to call multiple times - subsequent calls are no-ops.
func Init(cfg config.MetricsConfig) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if initialized {
		return nil // Already initialized
	}

	registry = prometheus.NewRegistry()

	if err := registerCollectors(registry); err != nil {
		registry = nil
		return fmt.Errorf("failed to register cachekit collectors: %w", err)
	}

	if !cfg.Enabled {
		// Collectors stay registered so recording works, but no HTTP server.
		initialized = true
		return nil
	}

	// Add Go runtime metrics (goroutines, memory, GC, etc.)
	registry.MustRegister(prometheus.NewGoCollector())

	// Add process metrics (CPU, memory, file descriptors, etc.)
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	// Start HTTP server for metrics endpoint
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	serverMu.Lock()
	server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}
	serverMu.Unlock()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Server failed to start; metrics recording still works in-process.
			_ = err
		}
	}()

	initialized = true
	return nil
}

// Shutdown gracefully stops the metrics HTTP server and resets the registry.
func Shutdown(ctx context.Context) error {
	serverMu.Lock()
	srv := server
	server = nil
	serverMu.Unlock()

	registryMu.Lock()
	initialized = false
	registry = nil
	resetCollectors()
	registryMu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// IsInitialized reports whether Init() has been called.
func IsInitialized() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return initialized
}

// Handler returns an HTTP handler serving the current registry, for callers
// that mount metrics on their own mux instead of the built-in server.
// Returns nil if metrics are not initialized.
func Handler() http.Handler {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if !initialized {
		return nil
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
