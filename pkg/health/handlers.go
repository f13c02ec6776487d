package health

import (
	"encoding/json"
	"net/http"
)

// LivenessHandler returns an HTTP handler that responds to liveness probes.
// This handler always returns 200 OK with no dependency checks: if the
// process can answer, it is alive.
//
// Example usage:
//
//	h := health.New()
//	http.HandleFunc("/health/live", h.LivenessHandler())
func (h *Health) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		response := map[string]string{
			"status": "alive",
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// ReadinessHandler returns an HTTP handler that responds to readiness probes
// by executing all registered component checkers.
//
// Returns 200 OK if all checks pass, 503 Service Unavailable if any check
// fails. The response includes detailed status for each registered component.
//
// Example usage:
//
//	h := health.New()
//	h.RegisterChecker("cache", cacheInstance)
//	http.HandleFunc("/health/ready", h.ReadinessHandler())
func (h *Health) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")

		if result.Status == "healthy" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(result)
	}
}
