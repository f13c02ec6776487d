// Package logging provides structured logging with zerolog for the cachekit
// infrastructure library. It supports configurable log levels and output
// formats (JSON/console) shared across every coordination component.
//
// Example usage:
//
//	cfg := config.LogConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//	logger := logging.New(cfg)
//	logger.Info().Str("key", "hellen:analysis:123").Msg("cache hit")
package logging

// Standard field names for structured logging.
// These constants ensure consistent field naming across all components.
const (
	// Component is the field name for the component/package generating the log.
	Component = "component"

	// Error is the field name for error information.
	Error = "error"

	// Key is the field name for a cache key.
	Key = "key"

	// Domain is the field name for the key's domain segment (analysis, lesson, ...).
	Domain = "domain"

	// Resource is the field name for a lock resource.
	Resource = "resource"

	// Scope is the field name for a rate limit scope.
	Scope = "scope"

	// Identifier is the field name for a rate limited identifier.
	Identifier = "identifier"

	// TTL is the field name for a key's time to live.
	TTL = "ttl_ms"

	// Duration is the field name for operation duration.
	Duration = "duration_ms"
)
