package config

import (
	"fmt"
)

// Validate validates the configuration and returns an error if any required fields are missing
// or have invalid values.
func Validate(cfg *Config) error {
	// Validate Redis config
	if cfg.Redis.Host == "" {
		return fmt.Errorf("redis.host is required")
	}
	if cfg.Redis.Port <= 0 || cfg.Redis.Port > 65535 {
		return fmt.Errorf("redis.port must be between 1 and 65535")
	}
	if cfg.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative")
	}

	// Validate Cache config
	if cfg.Cache.Prefix == "" {
		return fmt.Errorf("cache.prefix is required")
	}
	if cfg.Cache.DefaultTTL < 0 {
		return fmt.Errorf("cache.default_ttl must not be negative")
	}

	// Validate RateLimit config
	if cfg.RateLimit.DefaultLimit <= 0 {
		return fmt.Errorf("rate_limit.default_limit must be positive")
	}
	if cfg.RateLimit.DefaultWindow <= 0 {
		return fmt.Errorf("rate_limit.default_window must be positive")
	}
	if cfg.RateLimit.LoginMaxAttempts <= 0 {
		return fmt.Errorf("rate_limit.login_max_attempts must be positive")
	}
	if cfg.RateLimit.LoginLockout < cfg.RateLimit.LoginWindow {
		return fmt.Errorf("rate_limit.login_lockout must not be shorter than the login window")
	}

	// Validate Lock config
	if cfg.Lock.MaxTTL <= 0 {
		return fmt.Errorf("lock.max_ttl must be positive")
	}
	if cfg.Lock.DefaultTTL > cfg.Lock.MaxTTL {
		return fmt.Errorf("lock.default_ttl must not exceed lock.max_ttl")
	}
	if cfg.Lock.RetryCount < 0 {
		return fmt.Errorf("lock.retry_count must not be negative")
	}
	if cfg.Lock.RetryDelay < 0 {
		return fmt.Errorf("lock.retry_delay must not be negative")
	}

	// Validate Metrics config (if enabled)
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port == 0 {
			return fmt.Errorf("metrics.port is required when metrics are enabled")
		}
	}

	return nil
}
