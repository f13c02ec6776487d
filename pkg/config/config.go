// Package config provides configuration management for cachekit infrastructure components.
// It supports loading configuration from YAML files, JSON files, and environment variables
// with automatic validation and default value application.
//
// Example usage:
//
//	cfg, err := config.Load("config.yaml", "HELLEN")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Or panic on error:
//	cfg := config.MustLoad("config.yaml", "HELLEN")
package config

import (
	"time"
)

// Config represents the complete configuration for the cachekit layer.
type Config struct {
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Lock      LockConfig      `mapstructure:"lock"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// RedisConfig contains the shared Redis backend connection configuration.
// One client is built from this and injected into every component.
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

// CacheConfig contains cache behavior configuration.
type CacheConfig struct {
	// Prefix is the global key prefix shared by the whole platform.
	Prefix string `mapstructure:"prefix"`

	// DefaultTTL is applied when Set/Fetch is called with a zero TTL.
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

// RateLimitConfig contains rate limiter tuning parameters.
type RateLimitConfig struct {
	// DefaultLimit and DefaultWindow apply when a caller passes zero values.
	DefaultLimit  int           `mapstructure:"default_limit"`
	DefaultWindow time.Duration `mapstructure:"default_window"`

	// Login attempt throttling. The lockout outlives the counting window so a
	// burst of failures keeps an account locked after the counter expires.
	LoginMaxAttempts int           `mapstructure:"login_max_attempts"`
	LoginWindow      time.Duration `mapstructure:"login_window"`
	LoginLockout     time.Duration `mapstructure:"login_lockout"`
}

// LockConfig contains distributed lock configuration.
type LockConfig struct {
	DefaultTTL time.Duration `mapstructure:"default_ttl"`

	// MaxTTL bounds how long a crashed holder can keep a resource locked.
	// Requested TTLs above this value are clamped.
	MaxTTL time.Duration `mapstructure:"max_ttl"`

	RetryCount int           `mapstructure:"retry_count"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// LogConfig contains structured logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// applyDefaults fills in zero values with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.MaxRetries == 0 {
		cfg.Redis.MaxRetries = 3
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}

	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "hellen"
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = time.Hour
	}

	if cfg.RateLimit.DefaultLimit == 0 {
		cfg.RateLimit.DefaultLimit = 100
	}
	if cfg.RateLimit.DefaultWindow == 0 {
		cfg.RateLimit.DefaultWindow = time.Minute
	}
	if cfg.RateLimit.LoginMaxAttempts == 0 {
		cfg.RateLimit.LoginMaxAttempts = 5
	}
	if cfg.RateLimit.LoginWindow == 0 {
		cfg.RateLimit.LoginWindow = 15 * time.Minute
	}
	if cfg.RateLimit.LoginLockout == 0 {
		cfg.RateLimit.LoginLockout = 30 * time.Minute
	}

	if cfg.Lock.DefaultTTL == 0 {
		cfg.Lock.DefaultTTL = 30 * time.Second
	}
	if cfg.Lock.MaxTTL == 0 {
		cfg.Lock.MaxTTL = 5 * time.Minute
	}
	if cfg.Lock.RetryCount == 0 {
		cfg.Lock.RetryCount = 3
	}
	if cfg.Lock.RetryDelay == 0 {
		cfg.Lock.RetryDelay = 100 * time.Millisecond
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
