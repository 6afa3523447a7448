package jwtauth

import (
	"errors"
	"time"
)

// Config groups every Service setting. Builder clones it on WithConfig and Build, so a
// Config value can be reused after it has been handed over.
type Config struct {
	Options  Options
	Keys     KeyConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
TOKEN OPTIONS
====================================
*/

// Options are the token lifetimes read at issuance time.
type Options struct {
	TokenExpirationInSeconds        int
	RefreshTokenExpirationInSeconds int
}

const (
	// DefaultTokenExpiration is the access token lifetime (1 hour).
	DefaultTokenExpiration = 3600
	// DefaultRefreshTokenExpiration is the refresh token lifetime (30 days).
	DefaultRefreshTokenExpiration = 30 * 24 * 3600
)

func (o Options) merge(in Options) Options {
	if in.TokenExpirationInSeconds > 0 {
		o.TokenExpirationInSeconds = in.TokenExpirationInSeconds
	}
	if in.RefreshTokenExpirationInSeconds > 0 {
		o.RefreshTokenExpirationInSeconds = in.RefreshTokenExpirationInSeconds
	}
	return o
}

/*
====================================
KEYS
====================================
*/

// KeyConfig supplies the RSA keypair either inline (PEM bytes) or as file paths that
// Build loads. Inline bytes take precedence over paths for the same half.
type KeyConfig struct {
	PrivateKeyPath string
	PublicKeyPath  string
	PrivateKey     []byte
	PublicKey      []byte
}

/*
====================================
AUDIT / METRICS
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the verify latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig tunes refresh throttling. Throttling needs a Redis client
// (Builder.WithRedis) and a client IP on the context (WithClientIP).
type SecurityConfig struct {
	EnableRefreshThrottle   bool
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
	RateLimitPrefix         string
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return Config{
		Options: Options{
			TokenExpirationInSeconds:        DefaultTokenExpiration,
			RefreshTokenExpirationInSeconds: DefaultRefreshTokenExpiration,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			EnableRefreshThrottle:   false,
			MaxRefreshAttempts:      20,
			RefreshCooldownDuration: 1 * time.Minute,
			RateLimitPrefix:         "jwtauth",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Keys.PrivateKey = cloneBytes(cfg.Keys.PrivateKey)
	out.Keys.PublicKey = cloneBytes(cfg.Keys.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting in c.
func (c *Config) Validate() error {
	if c.Options.TokenExpirationInSeconds <= 0 {
		return errors.New("Options TokenExpirationInSeconds must be > 0")
	}
	if c.Options.RefreshTokenExpirationInSeconds <= 0 {
		return errors.New("Options RefreshTokenExpirationInSeconds must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	if c.Security.EnableRefreshThrottle {
		if c.Security.MaxRefreshAttempts <= 0 {
			return errors.New("Security MaxRefreshAttempts must be > 0 when refresh throttle is enabled")
		}
		if c.Security.RefreshCooldownDuration <= 0 {
			return errors.New("Security RefreshCooldownDuration must be > 0 when refresh throttle is enabled")
		}
	}

	return nil
}
