// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

// Package config loads and validates server configuration using Koanf v2
// with layered sources: built-in defaults, an optional YAML config file,
// and environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// InsecureDefaultSecret is the compiled-in token signing secret used when
// JWT_SECRET is not configured. Deployments must override it; main logs a
// warning when this fallback is active.
const InsecureDefaultSecret = "wedding-invitation-secret-key-change-in-production"

// Config is the root configuration struct.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Store    StoreConfig    `koanf:"store"`
	Static   StaticConfig   `koanf:"static"`
	Backup   BackupConfig   `koanf:"backup"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig holds authentication, rate limiting, and lockout settings.
type SecurityConfig struct {
	// JWTSecret signs bearer tokens. Falls back to InsecureDefaultSecret
	// when empty.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL is the bearer token lifetime.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// RateLimitRequests and RateLimitWindow configure the global
	// per-client-IP fixed-window limiter backed by the store.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	// LoginRateLimit and LoginRateWindow configure the stricter per-IP
	// limiter in front of the login endpoint.
	LoginRateLimit  int           `koanf:"login_rate_limit"`
	LoginRateWindow time.Duration `koanf:"login_rate_window"`

	// MaxFailedLogins is the number of failed logins per tenant before
	// further attempts are refused for the remainder of FailedLoginTTL.
	MaxFailedLogins int           `koanf:"max_failed_logins"`
	FailedLoginTTL  time.Duration `koanf:"failed_login_ttl"`

	// DefaultPasswords maps tenant name to its bootstrap password. The
	// stored credential is created on the first successful login against
	// this value; absence of a stored hash means the tenant is still on
	// the default password.
	DefaultPasswords map[string]string `koanf:"default_passwords"`
}

// StoreConfig holds BadgerDB settings.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// BackupConfig holds periodic store backup settings.
type BackupConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Dir      string        `koanf:"dir"`
	Interval time.Duration `koanf:"interval"`

	// Keep is how many snapshots are retained; older ones are pruned.
	Keep int `koanf:"keep"`
}

// StaticConfig holds the static front-end root directory.
type StaticConfig struct {
	Root string `koanf:"root"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsDefaultSecret reports whether the insecure compiled-in signing secret
// is in effect.
func (c *SecurityConfig) IsDefaultSecret() bool {
	return c.JWTSecret == InsecureDefaultSecret
}

// Validate checks the configuration for values that would break the server
// at runtime. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret must not be empty")
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("security.token_ttl must be positive, got %v", c.Security.TokenTTL)
	}
	if c.Security.RateLimitRequests < 1 {
		return fmt.Errorf("security.rate_limit_requests must be at least 1, got %d", c.Security.RateLimitRequests)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("security.rate_limit_window must be positive, got %v", c.Security.RateLimitWindow)
	}
	if c.Security.MaxFailedLogins < 1 {
		return fmt.Errorf("security.max_failed_logins must be at least 1, got %d", c.Security.MaxFailedLogins)
	}
	if len(c.Security.DefaultPasswords) == 0 {
		return fmt.Errorf("security.default_passwords must not be empty")
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required unless store.in_memory is set")
	}
	if c.Backup.Enabled {
		if c.Backup.Dir == "" {
			return fmt.Errorf("backup.dir is required when backup.enabled is set")
		}
		if c.Backup.Interval <= 0 {
			return fmt.Errorf("backup.interval must be positive, got %v", c.Backup.Interval)
		}
		if c.Backup.Keep < 1 {
			return fmt.Errorf("backup.keep must be at least 1, got %d", c.Backup.Keep)
		}
	}
	return nil
}
