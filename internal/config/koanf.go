// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/undangan/config.yaml",
	"/etc/undangan/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. These are
// layered first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8000,
			Timeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			JWTSecret:         InsecureDefaultSecret,
			TokenTTL:          24 * time.Hour,
			RateLimitRequests: 60,
			RateLimitWindow:   time.Minute,
			LoginRateLimit:    5,
			LoginRateWindow:   5 * time.Minute,
			MaxFailedLogins:   5,
			FailedLoginTTL:    time.Hour,
			DefaultPasswords: map[string]string{
				"groom": "@KukuhAdmin2026",
				"bride": "@FitrianiAdmin2026",
			},
		},
		Store: StoreConfig{
			Path:     "/data/undangan",
			InMemory: false,
		},
		Static: StaticConfig{
			Root: "./static",
		},
		Backup: BackupConfig{
			Enabled:  false,
			Dir:      "/data/undangan-backups",
			Interval: 24 * time.Hour,
			Keep:     7,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so random environment noise cannot pollute
// the configuration.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		"http_host":    "server.host",
		"http_port":    "server.port",
		"port":         "server.port", // Deno Deploy convention kept for parity
		"http_timeout": "server.timeout",

		"jwt_secret":             "security.jwt_secret",
		"token_ttl":              "security.token_ttl",
		"rate_limit_requests":    "security.rate_limit_requests",
		"rate_limit_window":      "security.rate_limit_window",
		"login_rate_limit":       "security.login_rate_limit",
		"login_rate_window":      "security.login_rate_window",
		"max_failed_logins":      "security.max_failed_logins",
		"failed_login_ttl":       "security.failed_login_ttl",
		"groom_default_password": "security.default_passwords.groom",
		"bride_default_password": "security.default_passwords.bride",

		"store_path":      "store.path",
		"store_in_memory": "store.in_memory",

		"static_root": "static.root",

		"backup_enabled":  "backup.enabled",
		"backup_dir":      "backup.dir",
		"backup_interval": "backup.interval",
		"backup_keep":     "backup.keep",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
