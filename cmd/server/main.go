// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

// Command server runs the wedding invitation backend: the tenant-scoped
// JSON API plus the static invitation pages, backed by an embedded
// BadgerDB store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kukuhw/undangan/internal/api"
	"github.com/kukuhw/undangan/internal/auth"
	"github.com/kukuhw/undangan/internal/backup"
	"github.com/kukuhw/undangan/internal/config"
	"github.com/kukuhw/undangan/internal/logging"
	"github.com/kukuhw/undangan/internal/models"
	"github.com/kukuhw/undangan/internal/ratelimit"
	"github.com/kukuhw/undangan/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if cfg.Security.IsDefaultSecret() {
		logging.Warn().Msg("JWT_SECRET is not set, using the insecure built-in signing secret")
	}

	st, err := store.Open(store.Options{
		Path:     cfg.Store.Path,
		InMemory: cfg.Store.InMemory,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close store")
		}
	}()

	defaults := make(map[models.Tenant]string, len(cfg.Security.DefaultPasswords))
	for name, password := range cfg.Security.DefaultPasswords {
		tenant, ok := models.ParseTenant(name)
		if !ok {
			return fmt.Errorf("unknown tenant %q in default_passwords", name)
		}
		defaults[tenant] = password
	}

	tokens := auth.NewTokenService(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	attempts := auth.NewAttemptTracker(st, cfg.Security.MaxFailedLogins, cfg.Security.FailedLoginTTL)
	authSvc := auth.NewService(st, tokens, attempts, defaults)

	if cfg.Backup.Enabled {
		mgr := backup.New(st, cfg.Backup.Dir, cfg.Backup.Interval, cfg.Backup.Keep)
		backupCtx, stopBackups := context.WithCancel(context.Background())
		defer stopBackups()
		go mgr.Run(backupCtx)
		logging.Info().
			Str("dir", cfg.Backup.Dir).
			Dur("interval", cfg.Backup.Interval).
			Msg("Periodic backups enabled")
	}

	limiter := ratelimit.New(st, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow)
	handlers := api.NewHandlers(st, authSvc, cfg.Security.FailedLoginTTL)
	router := api.NewRouter(handlers, limiter, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Str("addr", addr).
			Str("store", cfg.Store.Path).
			Str("static", cfg.Static.Root).
			Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logging.Info().Msg("Server stopped")
	return nil
}
