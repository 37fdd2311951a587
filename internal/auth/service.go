// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/kukuhw/undangan/internal/logging"
	"github.com/kukuhw/undangan/internal/models"
	"github.com/kukuhw/undangan/internal/store"
)

var (
	// ErrInvalidCredentials is returned for a wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrLocked is returned when the tenant has exceeded the failed-login
	// limit for the current window.
	ErrLocked = errors.New("auth: too many failed attempts")

	// ErrUnauthorized is returned for a missing, invalid, expired, or
	// cross-tenant bearer token.
	ErrUnauthorized = errors.New("auth: unauthorized")
)

// Service orchestrates login, password change, and request authorization
// for tenant admin accounts.
//
// Each tenant's credential has a two-state lifecycle. Before the first
// successful login no hash is stored and the account answers only to its
// compiled-in default password; the first successful login persists a hash
// and the account permanently switches to hash verification.
type Service struct {
	store    *store.Store
	tokens   *TokenService
	attempts *AttemptTracker
	defaults map[models.Tenant]string
}

// NewService creates the auth service. defaults maps each tenant to its
// bootstrap password.
func NewService(s *store.Store, tokens *TokenService, attempts *AttemptTracker, defaults map[models.Tenant]string) *Service {
	return &Service{store: s, tokens: tokens, attempts: attempts, defaults: defaults}
}

func credentialKey(tenant models.Tenant) []byte {
	return store.Key(tenant.String(), "admin", "password")
}

// Login verifies the password for the tenant admin account and issues a
// bearer token. Failed attempts are counted with a rolling TTL window and
// refused once the limit is reached; the counter is cleared on success.
func (s *Service) Login(ctx context.Context, tenant models.Tenant, password string) (string, error) {
	locked, err := s.attempts.Locked(ctx, tenant)
	if err != nil {
		return "", err
	}
	if locked {
		return "", ErrLocked
	}

	if err := s.verifyCurrent(ctx, tenant, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if _, recErr := s.attempts.Record(ctx, tenant); recErr != nil {
				logging.Error().Err(recErr).Str("tenant", tenant.String()).Msg("Failed to record login attempt")
			}
		}
		return "", err
	}

	if err := s.attempts.Clear(ctx, tenant); err != nil {
		logging.Error().Err(err).Str("tenant", tenant.String()).Msg("Failed to clear login attempts")
	}

	token, err := s.tokens.Issue(tenant, RoleAdmin)
	if err != nil {
		return "", err
	}

	logging.Info().Str("tenant", tenant.String()).Msg("Admin login succeeded")
	return token, nil
}

// verifyCurrent checks a password against the tenant's current credential:
// the stored hash when one exists, the compiled-in default otherwise. A
// successful default-password login persists the hash via an atomic
// create-if-absent write, so two concurrent first logins cannot clobber
// each other; the transaction loser falls back to verifying the hash the
// winner stored.
func (s *Service) verifyCurrent(ctx context.Context, tenant models.Tenant, password string) error {
	var storedHash string
	err := s.store.Get(ctx, credentialKey(tenant), &storedHash)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s.verifyDefaultAndBootstrap(ctx, tenant, password)
	case err != nil:
		return fmt.Errorf("load credential: %w", err)
	}

	if !VerifyPassword(password, storedHash) {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Service) verifyDefaultAndBootstrap(ctx context.Context, tenant models.Tenant, password string) error {
	defaultPassword, ok := s.defaults[tenant]
	if !ok || subtle.ConstantTimeCompare([]byte(password), []byte(defaultPassword)) != 1 {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	var raced string
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		raced = ""
		getErr := tx.Get(credentialKey(tenant), &raced)
		if errors.Is(getErr, store.ErrNotFound) {
			return tx.Set(credentialKey(tenant), hash)
		}
		return getErr
	})
	if err != nil {
		return fmt.Errorf("persist bootstrap credential: %w", err)
	}

	if raced != "" && !VerifyPassword(password, raced) {
		return ErrInvalidCredentials
	}

	logging.Info().Str("tenant", tenant.String()).Msg("Default password bootstrapped to stored hash")
	return nil
}

// ChangePassword verifies the current password exactly as login does and
// replaces the stored credential with a hash of the new password. Callers
// enforce token authorization and the minimum length before invoking it.
func (s *Service) ChangePassword(ctx context.Context, tenant models.Tenant, current, newPassword string) error {
	if err := s.verifyCurrent(ctx, tenant, current); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	if err := s.store.Set(ctx, credentialKey(tenant), hash); err != nil {
		return fmt.Errorf("persist new credential: %w", err)
	}

	logging.Info().Str("tenant", tenant.String()).Msg("Admin password changed")
	return nil
}

// RequireAuth authorizes a mutating request: the bearer token must be
// structurally valid, unexpired, and issued for the request's path tenant.
// A tenant mismatch is a hard rejection; this is the sole tenant-isolation
// enforcement point for mutations.
func (s *Service) RequireAuth(r *http.Request, tenant models.Tenant) (*Claims, error) {
	claims, err := s.tokens.FromRequest(r)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if claims.Tenant != tenant.String() {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// Check answers the auth-status query. Unlike RequireAuth it never errors:
// a missing or invalid token simply reads as unauthenticated.
func (s *Service) Check(r *http.Request, tenant models.Tenant) (*Claims, bool) {
	claims, err := s.tokens.FromRequest(r)
	if err != nil || claims.Tenant != tenant.String() {
		return nil, false
	}
	return claims, true
}
