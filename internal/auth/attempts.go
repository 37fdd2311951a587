// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kukuhw/undangan/internal/logging"
	"github.com/kukuhw/undangan/internal/models"
	"github.com/kukuhw/undangan/internal/store"
)

// AttemptTracker counts failed logins per tenant in the store, with a
// rolling TTL window. Once the counter reaches the configured maximum,
// further logins for that tenant are refused until the window expires.
type AttemptTracker struct {
	store  *store.Store
	max    int
	window time.Duration
}

// NewAttemptTracker creates a tracker. max failed attempts within window
// lock the tenant's login out for the remainder of the window.
func NewAttemptTracker(s *store.Store, max int, window time.Duration) *AttemptTracker {
	return &AttemptTracker{store: s, max: max, window: window}
}

func attemptKey(tenant models.Tenant) []byte {
	return store.Key(tenant.String(), "admin", "failed_attempts")
}

// Record increments the tenant's failed-attempt counter inside a single
// transaction, refreshing the expiry window, and returns the new count.
func (t *AttemptTracker) Record(ctx context.Context, tenant models.Tenant) (int, error) {
	var count int
	err := t.store.Update(ctx, func(tx *store.Tx) error {
		count = 0
		if err := tx.Get(attemptKey(tenant), &count); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		count++
		return tx.SetWithTTL(attemptKey(tenant), count, t.window)
	})
	if err != nil {
		return 0, fmt.Errorf("record failed attempt: %w", err)
	}

	if count >= t.max {
		logging.Warn().
			Str("tenant", tenant.String()).
			Int("failed_attempts", count).
			Msg("Tenant admin login locked")
	}
	return count, nil
}

// Locked reports whether the tenant has reached the failure limit inside
// the current window. An expired counter reads as zero.
func (t *AttemptTracker) Locked(ctx context.Context, tenant models.Tenant) (bool, error) {
	var count int
	err := t.store.Get(ctx, attemptKey(tenant), &count)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check lockout: %w", err)
	}
	return count >= t.max, nil
}

// Clear removes the tenant's failed-attempt counter after a successful
// login.
func (t *AttemptTracker) Clear(ctx context.Context, tenant models.Tenant) error {
	if err := t.store.Delete(ctx, attemptKey(tenant)); err != nil {
		return fmt.Errorf("clear failed attempts: %w", err)
	}
	return nil
}
