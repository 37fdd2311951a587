// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukuhw/undangan/internal/models"
	"github.com/kukuhw/undangan/internal/store"
)

const testDefaultPassword = "@TestAdmin2026"

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()

	st, err := store.Open(store.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tokens := NewTokenService("test-secret", time.Hour)
	attempts := NewAttemptTracker(st, 5, time.Hour)
	defaults := map[models.Tenant]string{
		models.TenantGroom: testDefaultPassword,
		models.TenantBride: "@OtherAdmin2026",
	}
	return NewService(st, tokens, attempts, defaults), st
}

func TestLoginBootstrapsDefaultPassword(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	token, err := svc.Login(ctx, models.TenantGroom, testDefaultPassword)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// First login must have persisted a hash, not the plaintext.
	var stored string
	require.NoError(t, st.Get(ctx, store.Key("groom", "admin", "password"), &stored))
	assert.NotEqual(t, testDefaultPassword, stored)
	assert.True(t, VerifyPassword(testDefaultPassword, stored))

	// Subsequent logins verify against the stored hash.
	_, err = svc.Login(ctx, models.TenantGroom, testDefaultPassword)
	require.NoError(t, err)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.TenantGroom, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// A failed default-phase login must not bootstrap a credential.
	_, err = svc.Login(ctx, models.TenantGroom, testDefaultPassword)
	assert.NoError(t, err)
}

func TestLoginLockoutAfterMaxFailures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, models.TenantGroom, "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Even the correct password is refused while locked.
	_, err := svc.Login(ctx, models.TenantGroom, testDefaultPassword)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestLoginClearsAttemptsOnSuccess(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, models.TenantGroom, "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := svc.Login(ctx, models.TenantGroom, testDefaultPassword)
	require.NoError(t, err)

	// The counter restarted from zero, so four more failures do not lock.
	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, models.TenantGroom, "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err = svc.Login(ctx, models.TenantGroom, testDefaultPassword)
	assert.NoError(t, err)
}

func TestLockoutIsPerTenant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = svc.Login(ctx, models.TenantGroom, "wrong")
	}
	_, err := svc.Login(ctx, models.TenantGroom, testDefaultPassword)
	assert.ErrorIs(t, err, ErrLocked)

	_, err = svc.Login(ctx, models.TenantBride, "@OtherAdmin2026")
	assert.NoError(t, err, "bride must be unaffected by groom's lockout")
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Change straight off the default password, before any login.
	err := svc.ChangePassword(ctx, models.TenantGroom, testDefaultPassword, "new-password-123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.TenantGroom, testDefaultPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "old default must stop working")

	_, err = svc.Login(ctx, models.TenantGroom, "new-password-123")
	assert.NoError(t, err)
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, models.TenantGroom, "wrong", "new-password-123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRequireAuth(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.Login(ctx, models.TenantGroom, testDefaultPassword)
	require.NoError(t, err)

	t.Run("matching tenant", func(t *testing.T) {
		r := httptest.NewRequest("DELETE", "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		claims, err := svc.RequireAuth(r, models.TenantGroom)
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, claims.Role)
	})

	t.Run("cross tenant", func(t *testing.T) {
		r := httptest.NewRequest("DELETE", "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		_, err := svc.RequireAuth(r, models.TenantBride)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("no token", func(t *testing.T) {
		r := httptest.NewRequest("DELETE", "/", nil)
		_, err := svc.RequireAuth(r, models.TenantGroom)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestCheck(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.Login(ctx, models.TenantGroom, testDefaultPassword)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	claims, ok := svc.Check(r, models.TenantGroom)
	require.True(t, ok)
	assert.Equal(t, "groom", claims.Tenant)

	_, ok = svc.Check(r, models.TenantBride)
	assert.False(t, ok)

	_, ok = svc.Check(httptest.NewRequest("GET", "/", nil), models.TenantGroom)
	assert.False(t, ok)
}
