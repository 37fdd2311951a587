// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/kukuhw/undangan/internal/auth"
	"github.com/kukuhw/undangan/internal/logging"
	"github.com/kukuhw/undangan/internal/sanitize"
)

// minPasswordLength applies to new passwords only; default and existing
// passwords are grandfathered.
const minPasswordLength = 8

type loginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /api/{tenant}/auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	password := sanitize.String(req.Password)
	if password == "" {
		respondError(w, http.StatusBadRequest, "Password required")
		return
	}

	token, err := h.auth.Login(r.Context(), tenant, password)
	switch {
	case errors.Is(err, auth.ErrLocked):
		w.Header().Set("Retry-After", strconv.Itoa(int(h.lockWindow.Seconds())))
		respondError(w, http.StatusTooManyRequests, "Too many failed attempts, try again later")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid password")
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("tenant", tenant.String()).Msg("Login failed")
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"tenant":  tenant.String(),
		"message": "Login successful",
	})
}

// Logout handles POST /api/{tenant}/auth/logout. Tokens are stateless, so
// logout is purely a client-side affair; the endpoint exists so the
// front-end has something to call.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword handles POST /api/{tenant}/auth/change-password.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	if _, err := h.auth.RequireAuth(r, tenant); err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	current := sanitize.String(req.CurrentPassword)
	newPassword := sanitize.String(req.NewPassword)
	if current == "" || newPassword == "" {
		respondError(w, http.StatusBadRequest, "Both passwords required")
		return
	}
	if len(newPassword) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	err := h.auth.ChangePassword(r.Context(), tenant, current, newPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Current password incorrect")
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("tenant", tenant.String()).Msg("Password change failed")
		respondError(w, http.StatusInternalServerError, "Failed to change password")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password changed successfully",
	})
}

// CheckAuth handles GET /api/{tenant}/auth/check. Always 200; a missing or
// invalid token reads as unauthenticated rather than an error.
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	claims, ok := h.auth.Check(r, tenant)
	if !ok {
		respondJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"tenant":        claims.Tenant,
		"role":          claims.Role,
	})
}
