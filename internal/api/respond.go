// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

// Package api wires the HTTP surface: the chi router, tenant validation,
// security headers, and the auth, messages, and guests handler sets.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/kukuhw/undangan/internal/logging"
)

// respondJSON writes v as the JSON response body with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError writes the flat {"error": msg} envelope used by every
// failure response.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
