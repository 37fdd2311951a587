// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package api

import (
	"net/http"
	"time"
)

// Health handles GET /api/health. It probes the store so a wedged Badger
// instance flips the endpoint to 503 and the platform recycles the process.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Healthy(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"store":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}
