// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package middleware

import (
	"net/http"

	"github.com/kukuhw/undangan/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns each request a UUID, honoring one supplied by an
// upstream proxy, and places it in the context and response header so log
// lines and client reports can be correlated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = logging.GenerateRequestID()
		}
		ctx := logging.ContextWithRequestID(r.Context(), id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
