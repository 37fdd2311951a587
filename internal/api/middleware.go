// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kukuhw/undangan/internal/models"
)

// contentSecurityPolicy whitelists the CDNs and map embeds the invitation
// front-end loads. Kept in lockstep with the static pages under static/.
var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://cdn.tailwindcss.com https://cdnjs.cloudflare.com https://cdn.jsdelivr.net https://maps.googleapis.com",
	"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com https://cdnjs.cloudflare.com",
	"font-src 'self' https://fonts.gstatic.com https://cdnjs.cloudflare.com data:",
	"img-src 'self' data: https: blob: *",
	"connect-src 'self' https://maps.googleapis.com",
	"frame-src https://www.google.com https://maps.google.com https://*.google.com",
	"frame-ancestors 'none'",
}, "; ")

// SecurityHeaders applies the standard hardening header set to every
// response, API and static alike.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		next.ServeHTTP(w, r)
	})
}

// TenantValidator rejects any /api/{tenant}/... request whose tenant
// segment is not one of the fixed tenants, before the handlers run.
func TenantValidator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := models.ParseTenant(chi.URLParam(r, "tenant")); !ok {
			respondError(w, http.StatusBadRequest, "Invalid tenant")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tenantFromRequest re-parses the validated tenant path segment.
func tenantFromRequest(r *http.Request) models.Tenant {
	tenant, _ := models.ParseTenant(chi.URLParam(r, "tenant"))
	return tenant
}
