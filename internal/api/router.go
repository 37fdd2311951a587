// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kukuhw/undangan/internal/auth"
	"github.com/kukuhw/undangan/internal/config"
	"github.com/kukuhw/undangan/internal/middleware"
	"github.com/kukuhw/undangan/internal/ratelimit"
	"github.com/kukuhw/undangan/internal/store"
)

// Handlers bundles the dependencies shared by every HTTP handler.
type Handlers struct {
	store      *store.Store
	auth       *auth.Service
	validate   *validator.Validate
	lockWindow time.Duration
	startedAt  time.Time
}

// NewHandlers creates the handler set. lockWindow is surfaced to clients
// as Retry-After when a login is refused for too many failures.
func NewHandlers(s *store.Store, authSvc *auth.Service, lockWindow time.Duration) *Handlers {
	return &Handlers{
		store:      s,
		auth:       authSvc,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		lockWindow: lockWindow,
		startedAt:  time.Now(),
	}
}

// NewRouter assembles the full HTTP surface: global middleware, the
// tenant-scoped API routes, the metrics and health endpoints, and the
// static front-end fallback.
func NewRouter(h *Handlers, limiter *ratelimit.Limiter, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))
	r.Use(SecurityHeaders)
	r.Use(limiter.Middleware)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/api/health", h.Health)

	r.Route("/api/{tenant}", func(r chi.Router) {
		r.Use(TenantValidator)

		r.Route("/auth", func(r chi.Router) {
			loginLimit := httprate.LimitByIP(cfg.Security.LoginRateLimit, cfg.Security.LoginRateWindow)
			r.With(loginLimit).Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.Post("/change-password", h.ChangePassword)
			r.Get("/check", h.CheckAuth)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", h.ListMessages)
			r.Post("/", h.CreateMessage)
			r.Delete("/{id}", h.DeleteMessage)
			r.Post("/{id}/reaction", h.AddReaction)
			r.Post("/{id}/reply", h.AddReply)
		})

		r.Route("/guests", func(r chi.Router) {
			r.Get("/", h.ListGuests)
			r.Post("/", h.CreateGuest)
			r.Put("/{id}", h.UpdateGuest)
			r.Delete("/{id}", h.DeleteGuest)
		})
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	static := newStaticHandler(cfg.Static.Root)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api" {
			respondError(w, http.StatusNotFound, "Not found")
			return
		}
		static.ServeHTTP(w, r)
	})

	return r
}
