// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

// Package ratelimit implements a fixed-window per-client request limiter
// whose window state lives in the key-value store rather than process
// memory, so the counters survive restarts and are shared by every replica
// pointed at the same store.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/kukuhw/undangan/internal/logging"
	"github.com/kukuhw/undangan/internal/store"
)

// Result is the outcome of a limiter check.
type Result struct {
	Allowed   bool
	Remaining int
}

// ttlSlack pads the stored record's expiry past ResetAt. Badger expiries
// have one-second granularity, and the window boundary must come from
// ResetAt, not from the record vanishing early.
const ttlSlack = time.Second

// window is the stored per-client record. ResetAt is ms epoch, matching
// the timestamps used across the rest of the store.
type window struct {
	Count   int   `json:"count"`
	ResetAt int64 `json:"resetAt"`
}

// Limiter enforces a fixed request budget per client key per window.
type Limiter struct {
	store  *store.Store
	limit  int
	window time.Duration
}

// New creates a limiter allowing limit requests per window for each
// distinct client key.
func New(s *store.Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: s, limit: limit, window: window}
}

// Check consumes one request from the client's current window and reports
// whether it was within budget. An expired or missing window record starts
// a fresh window; the record's TTL tracks the window end so stale entries
// vacate the store on their own.
func (l *Limiter) Check(ctx context.Context, clientKey string) (Result, error) {
	key := store.Key("ratelimit", clientKey)
	now := time.Now().UnixMilli()

	var res Result
	err := l.store.Update(ctx, func(tx *store.Tx) error {
		var w window
		err := tx.Get(key, &w)
		if errors.Is(err, store.ErrNotFound) || (err == nil && now >= w.ResetAt) {
			w = window{Count: 1, ResetAt: now + l.window.Milliseconds()}
			res = Result{Allowed: true, Remaining: l.limit - 1}
			return tx.SetWithTTL(key, w, l.window+ttlSlack)
		}
		if err != nil {
			return err
		}

		if w.Count >= l.limit {
			res = Result{Allowed: false, Remaining: 0}
			return nil
		}

		w.Count++
		res = Result{Allowed: true, Remaining: l.limit - w.Count}
		remaining := time.Duration(w.ResetAt-now) * time.Millisecond
		return tx.SetWithTTL(key, w, remaining+ttlSlack)
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit check for %q: %w", clientKey, err)
	}
	return res, nil
}

// Middleware applies the limiter per client IP. Store failures fail open:
// rejecting every request because the limiter backend hiccuped would be a
// worse outage than briefly not limiting.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := l.Check(r.Context(), clientIP(r))
		if err != nil {
			logging.Error().Err(err).Msg("Rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if !res.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP trusts RemoteAddr as rewritten by the RealIP middleware earlier
// in the chain.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
