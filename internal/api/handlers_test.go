// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukuhw/undangan/internal/auth"
	"github.com/kukuhw/undangan/internal/config"
	"github.com/kukuhw/undangan/internal/models"
	"github.com/kukuhw/undangan/internal/ratelimit"
	"github.com/kukuhw/undangan/internal/store"
)

const (
	groomPassword = "@GroomTest2026"
	bridePassword = "@BrideTest2026"
)

type testServer struct {
	router http.Handler
	store  *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := store.Open(store.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tokens := auth.NewTokenService("test-secret", time.Hour)
	attempts := auth.NewAttemptTracker(st, 5, time.Hour)
	authSvc := auth.NewService(st, tokens, attempts, map[models.Tenant]string{
		models.TenantGroom: groomPassword,
		models.TenantBride: bridePassword,
	})

	cfg := &config.Config{
		Security: config.SecurityConfig{
			LoginRateLimit:  100,
			LoginRateWindow: time.Minute,
		},
		Static: config.StaticConfig{Root: t.TempDir()},
	}

	limiter := ratelimit.New(st, 10_000, time.Minute)
	handlers := NewHandlers(st, authSvc, time.Hour)
	return &testServer{
		router: NewRouter(handlers, limiter, cfg),
		store:  st,
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, r)
	return w
}

func (ts *testServer) login(t *testing.T, tenant, password string) string {
	t.Helper()
	w := ts.do(t, "POST", "/api/"+tenant+"/auth/login", "", map[string]string{"password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestInvalidTenantRejected(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{
		"/api/admin/messages",
		"/api/GROOM/messages",
		"/api/unknown/guests",
	} {
		w := ts.do(t, "GET", path, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.JSONEq(t, `{"error":"Invalid tenant"}`, w.Body.String(), path)
	}
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t)

	t.Run("missing password", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/auth/login", "", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/auth/login", "", map[string]string{"password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Invalid password"}`, w.Body.String())
	})

	t.Run("default password succeeds", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/auth/login", "", map[string]string{"password": groomPassword})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "groom", body["tenant"])
		assert.NotEmpty(t, body["token"])
	})

	t.Run("check reports authenticated", func(t *testing.T) {
		token := ts.login(t, "groom", groomPassword)
		w := ts.do(t, "GET", "/api/groom/auth/check", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["authenticated"])
		assert.Equal(t, "groom", body["tenant"])
		assert.Equal(t, "admin", body["role"])
	})

	t.Run("check without token", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/groom/auth/check", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
	})

	t.Run("logout always succeeds", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/auth/logout", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestChangePassword(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "groom", groomPassword)

	t.Run("requires auth", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/auth/change-password", "", map[string]string{
			"currentPassword": groomPassword, "newPassword": "new-password-1",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects short new password", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/auth/change-password", token, map[string]string{
			"currentPassword": groomPassword, "newPassword": "short",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects wrong current password", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/auth/change-password", token, map[string]string{
			"currentPassword": "wrong", "newPassword": "new-password-1",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("changes and old password stops working", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/auth/change-password", token, map[string]string{
			"currentPassword": groomPassword, "newPassword": "new-password-1",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = ts.do(t, "POST", "/api/groom/auth/login", "", map[string]string{"password": groomPassword})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		ts.login(t, "groom", "new-password-1")
	})
}

func TestMessageLifecycle(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "POST", "/api/groom/messages", "", map[string]any{
		"name":       "Budi",
		"message":    "Selamat!",
		"attendance": "hadir",
		"guestCount": 25,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "Budi", created["name"])
	assert.Equal(t, float64(10), created["guestCount"], "guest count clamps to 10")
	msgID := fmt.Sprintf("%.0f", created["id"].(float64))

	t.Run("listed under guests key", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/groom/messages", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		list := body["guests"].([]any)
		require.Len(t, list, 1)
	})

	t.Run("not visible to other tenant", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/bride/messages", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decodeBody(t, w)["guests"])
	})

	t.Run("same name within window is spam", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/messages", "", map[string]any{
			"name": "budi", "attendance": "tidak",
		})
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "Spam detected")
	})

	t.Run("missing attendance rejected", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/messages", "", map[string]any{"name": "Citra"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid attendance rejected", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/messages", "", map[string]any{
			"name": "Citra", "attendance": "maybe",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("reaction", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/messages/"+msgID+"/reaction", "", map[string]string{"type": "love"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		reactions := decodeBody(t, w)["reactions"].(map[string]any)
		assert.Equal(t, float64(1), reactions["love"])

		w = ts.do(t, "POST", "/api/groom/messages/"+msgID+"/reaction", "", map[string]string{"type": "hug"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = ts.do(t, "POST", "/api/groom/messages/999/reaction", "", map[string]string{"type": "love"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("reply defaults role to guest", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/messages/"+msgID+"/reply", "", map[string]string{
			"name": "Ani", "message": "Ikut senang!",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		replies := decodeBody(t, w)["replies"].([]any)
		require.Len(t, replies, 1)
		assert.Equal(t, "guest", replies[0].(map[string]any)["role"])
	})

	t.Run("delete requires auth", func(t *testing.T) {
		w := ts.do(t, "DELETE", "/api/groom/messages/"+msgID, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		// Message must be intact after the refused delete.
		w = ts.do(t, "GET", "/api/groom/messages", "", nil)
		assert.Len(t, decodeBody(t, w)["guests"], 1)
	})

	t.Run("cross-tenant token cannot delete", func(t *testing.T) {
		brideToken := ts.login(t, "bride", bridePassword)
		w := ts.do(t, "DELETE", "/api/groom/messages/"+msgID, brideToken, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("admin delete", func(t *testing.T) {
		token := ts.login(t, "groom", groomPassword)

		w := ts.do(t, "DELETE", "/api/groom/messages/not-a-number", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = ts.do(t, "DELETE", "/api/groom/messages/999", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = ts.do(t, "DELETE", "/api/groom/messages/"+msgID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = ts.do(t, "GET", "/api/groom/messages", "", nil)
		assert.Empty(t, decodeBody(t, w)["guests"])
	})
}

func TestGuestLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "groom", groomPassword)

	t.Run("create requires auth", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/guests", "", map[string]string{"name": "Budi Santoso"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/groom/guests?type=vip", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w := ts.do(t, "POST", "/api/groom/guests", token, map[string]string{
		"name":  "Budi Santoso",
		"phone": "+62812345678",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "budi-santoso", created["slug"])
	assert.Equal(t, "Tamu Undangan", created["category"], "category defaults")
	guestID := fmt.Sprintf("%.0f", created["id"].(float64))

	t.Run("special guest gets role default", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/groom/guests?type=special", token, map[string]string{
			"name": "Pak Lurah",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, "VIP", data["role"])
	})

	t.Run("list is public and partitioned by type", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/groom/guests", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Len(t, body["invitedGuests"], 1)
		assert.Empty(t, body["specialGuests"])

		w = ts.do(t, "GET", "/api/groom/guests?type=special", "", nil)
		body = decodeBody(t, w)
		assert.Empty(t, body["invitedGuests"])
		assert.Len(t, body["specialGuests"], 1)
	})

	t.Run("update reslugs on rename", func(t *testing.T) {
		w := ts.do(t, "PUT", "/api/groom/guests/"+guestID, token, map[string]string{
			"name": "Budi Hartono",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, "Budi Hartono", data["name"])
		assert.Equal(t, "budi-hartono", data["slug"])
		assert.Equal(t, "+62812345678", data["phone"], "untouched fields survive the merge")
	})

	t.Run("update requires auth", func(t *testing.T) {
		w := ts.do(t, "PUT", "/api/groom/guests/"+guestID, "", map[string]string{"name": "X"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("update missing guest", func(t *testing.T) {
		w := ts.do(t, "PUT", "/api/groom/guests/999", token, map[string]string{"name": "X"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := ts.do(t, "DELETE", "/api/groom/guests/"+guestID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = ts.do(t, "DELETE", "/api/groom/guests/"+guestID, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSecurityHeadersApplied(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, "GET", "/api/groom/messages", "", nil)

	h := w.Header()
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", h.Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
	assert.Contains(t, h.Get("Content-Security-Policy"), "default-src 'self'")
}

func TestMessageInputIsSanitized(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "POST", "/api/groom/messages", "", map[string]any{
		"name":       "<script>Evil</script>",
		"message":    "javascript:alert(1)",
		"attendance": "hadir",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "scriptEvil/script", data["name"])
	assert.Equal(t, "alert(1)", data["message"])
}

func TestAPINotFoundReturnsJSON(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, "GET", "/api/groom/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}

func TestGlobalRateLimit(t *testing.T) {
	limited, err := store.Open(store.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = limited.Close() })

	tokens := auth.NewTokenService("test-secret", time.Hour)
	attempts := auth.NewAttemptTracker(limited, 5, time.Hour)
	authSvc := auth.NewService(limited, tokens, attempts, map[models.Tenant]string{})
	cfg := &config.Config{
		Security: config.SecurityConfig{LoginRateLimit: 100, LoginRateWindow: time.Minute},
		Static:   config.StaticConfig{Root: t.TempDir()},
	}
	router := NewRouter(NewHandlers(limited, authSvc, time.Hour), ratelimit.New(limited, 2, time.Minute), cfg)

	do := func() int {
		r := httptest.NewRequest("GET", "/api/groom/messages", nil)
		r.RemoteAddr = "7.7.7.7:1000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}
