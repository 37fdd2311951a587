// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kukuhw/undangan/internal/models"
)

// RoleAdmin is the only role issued by this server.
const RoleAdmin = "admin"

// ErrNoToken is returned when a request carries no bearer token.
var ErrNoToken = errors.New("auth: no bearer token")

// Claims are the signed contents of a bearer token. Tokens are stateless:
// validity is proven purely by signature and expiry, and logout does not
// revoke them.
type Claims struct {
	Tenant  string `json:"tenant"`
	Role    string `json:"role"`
	LoginAt int64  `json:"loginAt"` // ms epoch of the login that issued the token
	jwt.RegisteredClaims
}

// TokenService issues and verifies HMAC-SHA256 signed bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service with the given signing secret
// and token lifetime.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for an authenticated tenant admin.
func (s *TokenService) Issue(tenant models.Tenant, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Tenant:  tenant.String(),
		Role:    role,
		LoginAt: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string. The signing algorithm is
// pinned to HMAC to rule out algorithm confusion; expired, tampered, or
// malformed tokens all return an error.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// FromRequest extracts and verifies the bearer token from the
// Authorization header. ErrNoToken distinguishes "absent" from "invalid"
// for callers like the auth-check query that must not treat absence as an
// error.
func (s *TokenService) FromRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, ErrNoToken
	}
	return s.Verify(strings.TrimPrefix(header, "Bearer "))
}
