// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

// Package auth implements the authentication core: PBKDF2 password
// hashing, HS256 bearer tokens, per-tenant credential bootstrap, and
// failed-login lockout bookkeeping.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength     = 16
	keyLength      = 32
	hashIterations = 100_000
)

// HashPassword derives a PBKDF2-SHA256 key from the password under a fresh
// random salt and encodes base64(salt || key) as an opaque string.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, hashIterations, keyLength, sha256.New)

	combined := make([]byte, 0, saltLength+keyLength)
	combined = append(combined, salt...)
	combined = append(combined, key...)
	return base64.StdEncoding.EncodeToString(combined), nil
}

// VerifyPassword re-derives the key using the salt embedded in the stored
// hash and compares in constant time. A malformed stored hash verifies
// false rather than erroring.
func VerifyPassword(password, storedHash string) bool {
	combined, err := base64.StdEncoding.DecodeString(storedHash)
	if err != nil {
		return false
	}
	if len(combined) != saltLength+keyLength {
		return false
	}

	salt := combined[:saltLength]
	stored := combined[saltLength:]

	key := pbkdf2.Key([]byte(password), salt, hashIterations, keyLength, sha256.New)
	return subtle.ConstantTimeCompare(key, stored) == 1
}
