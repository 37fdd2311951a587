// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

// Package models defines the persisted entities and request/response types
// shared across the API, auth, and storage layers. Every persisted entity
// belongs to exactly one tenant partition; keys in the store are always
// tenant-prefixed and no cross-tenant references exist.
package models

// Tenant identifies one of the two isolated invitation sites sharing the
// same codebase and store. Requests carrying any other tenant value are
// rejected before a handler runs.
type Tenant string

const (
	TenantGroom Tenant = "groom"
	TenantBride Tenant = "bride"
)

// ParseTenant validates a path segment against the fixed tenant set.
func ParseTenant(s string) (Tenant, bool) {
	switch Tenant(s) {
	case TenantGroom, TenantBride:
		return Tenant(s), true
	}
	return "", false
}

// String returns the tenant as its wire/key representation.
func (t Tenant) String() string {
	return string(t)
}

// Tenants lists all valid tenants, in a fixed order.
func Tenants() []Tenant {
	return []Tenant{TenantGroom, TenantBride}
}
