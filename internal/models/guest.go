// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package models

import (
	"regexp"
	"strings"
	"time"
)

// GuestType partitions the guest list into the two managed categories.
type GuestType string

const (
	GuestInvited GuestType = "invited"
	GuestSpecial GuestType = "special"
)

// ParseGuestType validates a query parameter against the fixed guest types.
// An empty value defaults to the invited list.
func ParseGuestType(s string) (GuestType, bool) {
	switch GuestType(s) {
	case GuestInvited, GuestSpecial:
		return GuestType(s), true
	case "":
		return GuestInvited, true
	}
	return "", false
}

// InvitedGuest is a regular invitee with contact metadata, managed only by
// an authenticated admin of the owning tenant.
type InvitedGuest struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Category  string    `json:"category"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

// SpecialGuest is a VIP invitee with presentation metadata shown on the
// invitation page itself.
type SpecialGuest struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Role           string    `json:"role"`
	Avatar         string    `json:"avatar"`
	Instagram      string    `json:"instagram"`
	Twitter        string    `json:"twitter"`
	InvitationLink string    `json:"invitationLink"`
	CreatedAt      time.Time `json:"createdAt"`
}

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces   = regexp.MustCompile(`\s+`)
	slugCollapse = regexp.MustCompile(`-+`)
)

// Slugify converts a guest name into the URL slug used in invitation links.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
