// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package models

import "time"

// Attendance values accepted on RSVP messages.
const (
	AttendanceHadir = "hadir" // attending
	AttendanceTidak = "tidak" // not attending
	AttendanceRagu  = "ragu"  // undecided
)

// ValidAttendance reports whether s is one of the accepted attendance values.
func ValidAttendance(s string) bool {
	return s == AttendanceHadir || s == AttendanceTidak || s == AttendanceRagu
}

// Reaction types accepted on messages.
const (
	ReactionLove     = "love"
	ReactionAamiin   = "aamiin"
	ReactionCongrats = "congrats"
)

// ValidReaction reports whether s is one of the accepted reaction types.
func ValidReaction(s string) bool {
	return s == ReactionLove || s == ReactionAamiin || s == ReactionCongrats
}

// Reactions holds per-type reaction counters for a message.
type Reactions struct {
	Love     int `json:"love"`
	Aamiin   int `json:"aamiin"`
	Congrats int `json:"congrats"`
}

// Increment bumps the counter for the given reaction type.
// Unknown types are ignored; callers validate first.
func (r *Reactions) Increment(reaction string) {
	switch reaction {
	case ReactionLove:
		r.Love++
	case ReactionAamiin:
		r.Aamiin++
	case ReactionCongrats:
		r.Congrats++
	}
}

// Reply is a threaded response attached to an RSVP message. Replies are
// open to any visitor; the role field distinguishes admin replies in the UI.
type Reply struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	Role      string    `json:"role"`
	Photo     string    `json:"photo"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is an RSVP entry created by a visitor. Messages are created
// without authentication, mutated only through the reaction and reply
// endpoints, and deleted only by an authenticated admin of the same tenant.
type Message struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Message    string    `json:"message"`
	Attendance string    `json:"attendance"`
	GuestCount int       `json:"guestCount"`
	Timestamp  time.Time `json:"timestamp"`
	Reactions  Reactions `json:"reactions"`
	Replies    []Reply   `json:"replies"`
}
