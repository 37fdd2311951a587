// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/kukuhw/undangan/internal/logging"
	"github.com/kukuhw/undangan/internal/models"
	"github.com/kukuhw/undangan/internal/sanitize"
	"github.com/kukuhw/undangan/internal/store"
)

// spamWindow is how long a visitor name is blocked from posting a second
// RSVP message.
const spamWindow = time.Minute

const (
	minGuestCount = 1
	maxGuestCount = 10
)

var errSpam = errors.New("duplicate message within spam window")

func messageKey(tenant models.Tenant, id int64) []byte {
	return store.Key(tenant.String(), "messages", strconv.FormatInt(id, 10))
}

func messagesPrefix(tenant models.Tenant) []byte {
	return store.Prefix(tenant.String(), "messages")
}

// ListMessages handles GET /api/{tenant}/messages. Open to everyone.
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	messages := []models.Message{}
	err := h.store.List(r.Context(), messagesPrefix(tenant), func(_, val []byte) error {
		var m models.Message
		if err := json.Unmarshal(val, &m); err != nil {
			return err
		}
		messages = append(messages, m)
		return nil
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("tenant", tenant.String()).Msg("Failed to list messages")
		respondError(w, http.StatusInternalServerError, "Failed to get messages")
		return
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp.After(messages[j].Timestamp)
	})

	// The front-end reads the message list from the "guests" key.
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"guests":  messages,
	})
}

type createMessageRequest struct {
	Name       string `json:"name" validate:"required"`
	Message    string `json:"message"`
	Attendance string `json:"attendance" validate:"required,oneof=hadir tidak ragu"`
	GuestCount int    `json:"guestCount"`
}

// CreateMessage handles POST /api/{tenant}/messages. Open to everyone; the
// anti-spam scan and the insert run in one transaction so two concurrent
// submissions under the same name cannot both pass the scan.
func (h *Handlers) CreateMessage(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = sanitize.String(req.Name)
	req.Message = sanitize.String(req.Message)
	req.Attendance = sanitize.String(req.Attendance)
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Name and attendance required")
		return
	}

	guestCount := req.GuestCount
	if guestCount < minGuestCount {
		guestCount = minGuestCount
	}
	if guestCount > maxGuestCount {
		guestCount = maxGuestCount
	}

	now := time.Now().UTC()
	message := models.Message{
		ID:         now.UnixMilli(),
		Name:       req.Name,
		Message:    req.Message,
		Attendance: req.Attendance,
		GuestCount: guestCount,
		Timestamp:  now,
		Replies:    []models.Reply{},
	}

	cutoff := now.Add(-spamWindow)
	nameLower := strings.ToLower(req.Name)

	err := h.store.Update(r.Context(), func(tx *store.Tx) error {
		scanErr := tx.List(messagesPrefix(tenant), func(_, val []byte) error {
			var existing models.Message
			if err := json.Unmarshal(val, &existing); err != nil {
				return err
			}
			if strings.ToLower(existing.Name) == nameLower && existing.Timestamp.After(cutoff) {
				return errSpam
			}
			return nil
		})
		if scanErr != nil {
			return scanErr
		}
		return tx.Set(messageKey(tenant, message.ID), &message)
	})
	switch {
	case errors.Is(err, errSpam):
		respondJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":   "Spam detected",
			"message": "Please wait before submitting again",
		})
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("tenant", tenant.String()).Msg("Failed to create message")
		respondError(w, http.StatusInternalServerError, "Failed to create message")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    message,
	})
}

// DeleteMessage handles DELETE /api/{tenant}/messages/{id}. Admin only.
func (h *Handlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	if _, err := h.auth.RequireAuth(r, tenant); err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	err = h.store.Update(r.Context(), func(tx *store.Tx) error {
		var m models.Message
		if err := tx.Get(messageKey(tenant, id), &m); err != nil {
			return err
		}
		return tx.Delete(messageKey(tenant, id))
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Message not found")
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("tenant", tenant.String()).Msg("Failed to delete message")
		respondError(w, http.StatusInternalServerError, "Failed to delete message")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Message deleted",
	})
}

type reactionRequest struct {
	Type string `json:"type"`
}

// AddReaction handles POST /api/{tenant}/messages/{id}/reaction. Open to
// everyone; the increment is a transactional read-modify-write so
// concurrent reactions are not lost.
func (h *Handlers) AddReaction(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	var req reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !models.ValidReaction(req.Type) {
		respondError(w, http.StatusBadRequest, "Invalid reaction type")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	var reactions models.Reactions
	err = h.store.Update(r.Context(), func(tx *store.Tx) error {
		var m models.Message
		if err := tx.Get(messageKey(tenant, id), &m); err != nil {
			return err
		}
		m.Reactions.Increment(req.Type)
		reactions = m.Reactions
		return tx.Set(messageKey(tenant, id), &m)
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Message not found")
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("tenant", tenant.String()).Msg("Failed to add reaction")
		respondError(w, http.StatusInternalServerError, "Failed to add reaction")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"reactions": reactions,
	})
}

type replyRequest struct {
	Name    string `json:"name" validate:"required"`
	Message string `json:"message" validate:"required"`
	Role    string `json:"role"`
	Photo   string `json:"photo"`
}

// AddReply handles POST /api/{tenant}/messages/{id}/reply. Open to
// everyone; the role field distinguishes admin replies and defaults to
// "guest".
func (h *Handlers) AddReply(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = sanitize.String(req.Name)
	req.Message = sanitize.String(req.Message)
	req.Role = sanitize.String(req.Role)
	req.Photo = sanitize.String(req.Photo)
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Name and message required")
		return
	}
	if req.Role == "" {
		req.Role = "guest"
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	now := time.Now().UTC()
	reply := models.Reply{
		ID:        now.UnixMilli(),
		Name:      req.Name,
		Message:   req.Message,
		Role:      req.Role,
		Photo:     req.Photo,
		Timestamp: now,
	}

	var replies []models.Reply
	err = h.store.Update(r.Context(), func(tx *store.Tx) error {
		var m models.Message
		if err := tx.Get(messageKey(tenant, id), &m); err != nil {
			return err
		}
		m.Replies = append(m.Replies, reply)
		replies = m.Replies
		return tx.Set(messageKey(tenant, id), &m)
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Message not found")
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("tenant", tenant.String()).Msg("Failed to add reply")
		respondError(w, http.StatusInternalServerError, "Failed to add reply")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"replies": replies,
	})
}
