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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/kukuhw/undangan/internal/logging"
	"github.com/kukuhw/undangan/internal/models"
	"github.com/kukuhw/undangan/internal/sanitize"
	"github.com/kukuhw/undangan/internal/store"
)

// Defaults applied when a guest is created without the field.
const (
	defaultInvitedCategory = "Tamu Undangan"
	defaultSpecialRole     = "VIP"
)

func guestKey(tenant models.Tenant, guestType models.GuestType, id int64) []byte {
	return store.Key(tenant.String(), "guests", string(guestType), strconv.FormatInt(id, 10))
}

func guestsPrefix(tenant models.Tenant, guestType models.GuestType) []byte {
	return store.Prefix(tenant.String(), "guests", string(guestType))
}

// guestTypeFromRequest parses the ?type= query parameter, defaulting to
// the invited list.
func guestTypeFromRequest(r *http.Request) (models.GuestType, bool) {
	return models.ParseGuestType(r.URL.Query().Get("type"))
}

// ListGuests handles GET /api/{tenant}/guests?type=. Open to everyone:
// the invitation page itself renders special guests, and the invited list
// holds no secrets beyond what the admin panel shows.
func (h *Handlers) ListGuests(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	guestType, ok := guestTypeFromRequest(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid guest type")
		return
	}

	invited := []models.InvitedGuest{}
	special := []models.SpecialGuest{}
	err := h.store.List(r.Context(), guestsPrefix(tenant, guestType), func(_, val []byte) error {
		if guestType == models.GuestSpecial {
			var g models.SpecialGuest
			if err := json.Unmarshal(val, &g); err != nil {
				return err
			}
			special = append(special, g)
			return nil
		}
		var g models.InvitedGuest
		if err := json.Unmarshal(val, &g); err != nil {
			return err
		}
		invited = append(invited, g)
		return nil
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("tenant", tenant.String()).Msg("Failed to list guests")
		respondError(w, http.StatusInternalServerError, "Failed to get guests")
		return
	}

	sort.Slice(invited, func(i, j int) bool { return invited[i].CreatedAt.After(invited[j].CreatedAt) })
	sort.Slice(special, func(i, j int) bool { return special[i].CreatedAt.After(special[j].CreatedAt) })

	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"invitedGuests": invited,
		"specialGuests": special,
	})
}

type guestRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`

	// Invited guest fields.
	Category string `json:"category"`
	Phone    string `json:"phone"`

	// Special guest fields.
	Role           string `json:"role"`
	Avatar         string `json:"avatar"`
	Instagram      string `json:"instagram"`
	Twitter        string `json:"twitter"`
	InvitationLink string `json:"invitationLink"`

	CreatedAt time.Time `json:"createdAt"`
}

func (req *guestRequest) sanitizeFields() {
	req.Name = sanitize.String(req.Name)
	req.Category = sanitize.String(req.Category)
	req.Phone = sanitize.String(req.Phone)
	req.Role = sanitize.String(req.Role)
	req.Avatar = sanitize.String(req.Avatar)
	req.Instagram = sanitize.String(req.Instagram)
	req.Twitter = sanitize.String(req.Twitter)
	req.InvitationLink = sanitize.String(req.InvitationLink)
}

// CreateGuest handles POST /api/{tenant}/guests?type=. Admin only. The
// client may supply its own id and createdAt (the admin panel does when
// importing); both default server-side.
func (h *Handlers) CreateGuest(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	if _, err := h.auth.RequireAuth(r, tenant); err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	guestType, ok := guestTypeFromRequest(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid guest type")
		return
	}

	var req guestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.sanitizeFields()
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Name required")
		return
	}

	id := req.ID
	if id == 0 {
		id = time.Now().UnixMilli()
	}
	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	slug := models.Slugify(req.Name)

	var guest any
	if guestType == models.GuestSpecial {
		role := req.Role
		if role == "" {
			role = defaultSpecialRole
		}
		guest = models.SpecialGuest{
			ID:             id,
			Name:           req.Name,
			Slug:           slug,
			Role:           role,
			Avatar:         req.Avatar,
			Instagram:      req.Instagram,
			Twitter:        req.Twitter,
			InvitationLink: req.InvitationLink,
			CreatedAt:      createdAt,
		}
	} else {
		category := req.Category
		if category == "" {
			category = defaultInvitedCategory
		}
		guest = models.InvitedGuest{
			ID:        id,
			Name:      req.Name,
			Slug:      slug,
			Category:  category,
			Phone:     req.Phone,
			CreatedAt: createdAt,
		}
	}

	if err := h.store.Set(r.Context(), guestKey(tenant, guestType, id), guest); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("tenant", tenant.String()).Msg("Failed to create guest")
		respondError(w, http.StatusInternalServerError, "Failed to create guest")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    guest,
	})
}

// UpdateGuest handles PUT /api/{tenant}/guests/{id}?type=. Admin only.
// The body is a partial JSON document merged over the stored guest; id and
// createdAt are immutable and the slug follows any name change.
func (h *Handlers) UpdateGuest(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	if _, err := h.auth.RequireAuth(r, tenant); err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	guestType, ok := guestTypeFromRequest(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid guest type")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid guest ID")
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	patch = sanitize.Map(patch)
	delete(patch, "id")
	delete(patch, "createdAt")

	patchJSON, err := json.Marshal(patch)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var updated any
	err = h.store.Update(r.Context(), func(tx *store.Tx) error {
		merge := func(existing any) (any, error) {
			if err := json.Unmarshal(patchJSON, existing); err != nil {
				return nil, err
			}
			return existing, nil
		}

		if guestType == models.GuestSpecial {
			var g models.SpecialGuest
			if err := tx.Get(guestKey(tenant, guestType, id), &g); err != nil {
				return err
			}
			merged, err := merge(&g)
			if err != nil {
				return err
			}
			g = *merged.(*models.SpecialGuest)
			g.ID = id
			if name, ok := patch["name"].(string); ok && name != "" {
				g.Slug = models.Slugify(name)
			}
			updated = g
			return tx.Set(guestKey(tenant, guestType, id), &g)
		}

		var g models.InvitedGuest
		if err := tx.Get(guestKey(tenant, guestType, id), &g); err != nil {
			return err
		}
		merged, err := merge(&g)
		if err != nil {
			return err
		}
		g = *merged.(*models.InvitedGuest)
		g.ID = id
		if name, ok := patch["name"].(string); ok && name != "" {
			g.Slug = models.Slugify(name)
		}
		updated = g
		return tx.Set(guestKey(tenant, guestType, id), &g)
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Guest not found")
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("tenant", tenant.String()).Msg("Failed to update guest")
		respondError(w, http.StatusInternalServerError, "Failed to update guest")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    updated,
	})
}

// DeleteGuest handles DELETE /api/{tenant}/guests/{id}?type=. Admin only.
func (h *Handlers) DeleteGuest(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	if _, err := h.auth.RequireAuth(r, tenant); err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	guestType, ok := guestTypeFromRequest(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid guest type")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid guest ID")
		return
	}

	err = h.store.Update(r.Context(), func(tx *store.Tx) error {
		var raw json.RawMessage
		if err := tx.Get(guestKey(tenant, guestType, id), &raw); err != nil {
			return err
		}
		return tx.Delete(guestKey(tenant, guestType, id))
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Guest not found")
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("tenant", tenant.String()).Msg("Failed to delete guest")
		respondError(w, http.StatusInternalServerError, "Failed to delete guest")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Guest deleted",
	})
}
