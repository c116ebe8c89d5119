package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gatherline/server/internal/api/middleware"
	"github.com/gatherline/server/internal/domain/ids"
	"github.com/gatherline/server/internal/domain/rsvps"
)

type RSVPsHandler struct {
	Service *rsvps.Service
}

func NewRSVPsHandler(service *rsvps.Service) *RSVPsHandler {
	return &RSVPsHandler{Service: service}
}

type upsertRSVPRequest struct {
	Status string `json:"status"`
}

// rsvpEventIDFromPath mirrors eventIDFromPath but reports a malformed id
// with the RSVP domain's event-not-found error.
func rsvpEventIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "event id is required")
		return "", false
	}
	if err := ids.ValidateULID(id); err != nil {
		writeDomainError(w, r, rsvps.ErrEventNotFound)
		return "", false
	}
	return id, true
}

// Upsert creates or updates the caller's RSVP for an event. Both paths
// return 201; the broadcast type distinguishes create from update.
func (h *RSVPsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	eventID, ok := rsvpEventIDFromPath(w, r)
	if !ok {
		return
	}

	var req upsertRSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rsvp, err := h.Service.Upsert(r.Context(), principal.ID, eventID, req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rsvp)
}

// ListForEvent returns all RSVPs for an event, newest first.
func (h *RSVPsHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := rsvpEventIDFromPath(w, r)
	if !ok {
		return
	}

	listed, err := h.Service.ListForEvent(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listed)
}

// ListForUser returns the caller's own RSVPs, newest first.
func (h *RSVPsHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	listed, err := h.Service.ListForUser(r.Context(), principal.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listed)
}

func (h *RSVPsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	eventID, ok := rsvpEventIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), principal.ID, eventID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "RSVP deleted successfully"})
}
