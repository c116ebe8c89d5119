package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gatherline/server/internal/api/middleware"
	"github.com/gatherline/server/internal/domain/events"
	"github.com/gatherline/server/internal/domain/ids"
	"github.com/go-playground/validator/v10"
)

type EventsHandler struct {
	Service  *events.Service
	validate *validator.Validate
}

func NewEventsHandler(service *events.Service) *EventsHandler {
	return &EventsHandler{
		Service:  service,
		validate: validator.New(),
	}
}

type createEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Location    string `json:"location" validate:"required"`
}

type updateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Location    *string `json:"location"`
}

// eventIDFromPath extracts and validates the {id} path value. Event IDs are
// ULIDs, so a malformed value can never match a row and reads as not found.
func eventIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "event id is required")
		return "", false
	}
	if err := ids.ValidateULID(id); err != nil {
		writeDomainError(w, r, events.ErrNotFound)
		return "", false
	}
	return id, true
}

// List returns approved events only.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	listed, err := h.Service.ListApproved(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listed)
}

// ListAll returns every event including unapproved ones. Routed behind the
// admin role gate.
func (h *EventsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	listed, err := h.Service.ListAll(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listed)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}

	detail, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "title, description, date and location are required")
		return
	}

	created, err := h.Service.Create(r.Context(), principal, events.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.Update(r.Context(), principal, id, events.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), principal, id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Event deleted successfully"})
}

// Approve flips an event to approved. Routed behind the admin role gate.
func (h *EventsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}

	approved, err := h.Service.Approve(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approved)
}
