package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherline/server/internal/domain/events"
	"github.com/gatherline/server/internal/domain/rsvps"
	"github.com/gatherline/server/internal/domain/users"
	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeDomainError maps domain errors onto the wire status taxonomy. Unknown
// errors become an opaque 500 so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var userValidation users.ValidationError
	var eventValidation events.ValidationError
	var rsvpValidation rsvps.ValidationError

	switch {
	case errors.As(err, &userValidation):
		writeError(w, http.StatusBadRequest, userValidation.Error())
	case errors.As(err, &eventValidation):
		writeError(w, http.StatusBadRequest, eventValidation.Error())
	case errors.As(err, &rsvpValidation):
		writeError(w, http.StatusBadRequest, rsvpValidation.Error())
	case errors.Is(err, rsvps.ErrEventNotApproved):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, users.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, events.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, users.ErrNotFound),
		errors.Is(err, events.ErrNotFound),
		errors.Is(err, rsvps.ErrNotFound),
		errors.Is(err, rsvps.ErrEventNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, events.ErrAlreadyApproved):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

type messageBody struct {
	Message string `json:"message"`
}
