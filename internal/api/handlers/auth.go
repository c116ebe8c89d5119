package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherline/server/internal/api/middleware"
	"github.com/gatherline/server/internal/domain/users"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	Service  *users.Service
	validate *validator.Validate
}

func NewAuthHandler(service *users.Service) *AuthHandler {
	return &AuthHandler{
		Service:  service,
		validate: validator.New(),
	}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=ATTENDEE ORGANIZER ADMIN"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token   string     `json:"token"`
	User    users.User `json:"user"`
	Message string     `json:"message"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.Service.Signup(r.Context(), users.SignupParams{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token:   result.Token,
		User:    result.User,
		Message: "User registered successfully",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token:   result.Token,
		User:    result.User,
		Message: "Login successful",
	})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	profile, err := h.Service.Profile(r.Context(), principal.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// validationMessage flattens validator output into the single-line error
// format clients expect.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "validation failed"
	}
	first := fieldErrs[0]
	switch first.Tag() {
	case "required":
		return "email and password are required"
	case "email":
		return "invalid email: must be a valid email address"
	case "min":
		return "invalid password: must be at least " + first.Param() + " characters"
	case "oneof":
		return "invalid role: must be one of ATTENDEE, ORGANIZER, ADMIN"
	default:
		return "validation failed"
	}
}
