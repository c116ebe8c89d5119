package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gatherline/server/internal/api/middleware"
	"github.com/gatherline/server/internal/auth"
	"github.com/gatherline/server/internal/domain/users"
	"github.com/stretchr/testify/require"
)

func TestSignup_Success(t *testing.T) {
	handler := NewAuthHandler(newUsersService(stubUsersRepo{}))

	body := `{"email":"new@example.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Signup(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token   string     `json:"token"`
		User    users.User `json:"user"`
		Message string     `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "new@example.com", resp.User.Email)
	require.Equal(t, auth.RoleAttendee, resp.User.Role)
	require.NotEmpty(t, resp.Message)
}

func TestSignup_ShortPassword(t *testing.T) {
	handler := NewAuthHandler(newUsersService(stubUsersRepo{}))

	body := `{"email":"new@example.com","password":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Signup(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "error")
}

func TestSignup_DuplicateEmail(t *testing.T) {
	repo := stubUsersRepo{
		createFn: func(users.User) (users.User, error) {
			return users.User{}, users.ErrEmailTaken
		},
	}
	handler := NewAuthHandler(newUsersService(repo))

	body := `{"email":"dup@example.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Signup(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignup_MalformedBody(t *testing.T) {
	handler := NewAuthHandler(newUsersService(stubUsersRepo{}))

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.Signup(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)

	repo := stubUsersRepo{
		getByEmailFn: func(email string) (users.User, error) {
			require.Equal(t, "known@example.com", email)
			return users.User{
				ID:           "user-1",
				Email:        email,
				PasswordHash: hash,
				Role:         auth.RoleOrganizer,
				CreatedAt:    time.Now(),
			}, nil
		},
	}
	handler := NewAuthHandler(newUsersService(repo))

	body := `{"email":"known@example.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"token"`)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("rightpass")
	require.NoError(t, err)

	repo := stubUsersRepo{
		getByEmailFn: func(email string) (users.User, error) {
			return users.User{ID: "user-1", Email: email, PasswordHash: hash}, nil
		},
	}
	handler := NewAuthHandler(newUsersService(repo))

	body := `{"email":"known@example.com","password":"wrongpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_UnknownEmail(t *testing.T) {
	handler := NewAuthHandler(newUsersService(stubUsersRepo{}))

	body := `{"email":"missing@example.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfile_ReturnsCounts(t *testing.T) {
	repo := stubUsersRepo{
		getByIDFn: func(id string) (users.User, error) {
			return users.User{ID: id, Email: "me@example.com", Role: auth.RoleOrganizer}, nil
		},
		countsFn: func(string) (users.ActivityCounts, error) {
			return users.ActivityCounts{OrganizedEvents: 3, RSVPs: 7}, nil
		},
	}
	handler := NewAuthHandler(newUsersService(repo))

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), auth.Principal{
		ID:    "user-1",
		Email: "me@example.com",
		Role:  auth.RoleOrganizer,
	}))
	rec := httptest.NewRecorder()

	handler.Profile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var profile users.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, 3, profile.OrganizedEvents)
	require.Equal(t, 7, profile.RSVPs)
}

func TestProfile_Unauthenticated(t *testing.T) {
	handler := NewAuthHandler(newUsersService(stubUsersRepo{}))

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	rec := httptest.NewRecorder()

	handler.Profile(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
