package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherline/server/internal/auth"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports a rejected signup or login field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile is the authenticated user's own view, with activity counts.
type Profile struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Role            auth.Role `json:"role"`
	CreatedAt       time.Time `json:"createdAt"`
	OrganizedEvents int       `json:"organizedEvents"`
	RSVPs           int       `json:"rsvps"`
}

// ActivityCounts holds per-user aggregates surfaced on the profile.
type ActivityCounts struct {
	OrganizedEvents int
	RSVPs           int
}

type Repository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Counts(ctx context.Context, userID string) (ActivityCounts, error)
}
