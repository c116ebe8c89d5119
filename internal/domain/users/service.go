package users

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/gatherline/server/internal/auth"
	"github.com/gatherline/server/internal/domain/ids"
	"github.com/rs/zerolog"
)

// MinPasswordLength is the minimum accepted password length at signup.
const MinPasswordLength = 6

// Notifier delivers the post-signup welcome email, best effort.
type Notifier interface {
	DispatchWelcome(to, role string)
}

type Service struct {
	repo     Repository
	tokens   *auth.JWTManager
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(repo Repository, tokens *auth.JWTManager, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger.With().Str("component", "users").Logger(),
	}
}

type SignupParams struct {
	Email    string
	Password string
	Role     string
}

// AuthResult pairs a signed session token with the authenticated user.
type AuthResult struct {
	Token string
	User  User
}

// Signup registers a new user. Role defaults to ATTENDEE when unspecified.
func (s *Service) Signup(ctx context.Context, params SignupParams) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || params.Password == "" {
		return AuthResult{}, ValidationError{Message: "email and password are required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthResult{}, ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if len(params.Password) < MinPasswordLength {
		return AuthResult{}, ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}

	role := auth.RoleAttendee
	if strings.TrimSpace(params.Role) != "" {
		if !auth.ValidRole(params.Role) {
			return AuthResult{}, ValidationError{Field: "role", Message: "must be one of ATTENDEE, ORGANIZER, ADMIN"}
		}
		role = auth.NormalizeRole(params.Role)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, User{
		ID:           ids.NewUUID(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return AuthResult{}, err
	}

	token, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.notifier.DispatchWelcome(user.Email, string(user.Role))
	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	return AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return AuthResult{}, ValidationError{Message: "email and password are required"}
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return AuthResult{Token: token, User: user}, nil
}

// Profile returns the user's own record with activity counts.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	counts, err := s.repo.Counts(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("load activity counts: %w", err)
	}

	return Profile{
		ID:              user.ID,
		Email:           user.Email,
		Role:            user.Role,
		CreatedAt:       user.CreatedAt,
		OrganizedEvents: counts.OrganizedEvents,
		RSVPs:           counts.RSVPs,
	}, nil
}
