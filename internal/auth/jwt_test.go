package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "gatherline")

	token, err := manager.Generate("user-1", "alice@example.com", RoleOrganizer)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, "ORGANIZER", claims.Role)

	principal := claims.Principal()
	require.Equal(t, "user-1", principal.ID)
	require.Equal(t, RoleOrganizer, principal.Role)
}

func TestGenerateRequiresIdentity(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "gatherline")

	_, err := manager.Generate("", "alice@example.com", RoleAttendee)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = manager.Generate("user-1", "", RoleAttendee)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsEmptyToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "gatherline")

	_, err := manager.Validate("   ")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "gatherline")
	other := NewJWTManager("other-secret", time.Hour, "gatherline")

	token, err := manager.Generate("user-1", "alice@example.com", RoleAttendee)
	require.NoError(t, err)

	_, err = other.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "gatherline")
	imposter := NewJWTManager("test-secret", time.Hour, "someone-else")

	token, err := imposter.Generate("user-1", "alice@example.com", RoleAttendee)
	require.NoError(t, err)

	_, err = manager.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute, "gatherline")

	token, err := manager.Generate("user-1", "alice@example.com", RoleAttendee)
	require.NoError(t, err)

	_, err = manager.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromHeader(t *testing.T) {
	token, err := TokenFromHeader("Bearer abc.def.ghi")
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", token)

	token, err = TokenFromHeader("bearer abc.def.ghi")
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", token)

	_, err = TokenFromHeader("")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = TokenFromHeader("Basic dXNlcjpwYXNz")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = TokenFromHeader("Bearer")
	require.ErrorIs(t, err, ErrMissingToken)
}
