package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherline/server/internal/auth"
	"github.com/gatherline/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
)

func (r *UserRepository) Create(ctx context.Context, user users.User) (users.User, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO users (id, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING created_at
`, user.ID, user.Email, user.PasswordHash, string(user.Role))

	if err := row.Scan(&user.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return users.User{}, users.ErrEmailTaken
		}
		return users.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (users.User, error) {
	return r.get(ctx, `
SELECT id, email, password_hash, role, created_at
  FROM users
 WHERE email = $1
`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (users.User, error) {
	return r.get(ctx, `
SELECT id, email, password_hash, role, created_at
  FROM users
 WHERE id = $1
`, id)
}

func (r *UserRepository) get(ctx context.Context, query string, arg any) (users.User, error) {
	row := r.queryer().QueryRow(ctx, query, arg)

	var user users.User
	var role string
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &role, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, fmt.Errorf("select user: %w", err)
	}
	user.Role = auth.NormalizeRole(role)
	return user, nil
}

func (r *UserRepository) Counts(ctx context.Context, userID string) (users.ActivityCounts, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT
  (SELECT count(*) FROM events WHERE organizer_id = $1),
  (SELECT count(*) FROM rsvps  WHERE user_id = $1)
`, userID)

	var counts users.ActivityCounts
	if err := row.Scan(&counts.OrganizedEvents, &counts.RSVPs); err != nil {
		return users.ActivityCounts{}, fmt.Errorf("count user activity: %w", err)
	}
	return counts, nil
}
