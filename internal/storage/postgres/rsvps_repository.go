package postgres

import (
	"context"
	"fmt"

	"github.com/gatherline/server/internal/auth"
	"github.com/gatherline/server/internal/domain/rsvps"
)

// Upsert writes the (user, event) attendance row in one statement. The
// xmax = 0 check distinguishes a fresh insert from a conflict update.
func (r *RSVPRepository) Upsert(ctx context.Context, userID, eventID string, status rsvps.Status) (rsvps.RSVPWithUser, bool, error) {
	row := r.queryer().QueryRow(ctx, `
WITH upserted AS (
    INSERT INTO rsvps (user_id, event_id, status)
    VALUES ($1, $2, $3)
    ON CONFLICT (user_id, event_id)
    DO UPDATE SET status = EXCLUDED.status, updated_at = now()
    RETURNING user_id, event_id, status, created_at, updated_at, (xmax = 0) AS inserted
)
SELECT up.user_id, up.event_id, up.status, up.created_at, up.updated_at, up.inserted,
       u.id, u.email, u.role
  FROM upserted up
  JOIN users u ON u.id = up.user_id
`, userID, eventID, status)

	var entry rsvps.RSVPWithUser
	var inserted bool
	var role string
	if err := row.Scan(
		&entry.UserID, &entry.EventID, &entry.Status, &entry.CreatedAt, &entry.UpdatedAt,
		&inserted,
		&entry.User.ID, &entry.User.Email, &role,
	); err != nil {
		return rsvps.RSVPWithUser{}, false, fmt.Errorf("upsert rsvp: %w", err)
	}
	entry.User.Role = auth.NormalizeRole(role)
	return entry, inserted, nil
}

func (r *RSVPRepository) ListForEvent(ctx context.Context, eventID string) ([]rsvps.RSVPWithUser, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT r.user_id, r.event_id, r.status, r.created_at, r.updated_at,
       u.id, u.email, u.role
  FROM rsvps r
  JOIN users u ON u.id = r.user_id
 WHERE r.event_id = $1
 ORDER BY r.created_at DESC
`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event rsvps: %w", err)
	}
	defer rows.Close()

	listed := []rsvps.RSVPWithUser{}
	for rows.Next() {
		var entry rsvps.RSVPWithUser
		var role string
		if err := rows.Scan(
			&entry.UserID, &entry.EventID, &entry.Status, &entry.CreatedAt, &entry.UpdatedAt,
			&entry.User.ID, &entry.User.Email, &role,
		); err != nil {
			return nil, fmt.Errorf("scan event rsvp: %w", err)
		}
		entry.User.Role = auth.NormalizeRole(role)
		listed = append(listed, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rsvps: %w", err)
	}
	return listed, nil
}

func (r *RSVPRepository) ListForUser(ctx context.Context, userID string) ([]rsvps.RSVPWithEvent, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT r.user_id, r.event_id, r.status, r.created_at, r.updated_at,
       e.id, e.title, e.date, e.location, e.approved,
       o.id, o.email
  FROM rsvps r
  JOIN events e ON e.id = r.event_id
  JOIN users o ON o.id = e.organizer_id
 WHERE r.user_id = $1
 ORDER BY r.created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user rsvps: %w", err)
	}
	defer rows.Close()

	listed := []rsvps.RSVPWithEvent{}
	for rows.Next() {
		var entry rsvps.RSVPWithEvent
		if err := rows.Scan(
			&entry.UserID, &entry.EventID, &entry.Status, &entry.CreatedAt, &entry.UpdatedAt,
			&entry.Event.ID, &entry.Event.Title, &entry.Event.Date, &entry.Event.Location, &entry.Event.Approved,
			&entry.Event.Organizer.ID, &entry.Event.Organizer.Email,
		); err != nil {
			return nil, fmt.Errorf("scan user rsvp: %w", err)
		}
		listed = append(listed, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rsvps: %w", err)
	}
	return listed, nil
}

func (r *RSVPRepository) Delete(ctx context.Context, userID, eventID string) error {
	tag, err := r.queryer().Exec(ctx, `
DELETE FROM rsvps WHERE user_id = $1 AND event_id = $2
`, userID, eventID)
	if err != nil {
		return fmt.Errorf("delete rsvp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rsvps.ErrNotFound
	}
	return nil
}
