package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherline/server/internal/auth"
	"github.com/gatherline/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
)

const eventJoinedColumns = `
e.id, e.title, e.description, e.date, e.location, e.organizer_id,
e.approved, e.created_at, e.updated_at,
u.id, u.email, u.role,
(SELECT count(*) FROM rsvps r WHERE r.event_id = e.id)`

func (r *EventRepository) Insert(ctx context.Context, event events.Event) (events.EventWithOrganizer, error) {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO events (id, title, description, date, location, organizer_id, approved)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, event.ID, event.Title, event.Description, event.Date, event.Location, event.OrganizerID, event.Approved)
	if err != nil {
		return events.EventWithOrganizer{}, fmt.Errorf("insert event: %w", err)
	}
	return r.getJoined(ctx, event.ID)
}

func (r *EventRepository) Update(ctx context.Context, event events.Event) (events.EventWithOrganizer, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET title = $2, description = $3, date = $4, location = $5, updated_at = now()
 WHERE id = $1
`, event.ID, event.Title, event.Description, event.Date, event.Location)
	if err != nil {
		return events.EventWithOrganizer{}, fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.EventWithOrganizer{}, events.ErrNotFound
	}
	return r.getJoined(ctx, event.ID)
}

// Delete removes the event's RSVPs and then the event itself in a single
// transaction, keeping the cascade explicit.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	repo := &Repository{pool: r.pool, tx: r.tx}
	return repo.WithTx(ctx, func(ctx context.Context, txRepo *Repository) error {
		q := txRepo.Events().queryer()
		if _, err := q.Exec(ctx, `DELETE FROM rsvps WHERE event_id = $1`, id); err != nil {
			return fmt.Errorf("delete event rsvps: %w", err)
		}
		tag, err := q.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return events.ErrNotFound
		}
		return nil
	})
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT id, title, description, date, location, organizer_id, approved, created_at, updated_at
  FROM events
 WHERE id = $1
`, id)

	var event events.Event
	if err := row.Scan(
		&event.ID, &event.Title, &event.Description, &event.Date, &event.Location,
		&event.OrganizerID, &event.Approved, &event.CreatedAt, &event.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.Event{}, events.ErrNotFound
		}
		return events.Event{}, fmt.Errorf("select event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) GetDetail(ctx context.Context, id string) (events.EventDetail, error) {
	joined, err := r.getJoined(ctx, id)
	if err != nil {
		return events.EventDetail{}, err
	}

	rows, err := r.queryer().Query(ctx, `
SELECT r.user_id, r.event_id, r.status, r.created_at, u.id, u.email
  FROM rsvps r
  JOIN users u ON u.id = r.user_id
 WHERE r.event_id = $1
 ORDER BY r.created_at DESC
`, id)
	if err != nil {
		return events.EventDetail{}, fmt.Errorf("select event rsvps: %w", err)
	}
	defer rows.Close()

	detail := events.EventDetail{EventWithOrganizer: joined, RSVPs: []events.EventRSVP{}}
	for rows.Next() {
		var entry events.EventRSVP
		if err := rows.Scan(
			&entry.UserID, &entry.EventID, &entry.Status, &entry.CreatedAt,
			&entry.User.ID, &entry.User.Email,
		); err != nil {
			return events.EventDetail{}, fmt.Errorf("scan event rsvp: %w", err)
		}
		detail.RSVPs = append(detail.RSVPs, entry)
	}
	if err := rows.Err(); err != nil {
		return events.EventDetail{}, fmt.Errorf("iterate event rsvps: %w", err)
	}
	return detail, nil
}

func (r *EventRepository) List(ctx context.Context, approvedOnly bool) ([]events.EventWithOrganizer, error) {
	query := `
SELECT ` + eventJoinedColumns + `
  FROM events e
  JOIN users u ON u.id = e.organizer_id
 ORDER BY e.date ASC`
	if approvedOnly {
		query = `
SELECT ` + eventJoinedColumns + `
  FROM events e
  JOIN users u ON u.id = e.organizer_id
 WHERE e.approved
 ORDER BY e.date ASC`
	}

	rows, err := r.queryer().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	listed := []events.EventWithOrganizer{}
	for rows.Next() {
		event, err := scanJoinedEvent(rows)
		if err != nil {
			return nil, err
		}
		listed = append(listed, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return listed, nil
}

// Approve is a conditional update: under concurrent approvals exactly one
// caller flips the flag, the rest see ErrAlreadyApproved.
func (r *EventRepository) Approve(ctx context.Context, id string) (events.EventWithOrganizer, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET approved = true, updated_at = now()
 WHERE id = $1 AND NOT approved
`, id)
	if err != nil {
		return events.EventWithOrganizer{}, fmt.Errorf("approve event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var approved bool
		row := r.queryer().QueryRow(ctx, `SELECT approved FROM events WHERE id = $1`, id)
		if err := row.Scan(&approved); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return events.EventWithOrganizer{}, events.ErrNotFound
			}
			return events.EventWithOrganizer{}, fmt.Errorf("check event approval: %w", err)
		}
		return events.EventWithOrganizer{}, events.ErrAlreadyApproved
	}
	return r.getJoined(ctx, id)
}

func (r *EventRepository) getJoined(ctx context.Context, id string) (events.EventWithOrganizer, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+eventJoinedColumns+`
  FROM events e
  JOIN users u ON u.id = e.organizer_id
 WHERE e.id = $1
`, id)

	event, err := scanJoinedEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.EventWithOrganizer{}, events.ErrNotFound
		}
		return events.EventWithOrganizer{}, err
	}
	return event, nil
}

func scanJoinedEvent(row pgx.Row) (events.EventWithOrganizer, error) {
	var event events.EventWithOrganizer
	var role string
	if err := row.Scan(
		&event.ID, &event.Title, &event.Description, &event.Date, &event.Location,
		&event.OrganizerID, &event.Approved, &event.CreatedAt, &event.UpdatedAt,
		&event.Organizer.ID, &event.Organizer.Email, &role,
		&event.RSVPCount,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.EventWithOrganizer{}, err
		}
		return events.EventWithOrganizer{}, fmt.Errorf("scan event: %w", err)
	}
	event.Organizer.Role = auth.NormalizeRole(role)
	return event, nil
}
