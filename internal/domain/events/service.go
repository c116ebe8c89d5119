package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gatherline/server/internal/auth"
	"github.com/gatherline/server/internal/domain/ids"
	"github.com/gatherline/server/internal/realtime"
	"github.com/rs/zerolog"
)

// Broadcaster pushes typed envelopes to all open realtime connections.
type Broadcaster interface {
	Broadcast(typ string, payload any)
}

// Notifier delivers the approval email to the organizer, best effort.
type Notifier interface {
	DispatchEventApproved(to, eventTitle string)
}

type Service struct {
	repo        Repository
	broadcaster Broadcaster
	notifier    Notifier
	logger      zerolog.Logger
}

func NewService(repo Repository, broadcaster Broadcaster, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		broadcaster: broadcaster,
		notifier:    notifier,
		logger:      logger.With().Str("component", "events").Logger(),
	}
}

// ListApproved returns approved events only, ordered by date ascending.
func (s *Service) ListApproved(ctx context.Context) ([]EventWithOrganizer, error) {
	return s.repo.List(ctx, true)
}

// ListAll returns every event including unapproved ones. Admin visibility is
// enforced by the caller.
func (s *Service) ListAll(ctx context.Context) ([]EventWithOrganizer, error) {
	return s.repo.List(ctx, false)
}

func (s *Service) GetByID(ctx context.Context, id string) (EventDetail, error) {
	return s.repo.GetDetail(ctx, id)
}

type CreateParams struct {
	Title       string
	Description string
	Date        string
	Location    string
}

// Create persists a new unapproved event owned by the principal and
// broadcasts EVENT_CREATED. Role membership is enforced by the caller.
func (s *Service) Create(ctx context.Context, principal auth.Principal, params CreateParams) (EventWithOrganizer, error) {
	title := strings.TrimSpace(params.Title)
	description := strings.TrimSpace(params.Description)
	location := strings.TrimSpace(params.Location)
	if title == "" || description == "" || location == "" || strings.TrimSpace(params.Date) == "" {
		return EventWithOrganizer{}, ValidationError{Message: "title, description, date and location are required"}
	}

	date, err := parseFutureDate(params.Date)
	if err != nil {
		return EventWithOrganizer{}, err
	}

	id, err := ids.NewULID()
	if err != nil {
		return EventWithOrganizer{}, fmt.Errorf("generate event id: %w", err)
	}

	created, err := s.repo.Insert(ctx, Event{
		ID:          id,
		Title:       title,
		Description: description,
		Date:        date,
		Location:    location,
		OrganizerID: principal.ID,
		Approved:    false,
	})
	if err != nil {
		return EventWithOrganizer{}, err
	}

	s.logger.Info().Str("event_id", created.ID).Str("organizer_id", principal.ID).Msg("event created")
	s.broadcaster.Broadcast(realtime.TypeEventCreated, created)
	return created, nil
}

type UpdateParams struct {
	Title       *string
	Description *string
	Date        *string
	Location    *string
}

// Update applies a partial update. Omitted fields are left unchanged; a
// supplied date is re-validated against now. Only the organizer or an admin
// may update.
func (s *Service) Update(ctx context.Context, principal auth.Principal, id string, params UpdateParams) (EventWithOrganizer, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return EventWithOrganizer{}, err
	}
	if !auth.CanModify(principal, existing.OrganizerID) {
		return EventWithOrganizer{}, ErrForbidden
	}

	if params.Title != nil {
		if strings.TrimSpace(*params.Title) == "" {
			return EventWithOrganizer{}, ValidationError{Field: "title", Message: "must not be empty"}
		}
		existing.Title = strings.TrimSpace(*params.Title)
	}
	if params.Description != nil {
		if strings.TrimSpace(*params.Description) == "" {
			return EventWithOrganizer{}, ValidationError{Field: "description", Message: "must not be empty"}
		}
		existing.Description = strings.TrimSpace(*params.Description)
	}
	if params.Location != nil {
		if strings.TrimSpace(*params.Location) == "" {
			return EventWithOrganizer{}, ValidationError{Field: "location", Message: "must not be empty"}
		}
		existing.Location = strings.TrimSpace(*params.Location)
	}
	if params.Date != nil {
		date, err := parseFutureDate(*params.Date)
		if err != nil {
			return EventWithOrganizer{}, err
		}
		existing.Date = date
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return EventWithOrganizer{}, err
	}

	s.logger.Info().Str("event_id", id).Msg("event updated")
	s.broadcaster.Broadcast(realtime.TypeEventUpdated, updated)
	return updated, nil
}

// DeletedPayload is the broadcast payload for EVENT_DELETED.
type DeletedPayload struct {
	EventID string `json:"eventId"`
}

// Delete removes the event and its RSVPs. Only the organizer or an admin may
// delete.
func (s *Service) Delete(ctx context.Context, principal auth.Principal, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanModify(principal, existing.OrganizerID) {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("event_id", id).Msg("event deleted")
	s.broadcaster.Broadcast(realtime.TypeEventDeleted, DeletedPayload{EventID: id})
	return nil
}

// Approve flips the approved flag. The repository's conditional update
// guarantees a single winner under concurrent approvals, so the notification
// and broadcast fire at most once per event. A failed notification never
// rolls back the approval; dispatch is asynchronous and logged on failure.
func (s *Service) Approve(ctx context.Context, id string) (EventWithOrganizer, error) {
	approved, err := s.repo.Approve(ctx, id)
	if err != nil {
		return EventWithOrganizer{}, err
	}

	s.logger.Info().Str("event_id", id).Str("organizer", approved.Organizer.Email).Msg("event approved")
	s.notifier.DispatchEventApproved(approved.Organizer.Email, approved.Title)
	s.broadcaster.Broadcast(realtime.TypeEventApproved, approved)
	return approved, nil
}

// parseFutureDate parses an RFC 3339 timestamp and requires it to be
// strictly in the future at call time.
func parseFutureDate(value string) (time.Time, error) {
	date, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ValidationError{Field: "date", Message: "must be an RFC 3339 timestamp"}
	}
	if !date.After(time.Now()) {
		return time.Time{}, ValidationError{Field: "date", Message: "must be in the future"}
	}
	return date, nil
}
