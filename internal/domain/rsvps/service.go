package rsvps

import (
	"context"
	"errors"

	"github.com/gatherline/server/internal/domain/events"
	"github.com/gatherline/server/internal/realtime"
	"github.com/rs/zerolog"
)

// EventLookup resolves the approval-gate precondition. The events repository
// satisfies it directly.
type EventLookup interface {
	GetByID(ctx context.Context, id string) (events.Event, error)
}

// Broadcaster pushes typed envelopes to all open realtime connections.
type Broadcaster interface {
	Broadcast(typ string, payload any)
}

type Service struct {
	repo        Repository
	eventLookup EventLookup
	broadcaster Broadcaster
	logger      zerolog.Logger
}

func NewService(repo Repository, eventLookup EventLookup, broadcaster Broadcaster, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		eventLookup: eventLookup,
		broadcaster: broadcaster,
		logger:      logger.With().Str("component", "rsvps").Logger(),
	}
}

// Upsert creates or updates the caller's RSVP for an event. The event must
// exist and be approved. Whether RSVP_CREATED or RSVP_UPDATED is broadcast
// depends on whether a prior row existed for the (user, event) pair.
func (s *Service) Upsert(ctx context.Context, userID, eventID, status string) (RSVPWithUser, error) {
	if !ValidStatus(status) {
		return RSVPWithUser{}, ValidationError{Field: "status", Message: "must be one of YES, NO, MAYBE"}
	}

	event, err := s.eventLookup.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			return RSVPWithUser{}, ErrEventNotFound
		}
		return RSVPWithUser{}, err
	}
	if !event.Approved {
		return RSVPWithUser{}, ErrEventNotApproved
	}

	rsvp, created, err := s.repo.Upsert(ctx, userID, eventID, Status(status))
	if err != nil {
		return RSVPWithUser{}, err
	}

	if created {
		s.logger.Info().Str("user_id", userID).Str("event_id", eventID).Str("status", status).Msg("rsvp created")
		s.broadcaster.Broadcast(realtime.TypeRSVPCreated, rsvp)
	} else {
		s.logger.Info().Str("user_id", userID).Str("event_id", eventID).Str("status", status).Msg("rsvp updated")
		s.broadcaster.Broadcast(realtime.TypeRSVPUpdated, rsvp)
	}
	return rsvp, nil
}

// ListForEvent returns all RSVPs for an event, newest first.
func (s *Service) ListForEvent(ctx context.Context, eventID string) ([]RSVPWithUser, error) {
	return s.repo.ListForEvent(ctx, eventID)
}

// ListForUser returns the user's RSVPs, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]RSVPWithEvent, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Delete removes the caller's RSVP for an event. No broadcast is emitted for
// deletion.
func (s *Service) Delete(ctx context.Context, userID, eventID string) error {
	if err := s.repo.Delete(ctx, userID, eventID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Str("event_id", eventID).Msg("rsvp deleted")
	return nil
}
