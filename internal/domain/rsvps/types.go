package rsvps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherline/server/internal/auth"
)

var (
	ErrNotFound         = errors.New("rsvp not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrEventNotApproved = errors.New("cannot RSVP to unapproved event")
)

// Status is the closed attendance status set.
type Status string

const (
	StatusYes   Status = "YES"
	StatusNo    Status = "NO"
	StatusMaybe Status = "MAYBE"
)

func ValidStatus(value string) bool {
	switch Status(value) {
	case StatusYes, StatusNo, StatusMaybe:
		return true
	default:
		return false
	}
}

// ValidationError reports a rejected RSVP field.
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

// RSVP is one user's attendance record for one event. The (UserID, EventID)
// pair is the identity; there is at most one row per pair.
type RSVP struct {
	UserID    string    `json:"userId"`
	EventID   string    `json:"eventId"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserSummary identifies the RSVP-ing user on event-centric listings.
type UserSummary struct {
	ID    string    `json:"id"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

// RSVPWithUser is an RSVP joined with its user, the per-event listing shape.
type RSVPWithUser struct {
	RSVP
	User UserSummary `json:"user"`
}

// OrganizerRef identifies an event's organizer on user-centric listings.
type OrganizerRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// EventSummary is the event slice carried on a user's RSVP listing.
type EventSummary struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Date      time.Time    `json:"date"`
	Location  string       `json:"location"`
	Approved  bool         `json:"approved"`
	Organizer OrganizerRef `json:"organizer"`
}

// RSVPWithEvent is an RSVP joined with its event, the per-user listing shape.
type RSVPWithEvent struct {
	RSVP
	Event EventSummary `json:"event"`
}

type Repository interface {
	// Upsert atomically creates or updates the (userID, eventID) row and
	// reports whether a new row was inserted.
	Upsert(ctx context.Context, userID, eventID string, status Status) (RSVPWithUser, bool, error)
	// ListForEvent returns RSVPs for an event, newest first, with users.
	ListForEvent(ctx context.Context, eventID string) ([]RSVPWithUser, error)
	// ListForUser returns a user's RSVPs, newest first, with events.
	ListForUser(ctx context.Context, userID string) ([]RSVPWithEvent, error)
	// Delete removes the (userID, eventID) row; ErrNotFound when absent.
	Delete(ctx context.Context, userID, eventID string) error
}
