package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherline/server/internal/auth"
)

var (
	ErrNotFound        = errors.New("event not found")
	ErrForbidden       = errors.New("you do not have permission to modify this event")
	ErrAlreadyApproved = errors.New("event is already approved")
)

// ValidationError reports a rejected event field.
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

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	OrganizerID string    `json:"organizerId"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OrganizerSummary is the organizer slice exposed on event payloads.
type OrganizerSummary struct {
	ID    string    `json:"id"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

// EventWithOrganizer is the listing shape: the event joined with its
// organizer summary and RSVP count.
type EventWithOrganizer struct {
	Event
	Organizer OrganizerSummary `json:"organizer"`
	RSVPCount int              `json:"rsvpCount"`
}

// AttendeeSummary identifies the RSVP-ing user on an event detail.
type AttendeeSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// EventRSVP is one attendance entry on an event detail.
type EventRSVP struct {
	UserID    string          `json:"userId"`
	EventID   string          `json:"eventId"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	User      AttendeeSummary `json:"user"`
}

// EventDetail is the single-event shape: organizer plus the full RSVP list.
type EventDetail struct {
	EventWithOrganizer
	RSVPs []EventRSVP `json:"rsvps"`
}

type Repository interface {
	// Insert persists a new event and returns it joined with its organizer.
	Insert(ctx context.Context, event Event) (EventWithOrganizer, error)
	// Update persists the full event row and returns the joined shape.
	Update(ctx context.Context, event Event) (EventWithOrganizer, error)
	// Delete removes the event and all its RSVPs in one transaction.
	Delete(ctx context.Context, id string) error
	// GetByID fetches the bare event row.
	GetByID(ctx context.Context, id string) (Event, error)
	// GetDetail fetches the event with organizer and RSVP list.
	GetDetail(ctx context.Context, id string) (EventDetail, error)
	// List returns events ordered by date ascending. When approvedOnly is
	// set, unapproved events are filtered out.
	List(ctx context.Context, approvedOnly bool) ([]EventWithOrganizer, error)
	// Approve flips approved false->true. Returns ErrAlreadyApproved when
	// the flag was already set, ErrNotFound when the event is absent.
	Approve(ctx context.Context, id string) (EventWithOrganizer, error)
}
