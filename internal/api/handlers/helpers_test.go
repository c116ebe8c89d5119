package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gatherline/server/internal/auth"
	"github.com/gatherline/server/internal/domain/events"
	"github.com/gatherline/server/internal/domain/rsvps"
	"github.com/gatherline/server/internal/domain/users"
	"github.com/rs/zerolog"
)

// Event IDs in path values must be well-formed ULIDs.
const (
	testEventID    = "01HQZX3Y4K6F7G8H9J0K1M2N3P"
	missingEventID = "01HQZX3Y4K6F7G8H9J0K1M2N3Q"
)

type stubUsersRepo struct {
	createFn     func(user users.User) (users.User, error)
	getByEmailFn func(email string) (users.User, error)
	getByIDFn    func(id string) (users.User, error)
	countsFn     func(userID string) (users.ActivityCounts, error)
}

func (s stubUsersRepo) Create(_ context.Context, user users.User) (users.User, error) {
	if s.createFn == nil {
		user.CreatedAt = time.Now()
		return user, nil
	}
	return s.createFn(user)
}

func (s stubUsersRepo) GetByEmail(_ context.Context, email string) (users.User, error) {
	if s.getByEmailFn == nil {
		return users.User{}, users.ErrNotFound
	}
	return s.getByEmailFn(email)
}

func (s stubUsersRepo) GetByID(_ context.Context, id string) (users.User, error) {
	if s.getByIDFn == nil {
		return users.User{}, users.ErrNotFound
	}
	return s.getByIDFn(id)
}

func (s stubUsersRepo) Counts(_ context.Context, userID string) (users.ActivityCounts, error) {
	if s.countsFn == nil {
		return users.ActivityCounts{}, nil
	}
	return s.countsFn(userID)
}

type stubEventsRepo struct {
	insertFn    func(event events.Event) (events.EventWithOrganizer, error)
	updateFn    func(event events.Event) (events.EventWithOrganizer, error)
	deleteFn    func(id string) error
	getByIDFn   func(id string) (events.Event, error)
	getDetailFn func(id string) (events.EventDetail, error)
	listFn      func(approvedOnly bool) ([]events.EventWithOrganizer, error)
	approveFn   func(id string) (events.EventWithOrganizer, error)
}

func (s stubEventsRepo) Insert(_ context.Context, event events.Event) (events.EventWithOrganizer, error) {
	if s.insertFn == nil {
		return events.EventWithOrganizer{Event: event}, nil
	}
	return s.insertFn(event)
}

func (s stubEventsRepo) Update(_ context.Context, event events.Event) (events.EventWithOrganizer, error) {
	if s.updateFn == nil {
		return events.EventWithOrganizer{Event: event}, nil
	}
	return s.updateFn(event)
}

func (s stubEventsRepo) Delete(_ context.Context, id string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(id)
}

func (s stubEventsRepo) GetByID(_ context.Context, id string) (events.Event, error) {
	if s.getByIDFn == nil {
		return events.Event{}, events.ErrNotFound
	}
	return s.getByIDFn(id)
}

func (s stubEventsRepo) GetDetail(_ context.Context, id string) (events.EventDetail, error) {
	if s.getDetailFn == nil {
		return events.EventDetail{}, events.ErrNotFound
	}
	return s.getDetailFn(id)
}

func (s stubEventsRepo) List(_ context.Context, approvedOnly bool) ([]events.EventWithOrganizer, error) {
	if s.listFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.listFn(approvedOnly)
}

func (s stubEventsRepo) Approve(_ context.Context, id string) (events.EventWithOrganizer, error) {
	if s.approveFn == nil {
		return events.EventWithOrganizer{}, events.ErrNotFound
	}
	return s.approveFn(id)
}

type stubRSVPsRepo struct {
	upsertFn       func(userID, eventID string, status rsvps.Status) (rsvps.RSVPWithUser, bool, error)
	listForEventFn func(eventID string) ([]rsvps.RSVPWithUser, error)
	listForUserFn  func(userID string) ([]rsvps.RSVPWithEvent, error)
	deleteFn       func(userID, eventID string) error
}

func (s stubRSVPsRepo) Upsert(_ context.Context, userID, eventID string, status rsvps.Status) (rsvps.RSVPWithUser, bool, error) {
	if s.upsertFn == nil {
		return rsvps.RSVPWithUser{}, false, errors.New("not implemented")
	}
	return s.upsertFn(userID, eventID, status)
}

func (s stubRSVPsRepo) ListForEvent(_ context.Context, eventID string) ([]rsvps.RSVPWithUser, error) {
	if s.listForEventFn == nil {
		return []rsvps.RSVPWithUser{}, nil
	}
	return s.listForEventFn(eventID)
}

func (s stubRSVPsRepo) ListForUser(_ context.Context, userID string) ([]rsvps.RSVPWithEvent, error) {
	if s.listForUserFn == nil {
		return []rsvps.RSVPWithEvent{}, nil
	}
	return s.listForUserFn(userID)
}

func (s stubRSVPsRepo) Delete(_ context.Context, userID, eventID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(userID, eventID)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, any) {}

type nopNotifier struct{}

func (nopNotifier) DispatchWelcome(string, string)       {}
func (nopNotifier) DispatchEventApproved(string, string) {}

func testTokens() *auth.JWTManager {
	return auth.NewJWTManager("handler-test-secret", time.Hour, "gatherline")
}

func newUsersService(repo users.Repository) *users.Service {
	return users.NewService(repo, testTokens(), nopNotifier{}, zerolog.Nop())
}

func newEventsService(repo events.Repository) *events.Service {
	return events.NewService(repo, nopBroadcaster{}, nopNotifier{}, zerolog.Nop())
}

func newRSVPsService(repo rsvps.Repository, lookup rsvps.EventLookup) *rsvps.Service {
	return rsvps.NewService(repo, lookup, nopBroadcaster{}, zerolog.Nop())
}
