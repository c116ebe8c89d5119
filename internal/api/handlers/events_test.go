package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gatherline/server/internal/api/middleware"
	"github.com/gatherline/server/internal/auth"
	"github.com/gatherline/server/internal/domain/events"
	"github.com/stretchr/testify/require"
)

func authedRequest(method, target string, body string, principal auth.Principal) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithPrincipal(req.Context(), principal))
}

func TestEventsList_ApprovedOnly(t *testing.T) {
	repo := stubEventsRepo{
		listFn: func(approvedOnly bool) ([]events.EventWithOrganizer, error) {
			require.True(t, approvedOnly)
			return []events.EventWithOrganizer{
				{Event: events.Event{ID: "e1", Approved: true}},
			}, nil
		},
	}
	handler := NewEventsHandler(newEventsService(repo))

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var listed []events.EventWithOrganizer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, "e1", listed[0].ID)
}

func TestEventsListAll_IncludesUnapproved(t *testing.T) {
	repo := stubEventsRepo{
		listFn: func(approvedOnly bool) ([]events.EventWithOrganizer, error) {
			require.False(t, approvedOnly)
			return []events.EventWithOrganizer{
				{Event: events.Event{ID: "e1", Approved: true}},
				{Event: events.Event{ID: "e2", Approved: false}},
			}, nil
		},
	}
	handler := NewEventsHandler(newEventsService(repo))

	req := httptest.NewRequest(http.MethodGet, "/events/admin/all", nil)
	rec := httptest.NewRecorder()

	handler.ListAll(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var listed []events.EventWithOrganizer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
}

func TestEventsGet_NotFound(t *testing.T) {
	handler := NewEventsHandler(newEventsService(stubEventsRepo{}))

	req := httptest.NewRequest(http.MethodGet, "/events/"+missingEventID, nil)
	req.SetPathValue("id", missingEventID)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsGet_MalformedID(t *testing.T) {
	repo := stubEventsRepo{
		getDetailFn: func(id string) (events.EventDetail, error) {
			t.Fatalf("store reached with malformed id %q", id)
			return events.EventDetail{}, nil
		},
	}
	handler := NewEventsHandler(newEventsService(repo))

	req := httptest.NewRequest(http.MethodGet, "/events/not-a-ulid", nil)
	req.SetPathValue("id", "not-a-ulid")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsCreate_Success(t *testing.T) {
	var inserted events.Event
	repo := stubEventsRepo{
		insertFn: func(event events.Event) (events.EventWithOrganizer, error) {
			inserted = event
			return events.EventWithOrganizer{Event: event}, nil
		},
	}
	handler := NewEventsHandler(newEventsService(repo))

	date := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{"title":"Meetup","description":"Monthly","date":%q,"location":"Hall"}`, date)
	req := authedRequest(http.MethodPost, "/events", body, auth.Principal{
		ID:   "org-1",
		Role: auth.RoleOrganizer,
	})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "org-1", inserted.OrganizerID)
	require.False(t, inserted.Approved)
	require.NotEmpty(t, inserted.ID)
}

func TestEventsCreate_MissingFields(t *testing.T) {
	handler := NewEventsHandler(newEventsService(stubEventsRepo{}))

	req := authedRequest(http.MethodPost, "/events", `{"title":"only title"}`, auth.Principal{
		ID:   "org-1",
		Role: auth.RoleOrganizer,
	})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsCreate_PastDate(t *testing.T) {
	handler := NewEventsHandler(newEventsService(stubEventsRepo{}))

	date := time.Now().Add(-time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{"title":"Meetup","description":"Monthly","date":%q,"location":"Hall"}`, date)
	req := authedRequest(http.MethodPost, "/events", body, auth.Principal{
		ID:   "org-1",
		Role: auth.RoleOrganizer,
	})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsUpdate_ForbiddenForStranger(t *testing.T) {
	repo := stubEventsRepo{
		getByIDFn: func(id string) (events.Event, error) {
			return events.Event{ID: id, OrganizerID: "owner"}, nil
		},
	}
	handler := NewEventsHandler(newEventsService(repo))

	req := authedRequest(http.MethodPut, "/events/"+testEventID, `{"title":"New"}`, auth.Principal{
		ID:   "stranger",
		Role: auth.RoleOrganizer,
	})
	req.SetPathValue("id", testEventID)
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEventsUpdate_AdminAllowed(t *testing.T) {
	repo := stubEventsRepo{
		getByIDFn: func(id string) (events.Event, error) {
			return events.Event{ID: id, Title: "Old", OrganizerID: "owner", Date: time.Now().Add(time.Hour)}, nil
		},
	}
	handler := NewEventsHandler(newEventsService(repo))

	req := authedRequest(http.MethodPut, "/events/"+testEventID, `{"title":"New"}`, auth.Principal{
		ID:   "admin-1",
		Role: auth.RoleAdmin,
	})
	req.SetPathValue("id", testEventID)
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"New"`)
}

func TestEventsDelete_Success(t *testing.T) {
	deleted := ""
	repo := stubEventsRepo{
		getByIDFn: func(id string) (events.Event, error) {
			return events.Event{ID: id, OrganizerID: "owner"}, nil
		},
		deleteFn: func(id string) error {
			deleted = id
			return nil
		},
	}
	handler := NewEventsHandler(newEventsService(repo))

	req := authedRequest(http.MethodDelete, "/events/"+testEventID, "", auth.Principal{
		ID:   "owner",
		Role: auth.RoleOrganizer,
	})
	req.SetPathValue("id", testEventID)
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, testEventID, deleted)
	require.Contains(t, rec.Body.String(), "message")
}

func TestEventsApprove_Success(t *testing.T) {
	repo := stubEventsRepo{
		approveFn: func(id string) (events.EventWithOrganizer, error) {
			return events.EventWithOrganizer{
				Event: events.Event{ID: id, Approved: true},
			}, nil
		},
	}
	handler := NewEventsHandler(newEventsService(repo))

	req := httptest.NewRequest(http.MethodPut, "/events/"+testEventID+"/approve", nil)
	req.SetPathValue("id", testEventID)
	rec := httptest.NewRecorder()

	handler.Approve(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"approved":true`)
}

func TestEventsApprove_AlreadyApproved(t *testing.T) {
	repo := stubEventsRepo{
		approveFn: func(string) (events.EventWithOrganizer, error) {
			return events.EventWithOrganizer{}, events.ErrAlreadyApproved
		},
	}
	handler := NewEventsHandler(newEventsService(repo))

	req := httptest.NewRequest(http.MethodPut, "/events/"+testEventID+"/approve", nil)
	req.SetPathValue("id", testEventID)
	rec := httptest.NewRecorder()

	handler.Approve(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}
