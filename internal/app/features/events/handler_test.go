package events_test

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/standupconnect/internal/app/features/errors"
	"github.com/dalemusser/standupconnect/internal/app/features/events"
	"github.com/dalemusser/standupconnect/internal/app/features/shared/views"
	"github.com/dalemusser/standupconnect/internal/app/lifecycle"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/dalemusser/standupconnect/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type env struct {
	router chi.Router
	fx     *testutil.Fixtures
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupSchemaDB(t)
	logger := zap.NewNop()
	svc := lifecycle.New(db, nil, lifecycle.Options{}, logger)
	h := events.NewHandler(db, svc, nil, uierrors.NewErrorLogger(logger), logger)
	return env{router: events.Routes(h), fx: testutil.NewFixtures(t, db)}
}

func (e env) do(t *testing.T, req *http.Request) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func validEvent() map[string]any {
	return map[string]any{
		"title":       "Friday Open Mic",
		"description": "Ten minute sets, friendly crowd.",
		"date":        time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		"startTime":   "20:30",
		"location":    map[string]string{"venue": "The Cellar", "address": "1 Main St", "city": "Lyon", "country": "France"},
		"requirements": map[string]int{"minExperience": 1, "duration": 10},
	}
}

func TestCreate(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := e.fx.CreateOrganizer(ctx, "Olga", "olga@example.com")
	comic := e.fx.CreateComedian(ctx, "Carl", "carl@example.com")

	rec := e.do(t, testutil.WithUser(testutil.NewJSONRequest("POST", "/", validEvent()), testutil.AsTestUser(org)))
	rec.AssertStatus(t, http.StatusCreated)
	var got views.Event
	rec.DecodeJSON(t, &got)
	if got.Status != models.EventPublished || got.OrganizerID != org.ID || got.Organizer == nil {
		t.Errorf("unexpected event: %+v", got.Event)
	}
	if n := e.fx.User(ctx, org.ID).Stats.TotalEvents; n != 1 {
		t.Errorf("organizer total_events: got %d, want 1", n)
	}

	rec = e.do(t, testutil.WithUser(testutil.NewJSONRequest("POST", "/", validEvent()), testutil.AsTestUser(comic)))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = e.do(t, testutil.NewJSONRequest("POST", "/", validEvent()))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestCreate_Validation(t *testing.T) {
	e := newEnv(t)
	body := validEvent()
	body["title"] = "ab"
	body["location"] = map[string]string{"city": "Lyon"}

	rec := e.do(t, testutil.WithUser(testutil.NewJSONRequest("POST", "/", body), testutil.OrganizerUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertMessage(t, "Validation error")
}

func TestList_ByRole(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	olga := e.fx.CreateOrganizer(ctx, "Olga", "olga@example.com")
	otto := e.fx.CreateOrganizer(ctx, "Otto", "otto@example.com")
	soon := time.Now().Add(24 * time.Hour)
	e.fx.CreateEvent(ctx, "Olga One", olga.ID, soon)
	e.fx.CreateEvent(ctx, "Otto One", otto.ID, soon.Add(time.Hour))
	draft := e.fx.CreateEvent(ctx, "Otto Draft", otto.ID, soon.Add(2*time.Hour))
	e.fx.DB().Collection("events").UpdateByID(ctx, draft.ID, map[string]any{"$set": map[string]any{"status": models.EventDraft}})

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"anonymous sees published", testutil.NewRequest("GET", "/"), 2},
		{"organizer sees own", testutil.NewAuthenticatedRequest("GET", "/", testutil.AsTestUser(otto)), 2},
		{"comedian skips drafts", testutil.NewAuthenticatedRequest("GET", "/", testutil.ComedianUser()), 2},
		{"super admin sees all", testutil.NewAuthenticatedRequest("GET", "/", testutil.SuperAdminUser()), 3},
		{"organizerId filter", testutil.NewRequest("GET", "/?organizerId="+olga.ID.Hex()), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, tt.req)
			rec.AssertStatus(t, http.StatusOK)
			var got []views.Event
			rec.DecodeJSON(t, &got)
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, testutil.NewRequest("GET", "/0123456789abcdef01234567"))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertMessage(t, "Event not found")
}

func TestUpdate(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := e.fx.CreateOrganizer(ctx, "Olga", "olga@example.com")
	comic := e.fx.CreateComedian(ctx, "Carl", "carl@example.com")
	ev := e.fx.CreateEvent(ctx, "Open Mic", org.ID, time.Now().Add(48*time.Hour))
	e.fx.CreateApplication(ctx, ev.ID, comic.ID, models.StatusPending)

	patch := map[string]any{"title": "Open Mic Deluxe", "location": map[string]string{"city": "Nice"}}
	rec := e.do(t, testutil.WithUser(testutil.NewJSONRequest("PUT", "/"+ev.ID.Hex(), patch), testutil.OrganizerUser()))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertMessage(t, "Event not found or unauthorized")

	rec = e.do(t, testutil.WithUser(testutil.NewJSONRequest("PUT", "/"+ev.ID.Hex(), patch), testutil.AsTestUser(org)))
	rec.AssertStatus(t, http.StatusOK)
	var got views.Event
	rec.DecodeJSON(t, &got)
	if got.Title != "Open Mic Deluxe" || got.Location.City != "Nice" || got.Location.Address != "1 Main Street" {
		t.Errorf("partial update not applied: %+v", got.Location)
	}
	if !got.ModifiedByOrganizer {
		t.Error("expected modifiedByOrganizer with existing applications")
	}
}

func TestDelete_Cascades(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := e.fx.CreateOrganizer(ctx, "Olga", "olga@example.com")
	comic := e.fx.CreateComedian(ctx, "Carl", "carl@example.com")
	ev := e.fx.CreateEvent(ctx, "Open Mic", org.ID, time.Now().Add(48*time.Hour))
	e.fx.CreateApplication(ctx, ev.ID, comic.ID, models.StatusPending)

	rec := e.do(t, testutil.NewAuthenticatedRequest("DELETE", "/"+ev.ID.Hex(), testutil.AsTestUser(org)))
	rec.AssertStatus(t, http.StatusOK)

	n, _ := e.fx.DB().Collection("applications").CountDocuments(ctx, map[string]any{"event_id": ev.ID})
	if n != 0 {
		t.Errorf("applications left after delete: %d", n)
	}
	rec = e.do(t, testutil.NewRequest("GET", "/"+ev.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestStats(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := e.fx.CreateOrganizer(ctx, "Olga", "olga@example.com")
	other := e.fx.CreateOrganizer(ctx, "Otto", "otto@example.com")
	c1 := e.fx.CreateComedian(ctx, "Carl", "carl@example.com")
	c2 := e.fx.CreateComedian(ctx, "Cleo", "cleo@example.com")
	up := e.fx.CreateEvent(ctx, "Upcoming", org.ID, time.Now().Add(48*time.Hour))
	past := e.fx.CreateEvent(ctx, "Past", org.ID, time.Now().Add(-48*time.Hour))
	e.fx.CreateEvent(ctx, "Other", other.ID, time.Now().Add(48*time.Hour))
	e.fx.CreateApplication(ctx, up.ID, c1.ID, models.StatusPending)
	e.fx.CreateApplication(ctx, past.ID, c2.ID, models.StatusAccepted)

	var got struct {
		Total     int64 `json:"totalEvents"`
		Upcoming  int64 `json:"upcomingIncompleteEvents"`
		Completed int64 `json:"completedEvents"`
		Pending   int64 `json:"pendingApplications"`
		Accepted  int64 `json:"acceptedApplications"`
	}
	rec := e.do(t, testutil.NewAuthenticatedRequest("GET", "/stats", testutil.AsTestUser(org)))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &got)
	if got.Total != 2 || got.Upcoming != 1 || got.Completed != 1 || got.Pending != 1 || got.Accepted != 1 {
		t.Errorf("organizer stats: %+v", got)
	}

	rec = e.do(t, testutil.NewAuthenticatedRequest("GET", "/stats", testutil.SuperAdminUser()))
	rec.DecodeJSON(t, &got)
	if got.Total != 3 {
		t.Errorf("super admin total: got %d, want 3", got.Total)
	}
}

func TestBatchEndpoints_SuperAdminOnly(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := e.fx.CreateOrganizer(ctx, "Olga", "olga@example.com")
	comic := e.fx.CreateComedian(ctx, "Carl", "carl@example.com")
	past := e.fx.CreateEvent(ctx, "Past", org.ID, time.Now().Add(-48*time.Hour))
	e.fx.AddParticipant(ctx, past.ID, comic.ID)

	for _, path := range []string{"/process-completed-events", "/reset-participations"} {
		rec := e.do(t, testutil.NewAuthenticatedRequest("POST", path, testutil.AsTestUser(org)))
		rec.AssertStatus(t, http.StatusForbidden)
	}

	rec := e.do(t, testutil.NewAuthenticatedRequest("POST", "/process-completed-events", testutil.SuperAdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	var got struct {
		RunID string `json:"runId"`
		Added int    `json:"participationsAdded"`
	}
	rec.DecodeJSON(t, &got)
	if got.RunID == "" || got.Added != 1 {
		t.Errorf("process result: %+v", got)
	}

	rec = e.do(t, testutil.NewAuthenticatedRequest("POST", "/reset-participations", testutil.SuperAdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	if n := e.fx.User(ctx, comic.ID).Stats.TotalEvents; n != 0 {
		t.Errorf("total_events after reset: got %d", n)
	}
}
