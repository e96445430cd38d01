package absences_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/standupconnect/internal/app/features/absences"
	uierrors "github.com/dalemusser/standupconnect/internal/app/features/errors"
	"github.com/dalemusser/standupconnect/internal/app/lifecycle"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/dalemusser/standupconnect/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type env struct {
	router chi.Router
	fx     *testutil.Fixtures
	org    models.User
	comic  models.User
	event  models.Event
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupSchemaDB(t)
	logger := zap.NewNop()
	svc := lifecycle.New(db, nil, lifecycle.Options{}, logger)
	h := absences.NewHandler(svc, nil, uierrors.NewErrorLogger(logger), logger)

	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := fx.CreateOrganizer(ctx, "Olga", "olga@example.com")
	comic := fx.CreateComedian(ctx, "Carl", "carl@example.com")
	ev := fx.CreateEvent(ctx, "Open Mic", org.ID, time.Now().Add(-24*time.Hour))
	fx.AddParticipant(ctx, ev.ID, comic.ID)
	return env{router: absences.Routes(h), fx: fx, org: org, comic: comic, event: ev}
}

func (e env) do(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e env) mark(user testutil.TestUser, reason string) *testutil.ResponseRecorder {
	body := map[string]string{"eventId": e.event.ID.Hex(), "comedianId": e.comic.ID.Hex(), "reason": reason}
	return e.do(testutil.WithUser(testutil.NewJSONRequest("POST", "/", body), user))
}

func TestMarkUnmark_RoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.mark(testutil.AsTestUser(e.org), "No show").AssertStatus(t, http.StatusCreated)
	e.mark(testutil.AsTestUser(e.org), "No show, no call").AssertStatus(t, http.StatusOK)
	if n := e.fx.User(ctx, e.comic.ID).Stats.Absences; n != 1 {
		t.Errorf("absences after marking twice: got %d, want 1", n)
	}

	path := "/" + e.event.ID.Hex() + "/" + e.comic.ID.Hex()
	e.do(testutil.NewAuthenticatedRequest("DELETE", path, testutil.AsTestUser(e.org))).AssertStatus(t, http.StatusOK)
	if n := e.fx.User(ctx, e.comic.ID).Stats.Absences; n != 0 {
		t.Errorf("absences after unmark: got %d, want 0", n)
	}
	rec := e.do(testutil.NewAuthenticatedRequest("DELETE", path, testutil.AsTestUser(e.org)))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertMessage(t, "Absence not found")
}

func TestMark_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.mark(testutil.OrganizerUser(), "").AssertStatus(t, http.StatusForbidden)
	e.mark(testutil.AsTestUser(e.comic), "").AssertStatus(t, http.StatusForbidden)

	stranger := e.fx.CreateComedian(ctx, "Sam", "sam@example.com")
	body := map[string]string{"eventId": e.event.ID.Hex(), "comedianId": stranger.ID.Hex()}
	rec := e.do(testutil.WithUser(testutil.NewJSONRequest("POST", "/", body), testutil.AsTestUser(e.org)))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertMessage(t, "Comedian is not a participant of this event")

	body = map[string]string{"eventId": "0123456789abcdef01234567", "comedianId": e.comic.ID.Hex()}
	e.do(testutil.WithUser(testutil.NewJSONRequest("POST", "/", body), testutil.AsTestUser(e.org))).AssertStatus(t, http.StatusNotFound)
}

func TestListings(t *testing.T) {
	e := newEnv(t)
	e.mark(testutil.AsTestUser(e.org), "Late").AssertStatus(t, http.StatusCreated)

	tests := []struct {
		name   string
		target string
		user   testutil.TestUser
		status int
		count  int
	}{
		{"event organizer", "/event/" + e.event.ID.Hex(), testutil.AsTestUser(e.org), http.StatusOK, 1},
		{"other organizer on event", "/event/" + e.event.ID.Hex(), testutil.OrganizerUser(), http.StatusForbidden, 0},
		{"comedian own", "/comedian/" + e.comic.ID.Hex(), testutil.AsTestUser(e.comic), http.StatusOK, 1},
		{"other organizer on comedian", "/comedian/" + e.comic.ID.Hex(), testutil.OrganizerUser(), http.StatusOK, 0},
		{"other comedian", "/comedian/" + e.comic.ID.Hex(), testutil.ComedianUser(), http.StatusForbidden, 0},
		{"super admin", "/comedian/" + e.comic.ID.Hex(), testutil.SuperAdminUser(), http.StatusOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.NewAuthenticatedRequest("GET", tt.target, tt.user))
			rec.AssertStatus(t, tt.status)
			if tt.status != http.StatusOK {
				return
			}
			var got []models.Absence
			rec.DecodeJSON(t, &got)
			if len(got) != tt.count {
				t.Errorf("got %d absences, want %d", len(got), tt.count)
			}
		})
	}
}

func TestSync(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.mark(testutil.AsTestUser(e.org), "").AssertStatus(t, http.StatusCreated)
	e.fx.DB().Collection("users").UpdateByID(ctx, e.comic.ID, bson.M{"$set": bson.M{"stats.absences": 7}})

	e.do(testutil.NewAuthenticatedRequest("POST", "/sync-absences", testutil.AsTestUser(e.org))).AssertStatus(t, http.StatusForbidden)

	rec := e.do(testutil.NewAuthenticatedRequest("POST", "/sync-absences", testutil.SuperAdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	if n := e.fx.User(ctx, e.comic.ID).Stats.Absences; n != 1 {
		t.Errorf("absences after sync: got %d, want 1", n)
	}
}
