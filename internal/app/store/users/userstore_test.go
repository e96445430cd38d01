package userstore_test

import (
	"errors"
	"testing"
	"time"

	userstore "github.com/dalemusser/standupconnect/internal/app/store/users"
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/paging"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/dalemusser/standupconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupSchemaDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Email:        "  Amy@Example.COM ",
		PasswordHash: "hash",
		FirstName:    " Amy ",
		LastName:     "Schumer",
		Role:         "comedian",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "amy@example.com" {
		t.Errorf("Email: got %q, want %q", created.Email, "amy@example.com")
	}
	if created.FirstName != "Amy" {
		t.Errorf("FirstName: got %q, want %q", created.FirstName, "Amy")
	}
	if created.Role != models.RoleComedian {
		t.Errorf("Role: got %q, want %q", created.Role, models.RoleComedian)
	}
	if created.Profile == nil {
		t.Error("expected comedian profile to be initialised")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := store.GetByEmail(ctx, "AMY@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail: got %v, want %v", got.ID, created.ID)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupSchemaDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := models.User{Email: "dup@example.com", PasswordHash: "h", FirstName: "Dup", LastName: "User", Role: models.RoleOrganizer}
	if _, err := store.Create(ctx, u); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	u.Email = "DUP@example.com"
	if _, err := store.Create(ctx, u); !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("second Create: got %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_Create_BadRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{Email: "x@example.com", FirstName: "X", LastName: "Y", Role: "heckler"})
	if err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStore_Update_EmailUniqueness(t *testing.T) {
	db := testutil.SetupSchemaDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateComedian(ctx, "Ali", "ali@example.com")
	fx.CreateComedian(ctx, "Bo", "bo@example.com")

	if _, err := store.Update(ctx, a.ID, bson.M{"email": "BO@example.com"}); !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("Update to taken email: got %v, want ErrDuplicateEmail", err)
	}

	u, err := store.Update(ctx, a.ID, bson.M{"email": "Ali.New@Example.com", "city": "Lyon"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if u.Email != "ali.new@example.com" || u.City != "Lyon" {
		t.Errorf("Update: got email %q city %q", u.Email, u.City)
	}

	taken, err := store.EmailTaken(ctx, "ali.new@example.com", a.ID)
	if err != nil || taken {
		t.Errorf("EmailTaken excluding self: got %v, %v", taken, err)
	}
}

func TestStore_ApplyStatsDelta_ClampsAtZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateComedian(ctx, "Cam", "cam@example.com")

	if err := store.ApplyStatsDelta(ctx, c.ID, models.StatsDelta{ApplicationsSent: 1, ApplicationsPending: 1}); err != nil {
		t.Fatalf("ApplyStatsDelta failed: %v", err)
	}
	if err := store.ApplyStatsDelta(ctx, c.ID, models.StatsDelta{ApplicationsPending: -3, Absences: -1}); err != nil {
		t.Fatalf("ApplyStatsDelta failed: %v", err)
	}

	got := fx.User(ctx, c.ID).Stats
	if got.ApplicationsSent != 1 {
		t.Errorf("ApplicationsSent: got %d, want 1", got.ApplicationsSent)
	}
	if got.ApplicationsPending != 0 {
		t.Errorf("ApplicationsPending: got %d, want 0", got.ApplicationsPending)
	}
	if got.Absences != 0 {
		t.Errorf("Absences: got %d, want 0", got.Absences)
	}

	if err := store.ApplyStatsDelta(ctx, primitive.NewObjectID(), models.StatsDelta{Absences: 1}); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("missing user: got %v, want ErrNotFound", err)
	}
}

func TestStore_CreditParticipation_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateComedian(ctx, "Dee", "dee@example.com")
	eventID := primitive.NewObjectID()

	first, err := store.CreditParticipation(ctx, c.ID, eventID, true)
	if err != nil || !first {
		t.Fatalf("first credit: got %v, %v", first, err)
	}
	second, err := store.CreditParticipation(ctx, c.ID, eventID, true)
	if err != nil || second {
		t.Fatalf("second credit: got %v, %v", second, err)
	}

	stats := fx.User(ctx, c.ID).Stats
	if stats.TotalEvents != 1 {
		t.Errorf("TotalEvents: got %d, want 1", stats.TotalEvents)
	}
	if len(stats.ProcessedEvents) != 1 {
		t.Errorf("ProcessedEvents: got %d entries, want 1", len(stats.ProcessedEvents))
	}

	n, err := store.ResetParticipations(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ResetParticipations: got %d, %v", n, err)
	}
	stats = fx.User(ctx, c.ID).Stats
	if stats.TotalEvents != 0 || len(stats.ProcessedEvents) != 0 {
		t.Errorf("after reset: got %+v", stats)
	}
}

func TestStore_ApplyEventDelta_TracksMarker(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateComedian(ctx, "Eve", "eve@example.com")
	eventID := primitive.NewObjectID()
	accept := models.StatsDelta{TotalEvents: 1, ApplicationsAccepted: 1, ApplicationsPending: -1}

	for i := 0; i < 2; i++ {
		if err := store.ApplyEventDelta(ctx, c.ID, eventID, accept); err != nil {
			t.Fatalf("ApplyEventDelta: %v", err)
		}
	}
	stats := fx.User(ctx, c.ID).Stats
	if stats.TotalEvents != 1 {
		t.Errorf("TotalEvents after repeated accept: got %d, want 1", stats.TotalEvents)
	}
	if stats.ApplicationsAccepted != 2 {
		t.Errorf("ApplicationsAccepted: got %d, want 2", stats.ApplicationsAccepted)
	}
	if len(stats.ProcessedEvents) != 1 || stats.ProcessedEvents[0] != eventID {
		t.Errorf("ProcessedEvents: got %v", stats.ProcessedEvents)
	}

	if credited, _ := store.CreditParticipation(ctx, c.ID, eventID, true); credited {
		t.Error("CreditParticipation counted an event already marked by acceptance")
	}

	leave := models.StatsDelta{TotalEvents: -1, ApplicationsAccepted: -1}
	for i := 0; i < 2; i++ {
		if err := store.ApplyEventDelta(ctx, c.ID, eventID, leave); err != nil {
			t.Fatalf("ApplyEventDelta: %v", err)
		}
	}
	stats = fx.User(ctx, c.ID).Stats
	if stats.TotalEvents != 0 || len(stats.ProcessedEvents) != 0 {
		t.Errorf("after leaving: got %+v", stats)
	}
}

func TestStore_AbsentEventIsNeverUncounted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateComedian(ctx, "Fay", "fay@example.com")
	attended, absent := primitive.NewObjectID(), primitive.NewObjectID()

	if ok, err := store.CreditParticipation(ctx, c.ID, attended, true); err != nil || !ok {
		t.Fatalf("credit attended: got %v, %v", ok, err)
	}
	if ok, err := store.CreditParticipation(ctx, c.ID, absent, false); err != nil || !ok {
		t.Fatalf("credit absent: got %v, %v", ok, err)
	}
	if ok, _ := store.CreditParticipation(ctx, c.ID, absent, true); ok {
		t.Error("an event reconciled as absent was credited again")
	}

	stats := fx.User(ctx, c.ID).Stats
	if stats.TotalEvents != 1 || len(stats.ProcessedEvents) != 1 || len(stats.AbsentEvents) != 1 {
		t.Fatalf("after reconcile: got %+v", stats)
	}

	if err := store.ApplyEventDelta(ctx, c.ID, absent, models.StatsDelta{TotalEvents: -1, ApplicationsAccepted: -1}); err != nil {
		t.Fatalf("ApplyEventDelta: %v", err)
	}
	stats = fx.User(ctx, c.ID).Stats
	if stats.TotalEvents != 1 {
		t.Errorf("TotalEvents: got %d, want 1", stats.TotalEvents)
	}
	if len(stats.AbsentEvents) != 0 || len(stats.ProcessedEvents) != 1 {
		t.Errorf("markers: got %+v", stats)
	}
}

func TestStore_SetAbsenceCounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateComedian(ctx, "Al", "al@example.com")
	b := fx.CreateComedian(ctx, "Bea", "bea@example.com")
	_ = store.ApplyStatsDelta(ctx, b.ID, models.StatsDelta{Absences: 5})

	changed, err := store.SetAbsenceCounts(ctx, map[primitive.ObjectID]int{a.ID: 2})
	if err != nil {
		t.Fatalf("SetAbsenceCounts failed: %v", err)
	}
	if changed != 2 {
		t.Errorf("changed: got %d, want 2", changed)
	}
	if got := fx.User(ctx, a.ID).Stats.Absences; got != 2 {
		t.Errorf("a absences: got %d, want 2", got)
	}
	if got := fx.User(ctx, b.ID).Stats.Absences; got != 0 {
		t.Errorf("b absences: got %d, want 0", got)
	}
}

func TestStore_ListMembersAndSummaries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateComedian(ctx, "Eve", "eve@example.com")
	time.Sleep(5 * time.Millisecond)
	o := fx.CreateOrganizer(ctx, "Fay", "fay@example.com")
	fx.CreateSuperAdmin(ctx, "root@example.com")

	members, err := store.ListMembers(ctx, paging.Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("ListMembers: got %d, want 2", len(members))
	}
	if members[0].ID != o.ID {
		t.Errorf("newest first: got %s, want %s", members[0].Email, o.Email)
	}

	sums, err := store.Summaries(ctx, []primitive.ObjectID{c.ID, o.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Summaries failed: %v", err)
	}
	if len(sums) != 2 || sums[c.ID].FirstName != "Eve" {
		t.Errorf("Summaries: got %+v", sums)
	}

	recips, err := store.ComedianRecipients(ctx)
	if err != nil || len(recips) != 1 || recips[0].Email != "eve@example.com" {
		t.Errorf("ComedianRecipients: got %+v, %v", recips, err)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	f := userstore.NewFetcher(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	o := fx.CreateOrganizer(ctx, "Gus", "gus@example.com")

	su, err := f.FetchUser(ctx, o.ID.Hex())
	if err != nil {
		t.Fatalf("FetchUser failed: %v", err)
	}
	if su.Role != models.RoleOrganizer || su.Email != "gus@example.com" || su.Name != "Gus Host" {
		t.Errorf("FetchUser: got %+v", su)
	}

	if _, err := f.FetchUser(ctx, primitive.NewObjectID().Hex()); !errors.Is(err, auth.ErrUserGone) {
		t.Errorf("unknown user: got %v, want ErrUserGone", err)
	}
	if _, err := f.FetchUser(ctx, "not-an-id"); !errors.Is(err, auth.ErrUserGone) {
		t.Errorf("malformed id: got %v, want ErrUserGone", err)
	}
}
