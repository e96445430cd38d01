package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plaintext password of every fixture user.
const FixturePassword = "password123"

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db   *mongo.Database
	t    *testing.T
	hash string
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return &Fixtures{db: db, t: t, hash: string(h)}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with zeroed stats.
func (f *Fixtures) CreateUser(ctx context.Context, first, last, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: f.hash,
		FirstName:    first,
		LastName:     last,
		Role:         role,
		Stats:        models.UserStats{ProcessedEvents: []primitive.ObjectID{}},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == models.RoleComedian {
		u.Profile = &models.ComedianProfile{}
	}
	if role == models.RoleOrganizer {
		u.OrganizerProfile = &models.OrganizerProfile{}
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateComedian inserts a COMEDIAN.
func (f *Fixtures) CreateComedian(ctx context.Context, first, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, first, "Comic", email, models.RoleComedian)
}

// CreateOrganizer inserts an ORGANIZER.
func (f *Fixtures) CreateOrganizer(ctx context.Context, first, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, first, "Host", email, models.RoleOrganizer)
}

// CreateSuperAdmin inserts a SUPER_ADMIN.
func (f *Fixtures) CreateSuperAdmin(ctx context.Context, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, "Super", "Admin", email, models.RoleSuperAdmin)
}

// CreateEvent inserts a published event owned by organizerID starting at date.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, organizerID primitive.ObjectID, date time.Time) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Event{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: "A night of stand-up comedy.",
		Date:        date.UTC(),
		Location: models.EventLocation{
			Venue:   "The Cellar",
			Address: "1 Main Street",
			City:    "Paris",
			Country: "France",
		},
		OrganizerID:        organizerID,
		Status:             models.EventPublished,
		Requirements:       models.EventRequirements{Duration: 10},
		Applications:       []primitive.ObjectID{},
		Participants:       []primitive.ObjectID{},
		WithdrawnComedians: []primitive.ObjectID{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return e
}

// CreateApplication inserts an application with the given status and
// records it on the event. Stats are not touched; tests that need
// consistent counters should go through the lifecycle service.
func (f *Fixtures) CreateApplication(ctx context.Context, eventID, comedianID primitive.ObjectID, status string) models.Application {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Application{
		ID:         primitive.NewObjectID(),
		EventID:    eventID,
		ComedianID: comedianID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("applications").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test application: %v", err)
	}

	update := bson.M{"$addToSet": bson.M{"applications": a.ID}}
	if status == models.StatusAccepted {
		update["$addToSet"] = bson.M{"applications": a.ID, "participants": comedianID}
	}
	if _, err := f.db.Collection("events").UpdateByID(ctx, eventID, update); err != nil {
		f.t.Fatalf("failed to link application to event: %v", err)
	}
	return a
}

// AddParticipant puts comedianID in the event's participants directly.
func (f *Fixtures) AddParticipant(ctx context.Context, eventID, comedianID primitive.ObjectID) {
	f.t.Helper()
	update := bson.M{"$addToSet": bson.M{"participants": comedianID}}
	if _, err := f.db.Collection("events").UpdateByID(ctx, eventID, update); err != nil {
		f.t.Fatalf("failed to add participant: %v", err)
	}
}

// User reloads a user, failing the test when missing.
func (f *Fixtures) User(ctx context.Context, id primitive.ObjectID) models.User {
	f.t.Helper()
	var u models.User
	if err := f.db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		f.t.Fatalf("reload user %s: %v", id.Hex(), err)
	}
	return u
}

// Event reloads an event, failing the test when missing.
func (f *Fixtures) Event(ctx context.Context, id primitive.ObjectID) models.Event {
	f.t.Helper()
	var e models.Event
	if err := f.db.Collection("events").FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		f.t.Fatalf("reload event %s: %v", id.Hex(), err)
	}
	return e
}
