// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventRegistered               = "registered"
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventSuperAdminBootstrapped   = "superadmin_bootstrapped"
)

// Admin event types
const (
	EventProfileUpdated       = "profile_updated"
	EventEventCreated         = "event_created"
	EventEventUpdated         = "event_updated"
	EventEventDeleted         = "event_deleted"
	EventApplicationCreated   = "application_created"
	EventApplicationStatus    = "application_status_changed"
	EventApplicationWithdrawn = "application_withdrawn"
	EventAbsenceMarked        = "absence_marked"
	EventAbsenceUnmarked      = "absence_unmarked"
	EventAbsencesSynced       = "absences_synced"
	EventCompletedEventsRun   = "completed_events_processed"
	EventParticipationsReset  = "participations_reset"
	EventRemindersRun         = "reminders_run"
)

// Event represents an audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"eventType"`

	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`   // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actorId,omitempty"` // who performed the action

	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	UserID    *primitive.ObjectID
	Category  string
	EventType string
	Since     *time.Time
	Until     *time.Time
	Limit     int64
	Skip      int64
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.UserID != nil {
		q["user_id"] = *f.UserID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.Since != nil || f.Until != nil {
		r := bson.M{}
		if f.Since != nil {
			r["$gte"] = *f.Since
		}
		if f.Until != nil {
			r["$lte"] = *f.Until
		}
		q["created_at"] = r
	}
	return q
}

// Store manages audit records. Indexes live in system/indexes.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_log")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns matching events, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Skip)

	cur, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of events matching filter.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}
