package appstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/standupconnect/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no application matches.
	ErrNotFound = errors.New("application not found")
	// ErrDuplicate is returned when the comedian already applied to the event.
	ErrDuplicate = errors.New("application already exists for this event and comedian")
	// ErrStale is returned when a conditional status update lost a race.
	ErrStale = errors.New("application status changed concurrently")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("applications")}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// Create inserts a PENDING application. The unique (event_id, comedian_id)
// index turns a concurrent second insert into ErrDuplicate.
func (s *Store) Create(ctx context.Context, a models.Application) (models.Application, error) {
	a.ID = primitive.NewObjectID()
	a.Status = models.StatusPending
	a.Reminders = models.ReminderFlags{}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Application{}, ErrDuplicate
		}
		return models.Application{}, err
	}
	return a, nil
}

// GetByID loads an application.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	var a models.Application
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// Exists reports whether comedianID has an application for eventID.
func (s *Store) Exists(ctx context.Context, eventID, comedianID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"event_id": eventID, "comedian_id": comedianID}, options.Count().SetLimit(1))
	return n > 0, err
}

// Filter narrows List.
type Filter struct {
	ComedianID *primitive.ObjectID
	EventIDs   []primitive.ObjectID // nil means any event; empty means none
	Status     string
}

func (f Filter) bson() bson.M {
	q := bson.M{}
	if f.ComedianID != nil {
		q["comedian_id"] = *f.ComedianID
	}
	if f.EventIDs != nil {
		q["event_id"] = bson.M{"$in": f.EventIDs}
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

// List returns matching applications, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Application, error) {
	if f.EventIDs != nil && len(f.EventIDs) == 0 {
		return []models.Application{}, nil
	}
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Application{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus moves an application from status `from` to `to` and returns
// the updated document. ErrStale is returned when the stored status is no
// longer `from`, so two concurrent transitions cannot both apply.
// A nil organizerMessage leaves the stored message alone; an empty one
// removes it.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, from, to string, organizerMessage *string) (*models.Application, error) {
	set := bson.M{"status": to, "updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}
	switch {
	case organizerMessage == nil:
	case *organizerMessage == "":
		update["$unset"] = bson.M{"organizer_message": ""}
	default:
		set["organizer_message"] = *organizerMessage
	}
	var after models.Application
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&after)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := s.c.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, cerr
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	return &after, nil
}

// Delete removes an application and returns what was removed.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	var a models.Application
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// DeleteByEvent removes every application for an event and returns them.
func (s *Store) DeleteByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Application, error) {
	apps, err := s.List(ctx, Filter{EventIDs: []primitive.ObjectID{eventID}})
	if err != nil {
		return nil, err
	}
	if _, err := s.c.DeleteMany(ctx, bson.M{"event_id": eventID}); err != nil {
		return nil, err
	}
	return apps, nil
}

// StatusCounts holds per-status application counts.
type StatusCounts struct {
	Pending  int64
	Accepted int64
	Rejected int64
}

// CountByStatus groups applications on the given events by status.
// nil eventIDs counts every application.
func (s *Store) CountByStatus(ctx context.Context, eventIDs []primitive.ObjectID) (StatusCounts, error) {
	match := bson.M{}
	if eventIDs != nil {
		if len(eventIDs) == 0 {
			return StatusCounts{}, nil
		}
		match["event_id"] = bson.M{"$in": eventIDs}
	}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return StatusCounts{}, err
	}
	defer cur.Close(ctx)

	var out StatusCounts
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return StatusCounts{}, err
		}
		switch row.Status {
		case models.StatusPending:
			out.Pending = row.N
		case models.StatusAccepted:
			out.Accepted = row.N
		case models.StatusRejected:
			out.Rejected = row.N
		}
	}
	return out, cur.Err()
}

// AcceptedForEvents returns ACCEPTED applications on the given events.
func (s *Store) AcceptedForEvents(ctx context.Context, eventIDs []primitive.ObjectID) ([]models.Application, error) {
	return s.List(ctx, Filter{EventIDs: eventIDs, Status: models.StatusAccepted})
}

// Reminder flag names, as stored under reminders.
const (
	ReminderJ3 = "j3_sent"
	ReminderJ1 = "j1_sent"
	ReminderH2 = "h2_sent"
)

// ClaimReminder sets a reminder flag if it is still unset and the
// application is still ACCEPTED. Only the caller that flips the flag gets
// claimed=true, so each reminder is sent at most once.
func (s *Store) ClaimReminder(ctx context.Context, id primitive.ObjectID, flag string) (claimed bool, err error) {
	path := "reminders." + flag
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusAccepted, path: bson.M{"$ne": true}},
		bson.M{"$set": bson.M{path: true}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseReminder clears a flag claimed by ClaimReminder, used when the
// send could not be queued.
func (s *Store) ReleaseReminder(ctx context.Context, id primitive.ObjectID, flag string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"reminders." + flag: false}})
	return err
}
