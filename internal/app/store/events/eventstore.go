package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no event matches (including ownership filters).
var ErrNotFound = errors.New("event not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// Create inserts an event. Status defaults to published; reference arrays
// start empty.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.ID = primitive.NewObjectID()
	if e.Status == "" {
		e.Status = models.EventPublished
	}
	e.Applications = []primitive.ObjectID{}
	e.Participants = []primitive.ObjectID{}
	e.WithdrawnComedians = []primitive.ObjectID{}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// GetByID loads an event.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// GetOwned loads an event only when organizerID owns it.
func (s *Store) GetOwned(ctx context.Context, id, organizerID primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "organizer_id": organizerID}).Decode(&e); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// List returns events matching filter sorted by date ascending.
func (s *Store) List(ctx context.Context, filter bson.M) ([]models.Event, error) {
	if filter == nil {
		filter = bson.M{}
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Event{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Filter helpers used by list endpoints.

// ByOrganizer matches events owned by organizerID.
func ByOrganizer(organizerID primitive.ObjectID) bson.M {
	return bson.M{"organizer_id": organizerID}
}

// ByStatus matches events in any of the given statuses.
func ByStatus(statuses ...string) bson.M {
	return bson.M{"status": bson.M{"$in": statuses}}
}

// IDsByOrganizer returns the ids of every event organizerID owns.
func (s *Store) IDsByOrganizer(ctx context.Context, organizerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, ByOrganizer(organizerID), options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	ids := []primitive.ObjectID{}
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// Update applies set to an event owned by organizerID and returns the result.
func (s *Store) Update(ctx context.Context, id, organizerID primitive.ObjectID, set bson.M) (*models.Event, error) {
	set["updated_at"] = time.Now().UTC()
	var e models.Event
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "organizer_id": organizerID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// Delete removes an event owned by organizerID.
func (s *Store) Delete(ctx context.Context, id, organizerID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "organizer_id": organizerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	update["$set"] = bson.M{"updated_at": time.Now().UTC()}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddApplication records an application id on the event.
func (s *Store) AddApplication(ctx context.Context, id, appID primitive.ObjectID) error {
	return s.update(ctx, id, bson.M{"$addToSet": bson.M{"applications": appID}})
}

// AddParticipant adds an accepted comedian. Adding twice is a no-op.
func (s *Store) AddParticipant(ctx context.Context, id, comedianID primitive.ObjectID) error {
	return s.update(ctx, id, bson.M{"$addToSet": bson.M{"participants": comedianID}})
}

// RemoveParticipant removes a comedian from the participants list.
func (s *Store) RemoveParticipant(ctx context.Context, id, comedianID primitive.ObjectID) error {
	return s.update(ctx, id, bson.M{"$pull": bson.M{"participants": comedianID}})
}

// Withdraw removes a comedian's application and participation and records
// the comedian in withdrawn_comedians, all in one update.
func (s *Store) Withdraw(ctx context.Context, id, comedianID, appID primitive.ObjectID) error {
	return s.update(ctx, id, bson.M{
		"$pull":     bson.M{"participants": comedianID, "applications": appID},
		"$addToSet": bson.M{"withdrawn_comedians": comedianID},
	})
}

// SetModified sets or clears the modified_by_organizer flag.
func (s *Store) SetModified(ctx context.Context, id primitive.ObjectID, modified bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"modified_by_organizer": modified,
		"updated_at":            time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Past returns events dated before now whose status is published or
// completed, oldest first.
func (s *Store) Past(ctx context.Context, now time.Time) ([]models.Event, error) {
	return s.List(ctx, bson.M{
		"date":   bson.M{"$lt": now},
		"status": bson.M{"$in": bson.A{models.EventPublished, models.EventCompleted}},
	})
}

// PublishedBetween returns published events dated in [from, to).
func (s *Store) PublishedBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	return s.List(ctx, bson.M{
		"date":   bson.M{"$gte": from, "$lt": to},
		"status": models.EventPublished,
	})
}

// Counts summarises a set of events relative to now.
type Counts struct {
	Total              int64
	UpcomingIncomplete int64
	Completed          int64
}

// CountSummary counts events matching scope. Upcoming means dated at or
// after now and still draft or published; completed means dated before now
// or explicitly completed.
func (s *Store) CountSummary(ctx context.Context, scope bson.M, now time.Time) (Counts, error) {
	if scope == nil {
		scope = bson.M{}
	}
	var out Counts
	var err error

	if out.Total, err = s.c.CountDocuments(ctx, scope); err != nil {
		return Counts{}, err
	}
	upcoming := bson.M{"$and": bson.A{scope, bson.M{
		"date":   bson.M{"$gte": now},
		"status": bson.M{"$in": bson.A{models.EventDraft, models.EventPublished}},
	}}}
	if out.UpcomingIncomplete, err = s.c.CountDocuments(ctx, upcoming); err != nil {
		return Counts{}, err
	}
	completed := bson.M{"$and": bson.A{scope, bson.M{"$or": bson.A{
		bson.M{"date": bson.M{"$lt": now}},
		bson.M{"status": models.EventCompleted},
	}}}}
	if out.Completed, err = s.c.CountDocuments(ctx, completed); err != nil {
		return Counts{}, err
	}
	return out, nil
}

// ByIDs loads the given events keyed by id. Missing events are omitted.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Event, error) {
	out := make(map[primitive.ObjectID]models.Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	events, err := s.List(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		out[e.ID] = e
	}
	return out, nil
}
