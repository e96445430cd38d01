package absencestore

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

// ErrNotFound is returned when no absence matches.
var ErrNotFound = errors.New("absence not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("absences")}
}

func key(eventID, comedianID primitive.ObjectID) bson.M {
	return bson.M{"event_id": eventID, "comedian_id": comedianID}
}

// Mark records a comedian as absent from an event. An existing absence
// has its reason and marked_at refreshed. created reports whether a new
// document was inserted; a lost insert race against the unique index is
// treated as an update.
func (s *Store) Mark(ctx context.Context, eventID, comedianID, organizerID primitive.ObjectID, reason string, at time.Time) (models.Absence, bool, error) {
	at = at.UTC()

	a, err := s.refresh(ctx, eventID, comedianID, organizerID, reason, at)
	if err == nil {
		return a, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.Absence{}, false, err
	}

	a = models.Absence{
		ID:          primitive.NewObjectID(),
		EventID:     eventID,
		ComedianID:  comedianID,
		OrganizerID: organizerID,
		Reason:      reason,
		MarkedAt:    at,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			a, err := s.refresh(ctx, eventID, comedianID, organizerID, reason, at)
			return a, false, err
		}
		return models.Absence{}, false, err
	}
	return a, true, nil
}

func (s *Store) refresh(ctx context.Context, eventID, comedianID, organizerID primitive.ObjectID, reason string, at time.Time) (models.Absence, error) {
	var a models.Absence
	err := s.c.FindOneAndUpdate(ctx, key(eventID, comedianID),
		bson.M{"$set": bson.M{
			"organizer_id": organizerID,
			"reason":       reason,
			"marked_at":    at,
			"updated_at":   at,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Absence{}, ErrNotFound
	}
	return a, err
}

// Get loads the absence for (eventID, comedianID).
func (s *Store) Get(ctx context.Context, eventID, comedianID primitive.ObjectID) (*models.Absence, error) {
	var a models.Absence
	if err := s.c.FindOne(ctx, key(eventID, comedianID)).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Exists reports whether the comedian is marked absent from the event.
func (s *Store) Exists(ctx context.Context, eventID, comedianID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, key(eventID, comedianID), options.Count().SetLimit(1))
	return n > 0, err
}

// Delete removes the absence and reports whether one existed.
func (s *Store) Delete(ctx context.Context, eventID, comedianID primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, key(eventID, comedianID))
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

// DeleteByEvent removes every absence recorded for an event and returns
// the affected comedians.
func (s *Store) DeleteByEvent(ctx context.Context, eventID primitive.ObjectID) ([]primitive.ObjectID, error) {
	list, err := s.ListForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if _, err := s.c.DeleteMany(ctx, bson.M{"event_id": eventID}); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ComedianID)
	}
	return ids, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Absence, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "marked_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Absence{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForEvent returns the absences for one event, most recent first.
func (s *Store) ListForEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Absence, error) {
	return s.find(ctx, bson.M{"event_id": eventID})
}

// ListForComedian returns a comedian's absences. A non-nil eventIDs
// restricts the result to those events.
func (s *Store) ListForComedian(ctx context.Context, comedianID primitive.ObjectID, eventIDs []primitive.ObjectID) ([]models.Absence, error) {
	q := bson.M{"comedian_id": comedianID}
	if eventIDs != nil {
		if len(eventIDs) == 0 {
			return []models.Absence{}, nil
		}
		q["event_id"] = bson.M{"$in": eventIDs}
	}
	return s.find(ctx, q)
}

// CountByComedian returns the number of absence documents per comedian.
func (s *Store) CountByComedian(ctx context.Context) (map[primitive.ObjectID]int, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$comedian_id", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[primitive.ObjectID]int{}
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int                `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}

// AbsentSet returns the comedians marked absent from an event.
func (s *Store) AbsentSet(ctx context.Context, eventID primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	list, err := s.ListForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]bool, len(list))
	for _, a := range list {
		out[a.ComedianID] = true
	}
	return out, nil
}
