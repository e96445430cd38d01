package userstore

import (
	"context"
	"time"

	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ApplyStatsDelta adds d to the user's counters in one pipeline update.
// Each counter is clamped at zero, so a decrement on an already-zero
// counter leaves it at zero.
func (s *Store) ApplyStatsDelta(ctx context.Context, id primitive.ObjectID, d models.StatsDelta) error {
	if d.IsZero() {
		return nil
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	for path, n := range d.Fields() {
		set[path] = bson.M{"$max": bson.A{
			0,
			bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$" + path, 0}}, n}},
		}}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, mongo.Pipeline{{{Key: "$set", Value: set}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyEventDelta applies d like ApplyStatsDelta, except that a non-zero
// d.TotalEvents is tied to the per-event markers for eventID.
//
// processed_events lists events counted in total_events; absent_events lists
// events reconciled as absences, which never count. A positive value adds
// the processed marker and counts the event unless either marker is already
// present. A negative value clears both markers and uncounts only when the
// processed marker was present. Repeating either direction is a no-op for
// total_events.
func (s *Store) ApplyEventDelta(ctx context.Context, id, eventID primitive.ObjectID, d models.StatsDelta) error {
	if d.TotalEvents == 0 {
		return s.ApplyStatsDelta(ctx, id, d)
	}

	processed := bson.M{"$ifNull": bson.A{"$stats.processed_events", bson.A{}}}
	absent := bson.M{"$ifNull": bson.A{"$stats.absent_events", bson.A{}}}
	counted := bson.M{"$in": bson.A{eventID, processed}}
	seenAbsent := bson.M{"$in": bson.A{eventID, absent}}
	current := bson.M{"$ifNull": bson.A{"$stats.total_events", 0}}

	set := bson.M{"updated_at": time.Now().UTC()}
	rest := d
	rest.TotalEvents = 0
	for path, n := range rest.Fields() {
		set[path] = bson.M{"$max": bson.A{
			0,
			bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$" + path, 0}}, n}},
		}}
	}
	if d.TotalEvents > 0 {
		skip := bson.M{"$or": bson.A{counted, seenAbsent}}
		set["stats.total_events"] = bson.M{"$cond": bson.A{skip, current, bson.M{"$add": bson.A{current, 1}}}}
		set["stats.processed_events"] = bson.M{"$cond": bson.A{
			seenAbsent, processed, bson.M{"$setUnion": bson.A{processed, bson.A{eventID}}},
		}}
	} else {
		set["stats.total_events"] = bson.M{"$cond": bson.A{counted, bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{current, -1}}}}, current}}
		set["stats.processed_events"] = bson.M{"$setDifference": bson.A{processed, bson.A{eventID}}}
		set["stats.absent_events"] = bson.M{"$setDifference": bson.A{absent, bson.A{eventID}}}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, mongo.Pipeline{{{Key: "$set", Value: set}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreditParticipation records that a comedian's participation in eventID
// has been reconciled. An attended event goes to processed_events and
// increments total_events; an absent one goes to absent_events only. The
// filter excludes comedians already carrying either marker, so a second
// call is a no-op; credited reports whether this call did the work.
func (s *Store) CreditParticipation(ctx context.Context, comedianID, eventID primitive.ObjectID, attended bool) (credited bool, err error) {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if attended {
		update["$addToSet"] = bson.M{"stats.processed_events": eventID}
		update["$inc"] = bson.M{"stats.total_events": 1}
	} else {
		update["$addToSet"] = bson.M{"stats.absent_events": eventID}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{
		"_id":                    comedianID,
		"role":                   models.RoleComedian,
		"stats.processed_events": bson.M{"$ne": eventID},
		"stats.absent_events":    bson.M{"$ne": eventID},
	}, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ResetParticipations zeroes total_events and clears both event markers for
// every comedian. Returns the number of comedians touched.
func (s *Store) ResetParticipations(ctx context.Context) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{"role": models.RoleComedian}, bson.M{"$set": bson.M{
		"stats.total_events":     0,
		"stats.processed_events": bson.A{},
		"stats.absent_events":    bson.A{},
		"updated_at":             time.Now().UTC(),
	}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// SetAbsenceCounts overwrites stats.absences for every comedian: counts[id]
// when present, zero otherwise. Returns the number of comedians whose value changed.
func (s *Store) SetAbsenceCounts(ctx context.Context, counts map[primitive.ObjectID]int) (int64, error) {
	now := time.Now().UTC()
	writes := []mongo.WriteModel{}
	ids := make([]primitive.ObjectID, 0, len(counts))
	for id, n := range counts {
		ids = append(ids, id)
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id, "role": models.RoleComedian, "stats.absences": bson.M{"$ne": n}}).
			SetUpdate(bson.M{"$set": bson.M{"stats.absences": n, "updated_at": now}}))
	}
	writes = append(writes, mongo.NewUpdateManyModel().
		SetFilter(bson.M{
			"_id":            bson.M{"$nin": ids},
			"role":           models.RoleComedian,
			"stats.absences": bson.M{"$ne": 0},
		}).
		SetUpdate(bson.M{"$set": bson.M{"stats.absences": 0, "updated_at": now}}))

	res, err := s.c.BulkWrite(ctx, writes)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
