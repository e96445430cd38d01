// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each collection's index set is reconciled
idempotently; problems are aggregated so startup can fail with all of them.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, set := range indexSets() {
		if err := ensureIndexSet(ctx, db.Collection(set.collection), set.models); err != nil {
			problems = append(problems, set.collection+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

func indexSets() []collectionIndexes {
	return []collectionIndexes{
		{"users", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
			},
			{
				Keys:    bson.D{{Key: "email_ci", Value: 1}},
				Options: options.Index().SetName("idx_users_emailci"),
			},
			// GET /api/auth/users and comedian fan-out for new events
			{
				Keys:    bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_users_role_created"),
			},
		}},
		{"events", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "date", Value: 1}},
				Options: options.Index().SetName("idx_events_date"),
			},
			{
				Keys:    bson.D{{Key: "organizer_id", Value: 1}, {Key: "date", Value: 1}},
				Options: options.Index().SetName("idx_events_organizer_date"),
			},
			// reconciliation and reminders scan by status within a date range
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "date", Value: 1}},
				Options: options.Index().SetName("idx_events_status_date"),
			},
		}},
		{"applications", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "comedian_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_applications_event_comedian"),
			},
			{
				Keys:    bson.D{{Key: "comedian_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_applications_comedian_created"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "event_id", Value: 1}},
				Options: options.Index().SetName("idx_applications_status_event"),
			},
		}},
		{"absences", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "comedian_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_absences_event_comedian"),
			},
			{
				Keys:    bson.D{{Key: "comedian_id", Value: 1}, {Key: "marked_at", Value: -1}},
				Options: options.Index().SetName("idx_absences_comedian_marked"),
			},
		}},
		{"audit_log", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_audit_created"),
			},
			{
				Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_audit_category_type_created"),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_audit_user_created"),
			},
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isTrue(b *bool) bool { return b != nil && *b }

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listBySig(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureIndexSet makes each desired index exist with the desired name and
// uniqueness. An index with matching keys but a different name or unique
// flag is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listBySig(ctx, coll)
	if err != nil {
		// A missing collection lists no indexes; CreateOne will create it.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name := ""
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isTrue(unique)))

		if ex, ok := existing[sig]; ok {
			if isTrue(ex.Unique) == isTrue(unique) && (name == "" || ex.Name == name) {
				log.Info("reusing existing index", zap.Duration("took", time.Since(start)))
				continue
			}
			log.Info("replacing index with mismatched name or options", zap.String("existing", ex.Name))
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			if isDuplicateKeyErr(err) && isTrue(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present on %s)", coll.Name(), name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
