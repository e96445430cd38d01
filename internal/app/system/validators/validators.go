// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/standupconnect/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and attaches JSON-Schema
// validators. Servers that don't support collMod/validators are logged
// and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("events", eventsSchema())
	ensure("applications", applicationsSchema())
	ensure("absences", absencesSchema())
	ensure("audit_log", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enumOf(vals ...string) bson.A {
	out := bson.A{}
	for _, v := range vals {
		out = append(out, v)
	}
	return out
}

func usersSchema() bson.M {
	counter := bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0}
	objectIDs := bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "password_hash", "first_name", "last_name", "role"},
			"properties": bson.M{
				"email":         nonBlank,
				"email_ci":      bson.M{"bsonType": "string"},
				"password_hash": nonBlank,
				"first_name":    nonBlank,
				"last_name":     nonBlank,
				"role":          bson.M{"enum": enumOf(models.Roles...)},
				"stats": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"total_events":          counter,
						"applications_sent":     counter,
						"applications_accepted": counter,
						"applications_rejected": counter,
						"applications_pending":  counter,
						"absences":              counter,
						"processed_events": objectIDs,
						"absent_events":    objectIDs,
					},
				},
				"organizer_profile": bson.M{
					"bsonType": bson.A{"object", "null"},
					"properties": bson.M{
						"event_frequency": bson.M{"enum": enumOf(append(models.EventFrequencies, "")...)},
					},
				},
			},
		},
	}
}

func eventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "description", "date", "organizer_id", "status", "location"},
			"properties": bson.M{
				"title":        nonBlank,
				"description":  nonBlank,
				"date":         bson.M{"bsonType": "date"},
				"organizer_id": bson.M{"bsonType": "objectId"},
				"status":       bson.M{"enum": enumOf(models.EventStatuses...)},
				"location": bson.M{
					"bsonType": "object",
					"required": bson.A{"address", "city", "country"},
					"properties": bson.M{
						"address": nonBlank,
						"city":    nonBlank,
						"country": nonBlank,
					},
				},
				"requirements": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"min_experience": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
						"max_performers": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
						"duration":       bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
					},
				},
				"participants":        bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"applications":        bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"withdrawn_comedians": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
			},
		},
	}
}

func applicationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"event_id", "comedian_id", "status"},
			"properties": bson.M{
				"event_id":    bson.M{"bsonType": "objectId"},
				"comedian_id": bson.M{"bsonType": "objectId"},
				"status":      bson.M{"enum": enumOf(models.ApplicationStatuses...)},
				"reminders": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"j3_sent": bson.M{"bsonType": "bool"},
						"j1_sent": bson.M{"bsonType": "bool"},
						"h2_sent": bson.M{"bsonType": "bool"},
					},
				},
			},
		},
	}
}

func absencesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"event_id", "comedian_id", "organizer_id", "marked_at"},
			"properties": bson.M{
				"event_id":     bson.M{"bsonType": "objectId"},
				"comedian_id":  bson.M{"bsonType": "objectId"},
				"organizer_id": bson.M{"bsonType": "objectId"},
				"reason":       bson.M{"bsonType": "string", "maxLength": 500},
				"marked_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}
