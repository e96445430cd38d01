package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/standupconnect/internal/app/system/indexes"
	"github.com/dalemusser/standupconnect/internal/app/system/validators"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultTestURI is used when STANDUP_TEST_MONGO_URI is unset.
const DefaultTestURI = "mongodb://localhost:27017"

// TestContext returns a context with a timeout suited to a single test step.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

// SetupTestDB connects to MongoDB and returns a fresh, uniquely named
// database that is dropped when the test ends. The test is skipped when no
// server is reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("STANDUP_TEST_MONGO_URI")
	if uri == "" {
		uri = DefaultTestURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		t.Skipf("mongo unavailable (%s): %v", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongo unavailable (%s): %v", uri, err)
	}

	name := fmt.Sprintf("standup_test_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	db := client.Database(name)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

// SetupSchemaDB is SetupTestDB plus validators and indexes, for tests that
// depend on unique constraints.
func SetupSchemaDB(t *testing.T) *mongo.Database {
	t.Helper()
	db := SetupTestDB(t)

	ctx, cancel := TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("validators.EnsureAll: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("indexes.EnsureAll: %v", err)
	}
	return db
}
