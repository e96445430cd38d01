package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/standupconnect/internal/app/store/audit"
	"github.com/dalemusser/standupconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	before := time.Now().Add(-time.Second)
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if events[0].CreatedAt.Before(before) {
		t.Errorf("CreatedAt %v is before %v", events[0].CreatedAt, before)
	}
}

func TestStore_QueryFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	records := []audit.Event{
		{CreatedAt: base, Category: audit.CategoryAuth, EventType: audit.EventRegistered, Success: true},
		{CreatedAt: base.Add(time.Minute), Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword},
		{CreatedAt: base.Add(2 * time.Minute), Category: audit.CategoryAdmin, EventType: audit.EventApplicationStatus, Success: true},
		{CreatedAt: base.Add(3 * time.Minute), Category: audit.CategoryAdmin, EventType: audit.EventAbsenceMarked, Success: true},
	}
	for _, r := range records {
		if err := store.Log(ctx, r); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"all", audit.QueryFilter{}, 4},
		{"category", audit.QueryFilter{Category: audit.CategoryAdmin}, 2},
		{"event type", audit.QueryFilter{EventType: audit.EventAbsenceMarked}, 1},
		{"limit", audit.QueryFilter{Limit: 3}, 3},
		{"skip", audit.QueryFilter{Skip: 3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}

	all, _ := store.Query(ctx, audit.QueryFilter{})
	if all[0].EventType != audit.EventAbsenceMarked {
		t.Errorf("newest first: got %q, want %q", all[0].EventType, audit.EventAbsenceMarked)
	}

	n, err := store.Count(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Count: got %d, want 2", n)
	}
}
