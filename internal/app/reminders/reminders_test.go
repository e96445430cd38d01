package reminders_test

import (
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/standupconnect/internal/app/reminders"
	"github.com/dalemusser/standupconnect/internal/app/system/mailer"
	"github.com/dalemusser/standupconnect/internal/app/system/timezones"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/dalemusser/standupconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestWindow(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Minute, ""},
		{0, ""},
		{time.Minute, mailer.ReminderH2},
		{2 * time.Hour, mailer.ReminderH2},
		{2*time.Hour + time.Minute, mailer.ReminderJ1},
		{24 * time.Hour, mailer.ReminderJ1},
		{25 * time.Hour, ""},
		{48 * time.Hour, ""},
		{48*time.Hour + time.Minute, mailer.ReminderJ3},
		{72 * time.Hour, mailer.ReminderJ3},
		{72*time.Hour + time.Minute, ""},
	}
	for _, tt := range tests {
		if got := reminders.Window(now.Add(tt.in), now); got != tt.want {
			t.Errorf("Window(now+%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Email
	full bool
}

func (o *outbox) Enqueue(kind string, e mailer.Email) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.full {
		return false
	}
	o.sent = append(o.sent, e)
	return true
}

type counter map[string]int

func (c counter) Reminder(w string) { c[w]++ }

func TestRun_SendsEachReminderOnce(t *testing.T) {
	db := testutil.SetupSchemaDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC().Truncate(time.Second)
	org := fx.CreateOrganizer(ctx, "Olga", "olga@example.com")
	amy := fx.CreateComedian(ctx, "Amy", "amy@example.com")
	bob := fx.CreateComedian(ctx, "Bob", "bob@example.com")

	j3 := fx.CreateEvent(ctx, "In Three Days", org.ID, now.Add(60*time.Hour))
	j1 := fx.CreateEvent(ctx, "Tomorrow", org.ID, now.Add(12*time.Hour))
	h2 := fx.CreateEvent(ctx, "Tonight", org.ID, now.Add(time.Hour))
	gap := fx.CreateEvent(ctx, "Between Windows", org.ID, now.Add(36*time.Hour))

	for _, ev := range []models.Event{j3, j1, h2, gap} {
		fx.CreateApplication(ctx, ev.ID, amy.ID, models.StatusAccepted)
	}
	fx.CreateApplication(ctx, h2.ID, bob.ID, models.StatusPending)

	mail := &outbox{}
	seen := counter{}
	r := reminders.New(db, reminders.Options{Mail: mail, Metrics: seen, FrontendURL: "https://app.example.com"}, zap.NewNop())

	res, err := r.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.J3 != 1 || res.J1 != 1 || res.H2 != 1 {
		t.Errorf("result: %+v, want one of each", res)
	}
	if len(mail.sent) != 3 {
		t.Fatalf("sent %d emails, want 3", len(mail.sent))
	}
	for _, e := range mail.sent {
		if e.To != "amy@example.com" {
			t.Errorf("reminder sent to %q", e.To)
		}
	}
	if seen["j3"] != 1 || seen["j1"] != 1 || seen["h2"] != 1 {
		t.Errorf("metrics: %v", seen)
	}

	again, err := r.Run(ctx, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.J3+again.J1+again.H2 != 0 {
		t.Errorf("second run sent again: %+v", again)
	}

	// A day later the J-3 event enters the J-1 window.
	later, err := r.Run(ctx, now.Add(40*time.Hour))
	if err != nil {
		t.Fatalf("later Run: %v", err)
	}
	if later.J1 != 1 {
		t.Errorf("later run: %+v, want one J-1", later)
	}
}

func TestRun_ReleasesFlagWhenQueueIsFull(t *testing.T) {
	db := testutil.SetupSchemaDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	org := fx.CreateOrganizer(ctx, "Olga", "olga@example.com")
	amy := fx.CreateComedian(ctx, "Amy", "amy@example.com")
	ev := fx.CreateEvent(ctx, "Tonight", org.ID, now.Add(time.Hour))
	app := fx.CreateApplication(ctx, ev.ID, amy.ID, models.StatusAccepted)

	mail := &outbox{full: true}
	r := reminders.New(db, reminders.Options{Mail: mail}, zap.NewNop())
	res, err := r.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.H2 != 0 || res.Skipped != 1 {
		t.Errorf("result: %+v, want one skipped", res)
	}

	var got models.Application
	if err := db.Collection("applications").FindOne(ctx, bson.M{"_id": app.ID}).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Reminders.H2Sent {
		t.Error("flag should be released when the email could not be queued")
	}

	mail.full = false
	if res, _ := r.Run(ctx, now); res.H2 != 1 {
		t.Errorf("retry: %+v, want one H2", res)
	}
}

func TestStart_AppliesStartTimeInZone(t *testing.T) {
	paris, err := timezones.Location("Europe/Paris")
	if err != nil {
		t.Fatal(err)
	}
	ev := models.Event{Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), StartTime: "20:00"}
	// Paris is UTC+1 in January.
	if got, want := reminders.Start(ev, paris), time.Date(2026, 1, 10, 19, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Start = %v, want %v", got.UTC(), want)
	}
	ev.StartTime = ""
	if got := reminders.Start(ev, paris); !got.Equal(ev.Date) {
		t.Errorf("Start without start_time = %v, want %v", got, ev.Date)
	}
}
