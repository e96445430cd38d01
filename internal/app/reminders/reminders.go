// Package reminders sends the pre-show emails to accepted comedians:
// three days before, the day before and two hours before the start.
package reminders

import (
	"context"
	"strings"
	"time"

	appstore "github.com/dalemusser/standupconnect/internal/app/store/applications"
	eventstore "github.com/dalemusser/standupconnect/internal/app/store/events"
	userstore "github.com/dalemusser/standupconnect/internal/app/store/users"
	"github.com/dalemusser/standupconnect/internal/app/system/mailer"
	"github.com/dalemusser/standupconnect/internal/app/system/timezones"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Notifier queues outgoing mail. *mailer.Async satisfies it.
type Notifier interface {
	Enqueue(kind string, e mailer.Email) bool
}

// Recorder counts sent reminders. *metrics.Metrics satisfies it.
type Recorder interface {
	Reminder(window string)
}

type window struct {
	name   string // mailer.ReminderJ3 ...
	flag   string // appstore.ReminderJ3 ...
	metric string
	from   time.Duration // exclusive lower bound on start-now
	to     time.Duration // inclusive upper bound
}

const day = 24 * time.Hour

var windows = []window{
	{mailer.ReminderJ3, appstore.ReminderJ3, "j3", 2 * day, 3 * day},
	{mailer.ReminderJ1, appstore.ReminderJ1, "j1", 2 * time.Hour, day},
	{mailer.ReminderH2, appstore.ReminderH2, "h2", 0, 2 * time.Hour},
}

// Window returns the reminder due for a show starting at start, or ""
// when start falls in none of the windows.
func Window(start, now time.Time) string {
	if w, ok := windowFor(start, now); ok {
		return w.name
	}
	return ""
}

func windowFor(start, now time.Time) (window, bool) {
	until := start.Sub(now)
	for _, w := range windows {
		if until > w.from && until <= w.to {
			return w, true
		}
	}
	return window{}, false
}

func flagSet(f models.ReminderFlags, flag string) bool {
	switch flag {
	case appstore.ReminderJ3:
		return f.J3Sent
	case appstore.ReminderJ1:
		return f.J1Sent
	case appstore.ReminderH2:
		return f.H2Sent
	}
	return false
}

// Options configures a Runner.
type Options struct {
	Mail        Notifier
	Metrics     Recorder
	Location    *time.Location // zone of event start_time values
	FrontendURL string
}

// Runner scans upcoming events and sends due reminders.
type Runner struct {
	events *eventstore.Store
	apps   *appstore.Store
	users  *userstore.Store
	opts   Options
	log    *zap.Logger
}

func New(db *mongo.Database, opts Options, logger *zap.Logger) *Runner {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Runner{
		events: eventstore.New(db),
		apps:   appstore.New(db),
		users:  userstore.New(db),
		opts:   opts,
		log:    logger,
	}
}

// Result counts what one Run did.
type Result struct {
	RunID   string `json:"runId"`
	Events  int    `json:"eventsScanned"`
	J3      int    `json:"j3"`
	J1      int    `json:"j1"`
	H2      int    `json:"h2"`
	Skipped int    `json:"skipped"`
}

func (r *Result) count(name string) {
	switch name {
	case mailer.ReminderJ3:
		r.J3++
	case mailer.ReminderJ1:
		r.J1++
	case mailer.ReminderH2:
		r.H2++
	}
}

// Start is when the show begins: the event date with its start_time
// applied in loc, if it has one.
func Start(e models.Event, loc *time.Location) time.Time {
	t, _ := timezones.At(e.Date, e.StartTime, loc)
	return t
}

// Run sends every reminder that is due at now and not yet sent. A
// reminder is sent only after its flag has been claimed, so overlapping
// runs never send the same reminder twice.
func (r *Runner) Run(ctx context.Context, now time.Time) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := r.log.With(zap.String("run_id", res.RunID))

	// Dates may precede the start_time-adjusted start by up to a day in
	// either direction, so scan wider than the windows.
	events, err := r.events.PublishedBetween(ctx, now.Add(-2*day), now.Add(4*day))
	if err != nil {
		return res, err
	}
	res.Events = len(events)

	due := map[primitive.ObjectID]window{}
	byID := map[primitive.ObjectID]models.Event{}
	ids := []primitive.ObjectID{}
	for _, e := range events {
		if w, ok := windowFor(Start(e, r.opts.Location), now); ok {
			due[e.ID] = w
			byID[e.ID] = e
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return res, nil
	}

	apps, err := r.apps.AcceptedForEvents(ctx, ids)
	if err != nil {
		return res, err
	}
	comedianIDs := make([]primitive.ObjectID, 0, len(apps))
	for _, a := range apps {
		comedianIDs = append(comedianIDs, a.ComedianID)
	}
	comedians, err := r.users.Summaries(ctx, comedianIDs)
	if err != nil {
		return res, err
	}

	for _, a := range apps {
		w := due[a.EventID]
		if flagSet(a.Reminders, w.flag) {
			continue
		}
		c, ok := comedians[a.ComedianID]
		if !ok || c.Email == "" {
			res.Skipped++
			continue
		}
		claimed, err := r.apps.ClaimReminder(ctx, a.ID, w.flag)
		if err != nil {
			return res, err
		}
		if !claimed {
			continue
		}

		email := mailer.BuildReminderEmail(c.Email, mailer.ReminderData{
			ComedianName:    strings.TrimSpace(c.FirstName + " " + c.LastName),
			Window:          w.name,
			Event:           mailer.EventSummary(byID[a.EventID]),
			ApplicationsURL: strings.TrimRight(r.opts.FrontendURL, "/") + "/applications",
		})
		if r.opts.Mail == nil || !r.opts.Mail.Enqueue(mailer.KindReminder, email) {
			if err := r.apps.ReleaseReminder(ctx, a.ID, w.flag); err != nil {
				log.Warn("release reminder flag failed", zap.String("application_id", a.ID.Hex()), zap.Error(err))
			}
			res.Skipped++
			continue
		}
		res.count(w.name)
		if r.opts.Metrics != nil {
			r.opts.Metrics.Reminder(w.metric)
		}
	}

	log.Info("reminders run",
		zap.Int("events", res.Events),
		zap.Int("j3", res.J3),
		zap.Int("j1", res.J1),
		zap.Int("h2", res.H2),
		zap.Int("skipped", res.Skipped))
	return res, nil
}
