// internal/app/features/shared/views/views.go
//
// Package views builds the populated JSON forms of events and applications:
// user references are replaced by public summaries and applications carry
// their event.
package views

import (
	"context"

	eventstore "github.com/dalemusser/standupconnect/internal/app/store/events"
	userstore "github.com/dalemusser/standupconnect/internal/app/store/users"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Event is an event with its organizer and participants resolved.
type Event struct {
	models.Event
	Organizer          *models.UserSummary  `json:"organizer,omitempty"`
	ParticipantDetails []models.UserSummary `json:"participantDetails"`
}

// Application is an application with its event and comedian resolved.
type Application struct {
	models.Application
	Event    *Event              `json:"event,omitempty"`
	Comedian *models.UserSummary `json:"comedian,omitempty"`
}

// Builder resolves references against the users and events collections.
type Builder struct {
	users  *userstore.Store
	events *eventstore.Store
}

func NewBuilder(db *mongo.Database) *Builder {
	return &Builder{users: userstore.New(db), events: eventstore.New(db)}
}

type idSet map[primitive.ObjectID]struct{}

func (s idSet) add(ids ...primitive.ObjectID) {
	for _, id := range ids {
		if !id.IsZero() {
			s[id] = struct{}{}
		}
	}
}

func (s idSet) list() []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

func eventView(e models.Event, people map[primitive.ObjectID]models.UserSummary) Event {
	v := Event{Event: e, ParticipantDetails: []models.UserSummary{}}
	if o, ok := people[e.OrganizerID]; ok {
		v.Organizer = &o
	}
	for _, id := range e.Participants {
		if p, ok := people[id]; ok {
			v.ParticipantDetails = append(v.ParticipantDetails, p)
		}
	}
	return v
}

// Events populates a list of events, preserving order.
func (b *Builder) Events(ctx context.Context, events []models.Event) ([]Event, error) {
	ids := idSet{}
	for _, e := range events {
		ids.add(e.OrganizerID)
		ids.add(e.Participants...)
	}
	people, err := b.users.Summaries(ctx, ids.list())
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		out = append(out, eventView(e, people))
	}
	return out, nil
}

// OneEvent populates a single event.
func (b *Builder) OneEvent(ctx context.Context, e models.Event) (Event, error) {
	out, err := b.Events(ctx, []models.Event{e})
	if err != nil {
		return Event{}, err
	}
	return out[0], nil
}

// Applications populates applications with their events and comedians.
// An application whose event was deleted keeps a nil Event.
func (b *Builder) Applications(ctx context.Context, apps []models.Application) ([]Application, error) {
	eventIDs := idSet{}
	for _, a := range apps {
		eventIDs.add(a.EventID)
	}
	events, err := b.events.ByIDs(ctx, eventIDs.list())
	if err != nil {
		return nil, err
	}

	ids := idSet{}
	for _, a := range apps {
		ids.add(a.ComedianID)
	}
	for _, e := range events {
		ids.add(e.OrganizerID)
		ids.add(e.Participants...)
	}
	people, err := b.users.Summaries(ctx, ids.list())
	if err != nil {
		return nil, err
	}

	out := make([]Application, 0, len(apps))
	for _, a := range apps {
		v := Application{Application: a}
		if e, ok := events[a.EventID]; ok {
			ev := eventView(e, people)
			v.Event = &ev
		}
		if c, ok := people[a.ComedianID]; ok {
			v.Comedian = &c
		}
		out = append(out, v)
	}
	return out, nil
}

// OneApplication populates a single application.
func (b *Builder) OneApplication(ctx context.Context, a models.Application) (Application, error) {
	out, err := b.Applications(ctx, []models.Application{a})
	if err != nil {
		return Application{}, err
	}
	return out[0], nil
}
