package lifecycle

import (
	"context"
	"errors"

	eventstore "github.com/dalemusser/standupconnect/internal/app/store/events"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func translateEventErr(err error) error {
	if errors.Is(err, eventstore.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}

// CreateEvent publishes a new event for organizerID, counts it on the
// organizer and announces it to every comedian in the background.
func (s *Service) CreateEvent(ctx context.Context, organizerID primitive.ObjectID, e models.Event) (models.Event, error) {
	e.OrganizerID = organizerID
	var created models.Event
	err := s.run(ctx, func(ctx context.Context) error {
		ev, err := s.events.Create(ctx, e)
		if err != nil {
			return err
		}
		created = ev
		return s.users.ApplyStatsDelta(ctx, organizerID, models.StatsDelta{TotalEvents: 1})
	})
	if err != nil {
		return models.Event{}, err
	}
	s.background(func(ctx context.Context) { s.notifyNewEvent(ctx, created) })
	return created, nil
}

// UpdateEvent applies set to an event owned by organizerID. When the event
// already has applications it is flagged modified_by_organizer and every
// applicant is emailed keep/withdraw links.
func (s *Service) UpdateEvent(ctx context.Context, organizerID, eventID primitive.ObjectID, set bson.M) (*models.Event, error) {
	current, err := s.events.GetOwned(ctx, eventID, organizerID)
	if err != nil {
		return nil, translateEventErr(err)
	}
	if len(current.Applications) > 0 {
		set["modified_by_organizer"] = true
	}
	updated, err := s.events.Update(ctx, eventID, organizerID, set)
	if err != nil {
		return nil, translateEventErr(err)
	}
	if updated.ModifiedByOrganizer && len(updated.Applications) > 0 {
		ev := *updated
		s.background(func(ctx context.Context) { s.notifyEventUpdated(ctx, ev) })
	}
	return updated, nil
}

// DeleteResult summarizes what DeleteEvent removed.
type DeleteResult struct {
	Applications int
	Absences     int
}

// DeleteEvent removes an event owned by organizerID together with its
// applications and absences. Comedian counters are reversed for every
// removed application and absence, and the organizer's event count drops.
func (s *Service) DeleteEvent(ctx context.Context, organizerID, eventID primitive.ObjectID) (DeleteResult, error) {
	if _, err := s.events.GetOwned(ctx, eventID, organizerID); err != nil {
		return DeleteResult{}, translateEventErr(err)
	}

	var res DeleteResult
	err := s.run(ctx, func(ctx context.Context) error {
		res = DeleteResult{}
		if err := s.events.Delete(ctx, eventID, organizerID); err != nil {
			return err
		}
		apps, err := s.apps.DeleteByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		for _, a := range apps {
			if err := s.applyDelta(ctx, a.ComedianID, eventID, Transition(a.Status, "")); err != nil {
				return err
			}
		}
		absent, err := s.absences.DeleteByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		for _, id := range absent {
			if err := s.applyDelta(ctx, id, eventID, models.StatsDelta{Absences: -1}); err != nil {
				return err
			}
		}
		res = DeleteResult{Applications: len(apps), Absences: len(absent)}
		return s.users.ApplyStatsDelta(ctx, organizerID, models.StatsDelta{TotalEvents: -1})
	})
	if err != nil {
		return DeleteResult{}, translateEventErr(err)
	}
	s.log.Info("event deleted",
		zap.String("event_id", eventID.Hex()),
		zap.Int("applications", res.Applications),
		zap.Int("absences", res.Absences))
	return res, nil
}
