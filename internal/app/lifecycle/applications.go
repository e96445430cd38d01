package lifecycle

import (
	"context"
	"errors"
	"net/url"
	"strings"

	appstore "github.com/dalemusser/standupconnect/internal/app/store/applications"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ApplyInput is the comedian-supplied part of a new application.
type ApplyInput struct {
	PerformanceDetails *models.PerformanceDetails
	Message            string
}

// Apply creates a PENDING application from comedianID to eventID, links it
// to the event and counts it as sent and pending. The event organizer is
// notified in the background.
func (s *Service) Apply(ctx context.Context, comedianID, eventID primitive.ObjectID, in ApplyInput) (models.Application, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return models.Application{}, err
	}
	if event.HasWithdrawn(comedianID) {
		return models.Application{}, ErrWithdrawn
	}
	exists, err := s.apps.Exists(ctx, eventID, comedianID)
	if err != nil {
		return models.Application{}, err
	}
	if exists {
		return models.Application{}, ErrAlreadyApplied
	}

	var created models.Application
	err = s.run(ctx, func(ctx context.Context) error {
		a, err := s.apps.Create(ctx, models.Application{
			EventID:            eventID,
			ComedianID:         comedianID,
			PerformanceDetails: in.PerformanceDetails,
			Message:            in.Message,
		})
		if err != nil {
			return err
		}
		if err := s.events.AddApplication(ctx, eventID, a.ID); err != nil {
			return err
		}
		created = a
		return s.applyDelta(ctx, comedianID, eventID, Transition("", models.StatusPending).Add(models.StatsDelta{ApplicationsSent: 1}))
	})
	if errors.Is(err, appstore.ErrDuplicate) {
		return models.Application{}, ErrAlreadyApplied
	}
	if err != nil {
		return models.Application{}, err
	}

	s.recordTransition("", created.Status)
	s.background(func(ctx context.Context) { s.notifyApplicationReceived(ctx, *event, created) })
	return created, nil
}

// UpdateStatus moves an application to status and returns it together with
// the status it left. Only the organizer of the application's event may do
// this. A nil organizerMessage keeps the stored message, an empty one clears
// it. Participants and the comedian's counters follow the transition in the
// same unit of work; ACCEPTED and REJECTED outcomes are emailed to the
// comedian afterwards.
func (s *Service) UpdateStatus(ctx context.Context, actorID, appID primitive.ObjectID, status string, organizerMessage *string) (updated *models.Application, previous string, err error) {
	if !models.ValidStatus(status) {
		return nil, "", ErrInvalidStatus
	}
	app, err := s.loadApplication(ctx, appID)
	if err != nil {
		return nil, "", err
	}
	event, err := s.loadEvent(ctx, app.EventID)
	if err != nil {
		return nil, "", err
	}
	if event.OrganizerID != actorID {
		return nil, "", ErrForbidden
	}

	old := app.Status
	err = s.run(ctx, func(ctx context.Context) error {
		a, err := s.apps.SetStatus(ctx, app.ID, old, status, organizerMessage)
		if err != nil {
			return err
		}
		switch {
		case status == models.StatusAccepted:
			err = s.events.AddParticipant(ctx, event.ID, app.ComedianID)
		case old == models.StatusAccepted:
			err = s.events.RemoveParticipant(ctx, event.ID, app.ComedianID)
		}
		if err != nil {
			return err
		}
		updated = a
		return s.applyDelta(ctx, app.ComedianID, event.ID, Transition(old, status))
	})
	switch {
	case errors.Is(err, appstore.ErrStale):
		return nil, "", ErrConflict
	case errors.Is(err, appstore.ErrNotFound):
		return nil, "", ErrNotFound
	case err != nil:
		return nil, "", err
	}

	s.recordTransition(old, status)
	if old != status && status != models.StatusPending {
		s.background(func(ctx context.Context) { s.notifyStatus(ctx, *event, *updated) })
	}
	return updated, old, nil
}

// Withdraw removes an application. The comedian who applied or the event
// organizer may withdraw it. The comedian leaves the participants list,
// is recorded in withdrawn_comedians and cannot apply to the event again.
func (s *Service) Withdraw(ctx context.Context, actorID, appID primitive.ObjectID) (*models.Application, error) {
	app, err := s.loadApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	event, err := s.loadEvent(ctx, app.EventID)
	if err != nil {
		return nil, err
	}
	if actorID != app.ComedianID && actorID != event.OrganizerID {
		return nil, ErrForbidden
	}

	var removed *models.Application
	err = s.run(ctx, func(ctx context.Context) error {
		a, err := s.apps.Delete(ctx, app.ID)
		if err != nil {
			return err
		}
		if err := s.events.Withdraw(ctx, event.ID, a.ComedianID, a.ID); err != nil {
			return err
		}
		removed = a
		return s.applyDelta(ctx, a.ComedianID, event.ID, Transition(a.Status, ""))
	})
	if errors.Is(err, appstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.recordTransition(removed.Status, "")
	return removed, nil
}

// Confirm acknowledges an organizer edit: the comedian who owns the
// application keeps it, and the event's modified flag is cleared.
func (s *Service) Confirm(ctx context.Context, comedianID, appID primitive.ObjectID) (*models.Application, error) {
	app, err := s.loadApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.ComedianID != comedianID {
		return nil, ErrForbidden
	}
	if err := s.events.SetModified(ctx, app.EventID, false); err != nil {
		return nil, translateEventErr(err)
	}
	return app, nil
}

// Link actions accepted by RespondToUpdate.
const (
	ActionKeep     = "keep"
	ActionWithdraw = "withdraw"
)

// RespondToUpdate handles the keep/withdraw links emailed after an event
// edit. It returns the web app URL to redirect the comedian to.
func (s *Service) RespondToUpdate(ctx context.Context, token, action string) (string, error) {
	if s.opts.Tokens == nil {
		return "", ErrInvalidLink
	}
	claims, err := s.opts.Tokens.ParseRespondToken(token)
	if err != nil {
		return "", ErrInvalidLink
	}
	appID, err := primitive.ObjectIDFromHex(claims.ApplicationID)
	if err != nil {
		return "", ErrInvalidLink
	}
	comedianID, err := primitive.ObjectIDFromHex(claims.ComedianID)
	if err != nil {
		return "", ErrInvalidLink
	}

	switch strings.ToLower(action) {
	case ActionKeep:
		if _, err := s.Confirm(ctx, comedianID, appID); err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrEventNotFound) {
				return "", ErrInvalidLink
			}
			return "", err
		}
		return s.frontendLink("/applications", url.Values{"update": {"kept"}}), nil
	case ActionWithdraw:
		_, err := s.Withdraw(ctx, comedianID, appID)
		switch {
		case err == nil, errors.Is(err, ErrNotFound):
		case errors.Is(err, ErrForbidden), errors.Is(err, ErrEventNotFound):
			return "", ErrInvalidLink
		default:
			return "", err
		}
		return s.frontendLink("/applications", url.Values{"update": {"withdrawn"}}), nil
	}
	return "", ErrInvalidLinkAction
}

func (s *Service) recordTransition(from, to string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.StatusTransition(from, to)
	}
	s.log.Debug("application transition", zap.String("from", from), zap.String("to", to))
}
