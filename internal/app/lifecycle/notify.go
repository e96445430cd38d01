package lifecycle

import (
	"context"
	"net/url"
	"strings"

	appstore "github.com/dalemusser/standupconnect/internal/app/store/applications"
	"github.com/dalemusser/standupconnect/internal/app/system/mailer"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// background runs fn detached from the request, with its own deadline.
// Nothing runs when mail is not configured.
func (s *Service) background(fn func(ctx context.Context)) {
	if s.opts.Mail == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("notification panicked", zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
		defer cancel()
		fn(ctx)
	}()
}

func (s *Service) frontendLink(path string, q url.Values) string {
	u := strings.TrimRight(s.opts.FrontendURL, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (s *Service) apiLink(path string, q url.Values) string {
	return strings.TrimRight(s.opts.BaseURL, "/") + path + "?" + q.Encode()
}

func (s *Service) user(ctx context.Context, id primitive.ObjectID) (*models.User, bool) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.log.Warn("notification recipient lookup failed", zap.String("user_id", id.Hex()), zap.Error(err))
		return nil, false
	}
	return u, true
}

func (s *Service) enqueue(kind string, e mailer.Email) {
	if !s.opts.Mail.Enqueue(kind, e) {
		s.log.Warn("notification not queued", zap.String("kind", kind), zap.String("to", e.To))
	}
}

func (s *Service) notifyApplicationReceived(ctx context.Context, event models.Event, app models.Application) {
	organizer, ok := s.user(ctx, event.OrganizerID)
	if !ok {
		return
	}
	comedian, ok := s.user(ctx, app.ComedianID)
	if !ok {
		return
	}
	s.enqueue(mailer.KindApplicationReceived, mailer.BuildApplicationReceivedEmail(organizer.Email, mailer.ApplicationReceivedData{
		OrganizerName: organizer.FullName(),
		ComedianName:  comedian.FullName(),
		Message:       app.Message,
		Event:         mailer.EventSummary(event),
		ManageURL:     s.frontendLink("/events/"+event.ID.Hex(), nil),
	}))
}

func (s *Service) notifyStatus(ctx context.Context, event models.Event, app models.Application) {
	comedian, ok := s.user(ctx, app.ComedianID)
	if !ok {
		return
	}
	organizer, ok := s.user(ctx, event.OrganizerID)
	if !ok {
		return
	}
	s.enqueue(mailer.KindStatus, mailer.BuildStatusEmail(comedian.Email, mailer.StatusData{
		ComedianName:     comedian.FullName(),
		OrganizerName:    organizer.FullName(),
		Accepted:         app.Status == models.StatusAccepted,
		OrganizerMessage: app.OrganizerMessage,
		Event:            mailer.EventSummary(event),
		ApplicationsURL:  s.frontendLink("/applications", nil),
	}))
}

func (s *Service) notifyNewEvent(ctx context.Context, event models.Event) {
	organizer, ok := s.user(ctx, event.OrganizerID)
	if !ok {
		return
	}
	recipients, err := s.users.ComedianRecipients(ctx)
	if err != nil {
		s.log.Warn("comedian lookup for new event failed", zap.Error(err))
		return
	}
	for _, r := range recipients {
		s.enqueue(mailer.KindNewEvent, mailer.BuildNewEventEmail(r.Email, mailer.NewEventData{
			ComedianName:  strings.TrimSpace(r.FirstName + " " + r.LastName),
			OrganizerName: organizer.FullName(),
			Event:         mailer.EventSummary(event),
			EventURL:      s.frontendLink("/events/"+event.ID.Hex(), nil),
		}))
	}
}

func (s *Service) notifyEventUpdated(ctx context.Context, event models.Event) {
	organizer, ok := s.user(ctx, event.OrganizerID)
	if !ok {
		return
	}
	apps, err := s.apps.List(ctx, appstore.Filter{EventIDs: []primitive.ObjectID{event.ID}})
	if err != nil {
		s.log.Warn("applicant lookup for event update failed", zap.Error(err))
		return
	}
	for _, a := range apps {
		comedian, ok := s.user(ctx, a.ComedianID)
		if !ok {
			continue
		}
		keep, withdraw, err := s.respondLinks(a)
		if err != nil {
			s.log.Error("respond link signing failed", zap.Error(err))
			return
		}
		s.enqueue(mailer.KindEventUpdated, mailer.BuildEventUpdatedEmail(comedian.Email, mailer.EventUpdatedData{
			ComedianName:   comedian.FullName(),
			OrganizerName:  organizer.FullName(),
			OrganizerEmail: organizer.Email,
			Event:          mailer.EventSummary(event),
			KeepURL:        keep,
			WithdrawURL:    withdraw,
		}))
	}
}

// respondLinks signs the keep and withdraw links for one application.
// Without a token manager both links point at the web app.
func (s *Service) respondLinks(a models.Application) (keep, withdraw string, err error) {
	if s.opts.Tokens == nil {
		l := s.frontendLink("/applications", nil)
		return l, l, nil
	}
	token, err := s.opts.Tokens.IssueRespondToken(a.ID.Hex(), a.ComedianID.Hex(), s.opts.RespondTTL)
	if err != nil {
		return "", "", err
	}
	const path = "/api/applications/respond-update"
	keep = s.apiLink(path, url.Values{"token": {token}, "action": {ActionKeep}})
	withdraw = s.apiLink(path, url.Values{"token": {token}, "action": {ActionWithdraw}})
	return keep, withdraw, nil
}
