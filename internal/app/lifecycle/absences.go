package lifecycle

import (
	"context"

	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MarkAbsent records comedianID as absent from eventID. The organizer must
// own the event and the comedian must be one of its participants. Marking
// an already-absent comedian refreshes the reason and time without
// touching counters; created reports whether a new absence was recorded.
func (s *Service) MarkAbsent(ctx context.Context, organizerID, eventID, comedianID primitive.ObjectID, reason string) (absence models.Absence, created bool, err error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return models.Absence{}, false, err
	}
	if event.OrganizerID != organizerID {
		return models.Absence{}, false, ErrForbidden
	}
	if !event.HasParticipant(comedianID) {
		return models.Absence{}, false, ErrNotParticipant
	}

	err = s.run(ctx, func(ctx context.Context) error {
		a, isNew, err := s.absences.Mark(ctx, eventID, comedianID, organizerID, reason, s.now())
		if err != nil {
			return err
		}
		absence, created = a, isNew
		if !isNew {
			return nil
		}
		return s.applyDelta(ctx, comedianID, eventID, models.StatsDelta{Absences: 1})
	})
	if err != nil {
		return models.Absence{}, false, err
	}
	return absence, created, nil
}

// UnmarkAbsent deletes an absence on an event owned by organizerID and
// decrements the comedian's absence count.
func (s *Service) UnmarkAbsent(ctx context.Context, organizerID, eventID, comedianID primitive.ObjectID) error {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != organizerID {
		return ErrForbidden
	}
	return s.run(ctx, func(ctx context.Context) error {
		removed, err := s.absences.Delete(ctx, eventID, comedianID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrAbsenceNotFound
		}
		return s.applyDelta(ctx, comedianID, eventID, models.StatsDelta{Absences: -1})
	})
}

// EventAbsences lists absences on one event for its organizer.
func (s *Service) EventAbsences(ctx context.Context, v Viewer, eventID primitive.ObjectID) ([]models.Absence, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != v.ID && !v.superAdmin() {
		return nil, ErrForbidden
	}
	return s.absences.ListForEvent(ctx, eventID)
}

// ComedianAbsences lists a comedian's absences. A super admin sees all of
// them, the comedian sees their own and an organizer sees only those on
// events they own.
func (s *Service) ComedianAbsences(ctx context.Context, v Viewer, comedianID primitive.ObjectID) ([]models.Absence, error) {
	switch {
	case v.superAdmin(), v.ID == comedianID:
		return s.absences.ListForComedian(ctx, comedianID, nil)
	case v.Role == models.RoleOrganizer:
		ids, err := s.events.IDsByOrganizer(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []primitive.ObjectID{}
		}
		return s.absences.ListForComedian(ctx, comedianID, ids)
	}
	return nil, ErrForbidden
}

// SyncAbsences recomputes every comedian's absence count from the absence
// records and returns the number of users whose count changed.
func (s *Service) SyncAbsences(ctx context.Context) (int64, error) {
	counts, err := s.absences.CountByComedian(ctx)
	if err != nil {
		return 0, err
	}
	return s.users.SetAbsenceCounts(ctx, counts)
}
