package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcileResult reports one pass of ProcessCompletedEvents.
type ReconcileResult struct {
	RunID               string `json:"runId"`
	EventsProcessed     int    `json:"eventsProcessed"`
	ParticipationsAdded int    `json:"participationsAdded"`
	Skipped             int    `json:"skippedAbsent"`
}

// ProcessCompletedEvents credits participation for events dated before
// now. Each participant is processed at most once per event: an attended
// event joins the comedian's processed_events and grows total_events, an
// absent one joins absent_events without counting. Participants already
// carrying either marker, including every comedian whose acceptance
// counted the event, are left alone.
func (s *Service) ProcessCompletedEvents(ctx context.Context, now time.Time) (ReconcileResult, error) {
	res := ReconcileResult{RunID: uuid.NewString()}
	log := s.log.With(zap.String("run_id", res.RunID))

	events, err := s.events.Past(ctx, now)
	if err != nil {
		s.recordReconcile(false, 0)
		return res, err
	}

	for _, ev := range events {
		if len(ev.Participants) > 0 {
			absent, err := s.absences.AbsentSet(ctx, ev.ID)
			if err != nil {
				s.recordReconcile(false, res.ParticipationsAdded)
				return res, err
			}
			for _, comedianID := range ev.Participants {
				attended := !absent[comedianID]
				credited, err := s.users.CreditParticipation(ctx, comedianID, ev.ID, attended)
				if err != nil {
					s.recordReconcile(false, res.ParticipationsAdded)
					return res, err
				}
				switch {
				case credited && attended:
					res.ParticipationsAdded++
				case credited:
					res.Skipped++
				}
			}
		}
		res.EventsProcessed++
	}

	log.Info("completed events processed",
		zap.Int("events", res.EventsProcessed),
		zap.Int("participations_added", res.ParticipationsAdded),
		zap.Int("skipped_absent", res.Skipped))
	s.recordReconcile(true, res.ParticipationsAdded)
	return res, nil
}

// ResetParticipations clears total_events and both event markers for every
// comedian. The next ProcessCompletedEvents rebuilds them.
func (s *Service) ResetParticipations(ctx context.Context) (int64, error) {
	n, err := s.users.ResetParticipations(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info("participations reset", zap.Int64("comedians", n))
	return n, nil
}

func (s *Service) recordReconcile(ok bool, credited int) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ReconcileRun(ok, credited)
	}
}
