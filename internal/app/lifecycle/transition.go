package lifecycle

import "github.com/dalemusser/standupconnect/internal/domain/models"

// statusDelta is the counter contribution of an application sitting in
// status s. An ACCEPTED application also counts as one booked event.
func statusDelta(s string) models.StatsDelta {
	switch s {
	case models.StatusPending:
		return models.StatsDelta{ApplicationsPending: 1}
	case models.StatusAccepted:
		return models.StatsDelta{ApplicationsAccepted: 1, TotalEvents: 1}
	case models.StatusRejected:
		return models.StatsDelta{ApplicationsRejected: 1}
	}
	return models.StatsDelta{}
}

func negate(d models.StatsDelta) models.StatsDelta {
	return models.StatsDelta{
		TotalEvents:          -d.TotalEvents,
		ApplicationsSent:     -d.ApplicationsSent,
		ApplicationsAccepted: -d.ApplicationsAccepted,
		ApplicationsRejected: -d.ApplicationsRejected,
		ApplicationsPending:  -d.ApplicationsPending,
		Absences:             -d.Absences,
	}
}

// Transition returns the comedian counter changes implied by moving an
// application from status old to status new. Either side may be "" to
// mean no application (creation or removal). Equal statuses yield a zero
// delta.
func Transition(old, new string) models.StatsDelta {
	if old == new {
		return models.StatsDelta{}
	}
	return negate(statusDelta(old)).Add(statusDelta(new))
}
