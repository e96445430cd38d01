package events

import (
	"context"
	"net/http"
	"time"

	eventstore "github.com/dalemusser/standupconnect/internal/app/store/events"
	"github.com/dalemusser/standupconnect/internal/app/system/authz"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeStats handles GET /api/events/stats. A super admin gets figures over
// every event; anyone else over the events they organize.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	scope := bson.M{}
	var eventIDs []primitive.ObjectID // nil counts applications on every event
	if !authz.IsSuperAdmin(r) {
		scope = eventstore.ByOrganizer(uid)
		ids, err := h.Events.IDsByOrganizer(ctx, uid)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "DB list organizer events", err, "")
			return
		}
		eventIDs = ids
	}

	counts, err := h.Events.CountSummary(ctx, scope, time.Now().UTC())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB count events", err, "")
		return
	}
	apps, err := h.Apps.CountByStatus(ctx, eventIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB count applications", err, "")
		return
	}

	respond.JSON(w, http.StatusOK, statsResponse{
		TotalEvents:              counts.Total,
		UpcomingIncompleteEvents: counts.UpcomingIncomplete,
		CompletedEvents:          counts.Completed,
		PendingApplications:      apps.Pending,
		AcceptedApplications:     apps.Accepted,
		RejectedApplications:     apps.Rejected,
	})
}
