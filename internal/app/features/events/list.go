package events

import (
	"context"
	"errors"
	"net/http"

	eventstore "github.com/dalemusser/standupconnect/internal/app/store/events"
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listFilter picks what GET /api/events returns for the caller. An explicit
// organizerId wins; otherwise organizers see their own events, comedians
// see everything that is not a draft and anonymous callers see published
// events only.
func listFilter(r *http.Request) (bson.M, bool) {
	if raw := query.Get(r, "organizerId"); raw != "" {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, false
		}
		return eventstore.ByOrganizer(oid), true
	}

	u, ok := auth.CurrentUser(r)
	if !ok {
		return eventstore.ByStatus(models.EventPublished), true
	}
	switch u.Role {
	case models.RoleSuperAdmin:
		return bson.M{}, true
	case models.RoleOrganizer:
		if oid, ok := u.ObjectID(); ok {
			return eventstore.ByOrganizer(oid), true
		}
	case models.RoleComedian:
		return eventstore.ByStatus(models.EventPublished, models.EventCompleted, models.EventCancelled), true
	}
	return eventstore.ByStatus(models.EventPublished), true
}

// ServeList handles GET /api/events.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, ok := listFilter(r)
	if !ok {
		respond.Message(w, http.StatusBadRequest, "Invalid organizerId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.List(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB list events", err, "")
		return
	}
	out, err := h.Views.Events(ctx, events)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "populate events", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// ServeEvent handles GET /api/events/{eventId}.
func (h *Handler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventId"))
	if err != nil {
		respond.Message(w, http.StatusNotFound, "Event not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if errors.Is(err, eventstore.ErrNotFound) {
		respond.Message(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB load event", err, "")
		return
	}
	out, err := h.Views.OneEvent(ctx, *e)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "populate event", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}
