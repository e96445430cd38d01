package applications

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/standupconnect/internal/app/features/shared/views"
	"github.com/dalemusser/standupconnect/internal/app/lifecycle"
	appstore "github.com/dalemusser/standupconnect/internal/app/store/applications"
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/authz"
	"github.com/dalemusser/standupconnect/internal/app/system/normalize"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// scope builds the base filter for the caller: comedians see their own
// applications, organizers those sent to their events, super admins all.
func (h *Handler) scope(ctx context.Context, u *auth.SessionUser) (appstore.Filter, bool, error) {
	uid, ok := u.ObjectID()
	if !ok {
		return appstore.Filter{}, false, nil
	}
	switch u.Role {
	case models.RoleSuperAdmin:
		return appstore.Filter{}, true, nil
	case models.RoleComedian:
		return appstore.Filter{ComedianID: &uid}, true, nil
	case models.RoleOrganizer:
		ids, err := h.Events.IDsByOrganizer(ctx, uid)
		if err != nil {
			return appstore.Filter{}, false, err
		}
		return appstore.Filter{EventIDs: ids}, true, nil
	}
	return appstore.Filter{}, false, nil
}

// restrictTo narrows EventIDs to eventID, keeping an existing scope.
func restrictTo(f appstore.Filter, eventID primitive.ObjectID) appstore.Filter {
	if f.EventIDs == nil {
		f.EventIDs = []primitive.ObjectID{eventID}
		return f
	}
	for _, id := range f.EventIDs {
		if id == eventID {
			f.EventIDs = []primitive.ObjectID{eventID}
			return f
		}
	}
	f.EventIDs = []primitive.ObjectID{}
	return f
}

// ServeList handles GET /api/applications.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter, ok, err := h.scope(ctx, u)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB load organizer events", err, "")
		return
	}
	if !ok {
		respond.Message(w, http.StatusForbidden, "Access denied")
		return
	}

	if raw := query.Get(r, "status"); raw != "" {
		status := normalize.Status(raw)
		if !models.ValidStatus(status) {
			respond.Message(w, http.StatusBadRequest, "Invalid status")
			return
		}
		filter.Status = status
	}
	if raw := query.Get(r, "eventId"); raw != "" {
		eventID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			respond.Message(w, http.StatusBadRequest, "Invalid eventId")
			return
		}
		filter = restrictTo(filter, eventID)
	}

	apps, err := h.Apps.List(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB list applications", err, "")
		return
	}
	out, err := h.Views.Applications(ctx, apps)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "populate applications", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// ServeApplication handles GET /api/applications/{applicationId}.
func (h *Handler) ServeApplication(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "applicationId"))
	if err != nil {
		respond.Message(w, http.StatusNotFound, "Application not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Apps.GetByID(ctx, id)
	if errors.Is(err, appstore.ErrNotFound) {
		respond.Message(w, http.StatusNotFound, "Application not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB load application", err, "")
		return
	}

	out, err := h.Views.OneApplication(ctx, *a)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "populate application", err, "")
		return
	}
	if !canView(r, out) {
		h.ErrLog.LogDomainError(w, r, "view application", lifecycle.ErrForbidden)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// canView allows the comedian who applied, the event organizer and super
// admins.
func canView(r *http.Request, a views.Application) bool {
	if authz.IsSuperAdmin(r) || authz.IsSelf(r, a.ComedianID) {
		return true
	}
	return a.Event != nil && authz.IsSelf(r, a.Event.OrganizerID)
}

// ServeCheck handles GET /api/applications/check/{eventId}/{comedianId}.
func (h *Handler) ServeCheck(w http.ResponseWriter, r *http.Request) {
	eventID, err1 := primitive.ObjectIDFromHex(chi.URLParam(r, "eventId"))
	comedianID, err2 := primitive.ObjectIDFromHex(chi.URLParam(r, "comedianId"))
	if err1 != nil || err2 != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	exists, err := h.Apps.Exists(ctx, eventID, comedianID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB check application", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"hasApplied": exists})
}
