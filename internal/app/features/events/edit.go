package events

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/standupconnect/internal/app/lifecycle"
	"github.com/dalemusser/standupconnect/internal/app/store/audit"
	"github.com/dalemusser/standupconnect/internal/app/system/authz"
	"github.com/dalemusser/standupconnect/internal/app/system/inputval"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const notOwned = "Event not found or unauthorized"

// HandleCreate handles POST /api/events.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in createInput
	if err := respond.Decode(w, r, &in, 0); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode event body", err, "Invalid JSON body")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Validation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Svc.CreateEvent(ctx, uid, in.event())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create event", err, "")
		return
	}
	h.AuditLog.EventChanged(ctx, r, audit.EventEventCreated, uid.Hex(), created.ID, created.Title)

	out, err := h.Views.OneEvent(ctx, created)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "populate event", err, "")
		return
	}
	respond.JSON(w, http.StatusCreated, out)
}

// HandleUpdate handles PUT /api/events/{eventId}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventId"))
	if err != nil {
		respond.Message(w, http.StatusNotFound, notOwned)
		return
	}

	var in updateInput
	if err := respond.Decode(w, r, &in, 0); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode event body", err, "Invalid JSON body")
		return
	}
	in.normalize()
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Validation(w, res)
		return
	}
	set := in.set()
	if len(set) == 0 {
		respond.Message(w, http.StatusBadRequest, "No fields to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	updated, err := h.Svc.UpdateEvent(ctx, uid, id, set)
	if errors.Is(err, lifecycle.ErrEventNotFound) {
		respond.Message(w, http.StatusNotFound, notOwned)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update event", err, "")
		return
	}
	h.AuditLog.EventChanged(ctx, r, audit.EventEventUpdated, uid.Hex(), updated.ID, updated.Title)

	out, err := h.Views.OneEvent(ctx, *updated)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "populate event", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// HandleDelete handles DELETE /api/events/{eventId}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventId"))
	if err != nil {
		respond.Message(w, http.StatusNotFound, notOwned)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Svc.DeleteEvent(ctx, uid, id)
	if errors.Is(err, lifecycle.ErrEventNotFound) {
		respond.Message(w, http.StatusNotFound, notOwned)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete event", err, "")
		return
	}
	h.AuditLog.EventChanged(ctx, r, audit.EventEventDeleted, uid.Hex(), id, "")

	respond.JSON(w, http.StatusOK, map[string]any{
		"message":             "Event deleted successfully",
		"deletedApplications": res.Applications,
		"deletedAbsences":     res.Absences,
	})
}
