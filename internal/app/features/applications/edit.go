package applications

import (
	"context"
	"net/http"

	"github.com/dalemusser/standupconnect/internal/app/lifecycle"
	"github.com/dalemusser/standupconnect/internal/app/system/authz"
	"github.com/dalemusser/standupconnect/internal/app/system/htmlsanitize"
	"github.com/dalemusser/standupconnect/internal/app/system/inputval"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func applicationID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "applicationId"))
	return id, err == nil
}

// HandleApply handles POST /api/applications.
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in applyInput
	if err := respond.Decode(w, r, &in, 0); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode application body", err, "Invalid JSON body")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Validation(w, res)
		return
	}
	eventID, _ := primitive.ObjectIDFromHex(in.EventID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Svc.Apply(ctx, uid, eventID, lifecycle.ApplyInput{
		PerformanceDetails: in.details(),
		Message:            htmlsanitize.StripTags(in.Message),
	})
	if err != nil {
		h.ErrLog.LogDomainError(w, r, "apply to event", err)
		return
	}
	h.AuditLog.ApplicationCreated(ctx, r, uid, created.ID, eventID)

	out, err := h.Views.OneApplication(ctx, created)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "populate application", err, "")
		return
	}
	respond.JSON(w, http.StatusCreated, out)
}

// HandleStatus handles PUT /api/applications/{applicationId}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, ok := applicationID(r)
	if !ok {
		respond.Message(w, http.StatusNotFound, "Application not found")
		return
	}

	var in statusInput
	if err := respond.Decode(w, r, &in, 0); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode status body", err, "Invalid JSON body")
		return
	}
	in.normalize()
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Validation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	updated, previous, err := h.Svc.UpdateStatus(ctx, uid, id, in.Status, in.OrganizerMessage)
	if err != nil {
		h.ErrLog.LogDomainError(w, r, "update application status", err)
		return
	}
	h.AuditLog.ApplicationStatusChanged(ctx, r, uid.Hex(), updated.ComedianID, updated.ID, previous, updated.Status)

	out, err := h.Views.OneApplication(ctx, *updated)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "populate application", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// HandleConfirm handles PATCH /api/applications/{applicationId}/confirm.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, ok := applicationID(r)
	if !ok {
		respond.Message(w, http.StatusNotFound, "Application not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Svc.Confirm(ctx, uid, id)
	if err != nil {
		h.ErrLog.LogDomainError(w, r, "confirm application", err)
		return
	}
	out, err := h.Views.OneApplication(ctx, *a)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "populate application", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// HandleWithdraw handles DELETE /api/applications/{applicationId}.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, ok := applicationID(r)
	if !ok {
		respond.Message(w, http.StatusNotFound, "Application not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	removed, err := h.Svc.Withdraw(ctx, uid, id)
	if err != nil {
		h.ErrLog.LogDomainError(w, r, "withdraw application", err)
		return
	}
	h.AuditLog.ApplicationWithdrawn(ctx, r, uid.Hex(), removed.ComedianID, removed.ID, removed.EventID)
	respond.Message(w, http.StatusOK, "Application withdrawn")
}

// ServeRespondUpdate handles the keep/withdraw links sent after an
// organizer edits an event. The token is the only credential.
func (h *Handler) ServeRespondUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target, err := h.Svc.RespondToUpdate(ctx, r.URL.Query().Get("token"), r.URL.Query().Get("action"))
	if err != nil {
		h.ErrLog.LogDomainError(w, r, "respond to event update", err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
