package events

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/standupconnect/internal/app/store/audit"
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/google/uuid"
)

// HandleProcessCompleted handles POST /api/events/process-completed-events.
func (h *Handler) HandleProcessCompleted(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	res, err := h.Svc.ProcessCompletedEvents(ctx, time.Now().UTC())
	h.AuditLog.BatchRun(ctx, r, audit.EventCompletedEventsRun, u.ID, res.RunID, map[string]string{
		"events":         strconv.Itoa(res.EventsProcessed),
		"participations": strconv.Itoa(res.ParticipationsAdded),
	}, err)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "process completed events", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		RunID   string `json:"runId"`
		Events  int    `json:"eventsProcessed"`
		Added   int    `json:"participationsAdded"`
		Skipped int    `json:"skippedAbsent"`
	}{"Completed events processed", res.RunID, res.EventsProcessed, res.ParticipationsAdded, res.Skipped})
}

// HandleResetParticipations handles POST /api/events/reset-participations.
func (h *Handler) HandleResetParticipations(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	n, err := h.Svc.ResetParticipations(ctx)
	h.AuditLog.BatchRun(ctx, r, audit.EventParticipationsReset, u.ID, uuid.NewString(),
		map[string]string{"users": strconv.FormatInt(n, 10)}, err)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reset participations", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message":       "Participations reset",
		"modifiedCount": n,
	})
}
