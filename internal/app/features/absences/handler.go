package absences

import (
	"context"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/standupconnect/internal/app/features/errors"
	"github.com/dalemusser/standupconnect/internal/app/lifecycle"
	"github.com/dalemusser/standupconnect/internal/app/store/audit"
	"github.com/dalemusser/standupconnect/internal/app/system/auditlog"
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/authz"
	"github.com/dalemusser/standupconnect/internal/app/system/htmlsanitize"
	"github.com/dalemusser/standupconnect/internal/app/system/inputval"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Svc      *lifecycle.Service
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(svc *lifecycle.Service, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, AuditLog: audit, Log: logger, ErrLog: errLog}
}

// Routes is mounted under /api/absences.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.With(auth.RequireRole(models.RoleOrganizer)).Post("/", h.HandleMark)
	r.With(auth.RequireRole(models.RoleSuperAdmin)).Post("/sync-absences", h.HandleSync)
	r.Delete("/{eventId}/{comedianId}", h.HandleUnmark)
	r.Get("/event/{eventId}", h.ServeEvent)
	r.Get("/comedian/{comedianId}", h.ServeComedian)
	return r
}

type markInput struct {
	EventID    string `json:"eventId" validate:"required,objectid" label:"Event"`
	ComedianID string `json:"comedianId" validate:"required,objectid" label:"Comedian"`
	Reason     string `json:"reason" validate:"max=500" label:"Reason"`
}

func viewer(r *http.Request) lifecycle.Viewer {
	role, _, uid, _ := authz.UserCtx(r)
	return lifecycle.Viewer{ID: uid, Role: role}
}

func pathID(r *http.Request, key string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	return id, err == nil
}

// HandleMark records a participant as absent. A new absence answers 201,
// a repeated one 200.
func (h *Handler) HandleMark(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in markInput
	if err := respond.Decode(w, r, &in, 0); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode absence body", err, "Invalid JSON body")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Validation(w, res)
		return
	}
	eventID, _ := primitive.ObjectIDFromHex(in.EventID)
	comedianID, _ := primitive.ObjectIDFromHex(in.ComedianID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	absence, created, err := h.Svc.MarkAbsent(ctx, uid, eventID, comedianID, htmlsanitize.StripTags(in.Reason))
	if err != nil {
		h.ErrLog.LogDomainError(w, r, "mark absence", err)
		return
	}
	h.AuditLog.AbsenceMarked(ctx, r, uid.Hex(), comedianID, eventID, created)

	status, msg := http.StatusOK, "Absence updated"
	if created {
		status, msg = http.StatusCreated, "Absence recorded"
	}
	respond.JSON(w, status, map[string]any{"message": msg, "absence": absence})
}

// HandleUnmark removes an absence.
func (h *Handler) HandleUnmark(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	eventID, ok1 := pathID(r, "eventId")
	comedianID, ok2 := pathID(r, "comedianId")
	if !ok1 || !ok2 {
		respond.Message(w, http.StatusNotFound, "Absence not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Svc.UnmarkAbsent(ctx, uid, eventID, comedianID); err != nil {
		h.ErrLog.LogDomainError(w, r, "unmark absence", err)
		return
	}
	h.AuditLog.AbsenceUnmarked(ctx, r, uid.Hex(), comedianID, eventID)
	respond.Message(w, http.StatusOK, "Absence removed")
}

func (h *Handler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventId")
	if !ok {
		respond.Message(w, http.StatusNotFound, "Event not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Svc.EventAbsences(ctx, viewer(r), eventID)
	if err != nil {
		h.ErrLog.LogDomainError(w, r, "list event absences", err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *Handler) ServeComedian(w http.ResponseWriter, r *http.Request) {
	comedianID, ok := pathID(r, "comedianId")
	if !ok {
		respond.Message(w, http.StatusBadRequest, "Invalid comedianId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Svc.ComedianAbsences(ctx, viewer(r), comedianID)
	if err != nil {
		h.ErrLog.LogDomainError(w, r, "list comedian absences", err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleSync recomputes absence counters from the absence records.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	n, err := h.Svc.SyncAbsences(ctx)
	h.AuditLog.BatchRun(ctx, r, audit.EventAbsencesSynced, uid.Hex(), uuid.NewString(),
		map[string]string{"updated": strconv.FormatInt(n, 10)}, err)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "sync absences", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message":      "Absences synchronized",
		"updatedCount": n,
	})
}
