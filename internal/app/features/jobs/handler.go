// internal/app/features/jobs/handler.go
package jobs

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/standupconnect/internal/app/features/errors"
	"github.com/dalemusser/standupconnect/internal/app/reminders"
	"github.com/dalemusser/standupconnect/internal/app/store/audit"
	"github.com/dalemusser/standupconnect/internal/app/system/auditlog"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SecretHeader carries the shared secret of external schedulers.
const SecretHeader = "X-Cron-Secret"

// ReminderRunner is satisfied by *reminders.Runner.
type ReminderRunner interface {
	Run(ctx context.Context, now time.Time) (reminders.Result, error)
}

type Handler struct {
	Reminders ReminderRunner
	Secret    string // empty disables the endpoints
	AuditLog  *auditlog.Logger
	Log       *zap.Logger
	ErrLog    *uierrors.ErrorLogger
}

func NewHandler(runner ReminderRunner, secret string, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Reminders: runner, Secret: secret, AuditLog: audit, Log: logger, ErrLog: errLog}
}

// Routes is mounted under /jobs.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(h.requireSecret)
	r.Post("/reminders", h.HandleReminders)
	return r
}

// requireSecret answers 404 when no secret is configured so the endpoint
// is invisible, and 401 when the header does not match.
func (h *Handler) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Secret == "" {
			http.NotFound(w, r)
			return
		}
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
			h.Log.Warn("cron secret mismatch", zap.String("ip", r.RemoteAddr))
			respond.Message(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleReminders sends the reminders due now.
func (h *Handler) HandleReminders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	res, err := h.Reminders.Run(ctx, time.Now().UTC())
	h.AuditLog.BatchRun(ctx, r, audit.EventRemindersRun, "", res.RunID, map[string]string{
		"j3": strconv.Itoa(res.J3),
		"j1": strconv.Itoa(res.J1),
		"h2": strconv.Itoa(res.H2),
	}, err)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "run reminders", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		reminders.Result
	}{"Reminders processed", res})
}
