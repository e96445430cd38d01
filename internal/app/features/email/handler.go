// internal/app/features/email/handler.go
package email

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/standupconnect/internal/app/features/errors"
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/inputval"
	"github.com/dalemusser/standupconnect/internal/app/system/mailer"
	"github.com/dalemusser/standupconnect/internal/app/system/normalize"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Sender delivers one message synchronously. *mailer.Async satisfies it.
type Sender interface {
	Send(kind string, e mailer.Email) error
}

type Handler struct {
	Mail   Sender
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(mail Sender, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Mail: mail, Log: logger, ErrLog: errLog}
}

// Routes is mounted under /api/email.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
	r.Post("/send", h.HandleSend)
	return r
}

type sendInput struct {
	To      string `json:"to" validate:"required,email" label:"To"`
	Subject string `json:"subject" validate:"required,max=300" label:"Subject"`
	Text    string `json:"text" validate:"required" label:"Text"`
}

// HandleSend delivers an admin-composed message and reports the result.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var in sendInput
	if err := respond.Decode(w, r, &in, 0); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode email body", err, "Invalid JSON body")
		return
	}
	in.To = normalize.Email(in.To)
	in.Subject = strings.TrimSpace(in.Subject)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Validation(w, res)
		return
	}

	err := h.Mail.Send(mailer.KindAdmin, mailer.Email{To: in.To, Subject: in.Subject, TextBody: in.Text})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "send admin email", err, "Error sending email")
		return
	}
	h.Log.Info("admin email sent", zap.String("to", in.To))
	respond.Message(w, http.StatusOK, "Email sent successfully")
}
