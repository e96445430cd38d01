// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/standupconnect/internal/app/features/errors"
	userstore "github.com/dalemusser/standupconnect/internal/app/store/users"
	"github.com/dalemusser/standupconnect/internal/app/system/auditlog"
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/authutil"
	"github.com/dalemusser/standupconnect/internal/app/system/inputval"
	"github.com/dalemusser/standupconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Users    *userstore.Store
	Tokens   *auth.TokenManager
	Limiter  *ratelimit.LoginLimiter // nil disables rate limiting
	AuditLog *auditlog.Logger
}

func NewHandler(
	db *mongo.Database,
	tokens *auth.TokenManager,
	limiter *ratelimit.LoginLimiter,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		Users:    userstore.New(db),
		Tokens:   tokens,
		Limiter:  limiter,
		AuditLog: audit,
	}
}

// authResponse is returned by register and login.
type authResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expiresIn"` // seconds
	User      models.User `json:"user"`
}

func (h *Handler) issued(token string, u models.User) authResponse {
	return authResponse{Token: token, ExpiresIn: int64(h.Tokens.Expiry() / time.Second), User: u}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/login                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type loginInput struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required,min=6" label:"Password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := respond.Decode(w, r, &in, 0); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode login body", err, "Invalid JSON body")
		return
	}
	in.Email = strings.TrimSpace(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Validation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, in.Email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, in.Email)
			respond.Message(w, http.StatusTooManyRequests, msg)
			return
		}
	}

	/*── look-up user by normalized email ──────────────────────────────────*/

	u, err := h.Users.GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, in.Email)
		respond.Message(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "")
		return
	}

	if !authutil.CheckPassword(in.Password, u.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.Email)
		respond.Message(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.Tokens.Issue(u.ID.Hex(), u.Email, u.Role)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "sign token", err, "")
		return
	}

	now := time.Now().UTC()
	if err := h.Users.TouchLogin(ctx, u.ID, now); err != nil {
		h.Log.Warn("record last login failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	} else {
		u.LastLoginAt = &now
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(u.Email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Email)

	respond.JSON(w, http.StatusOK, h.issued(token, *u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/profile                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	uid, ok := su.ObjectID()
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Token is not valid")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.NotFound(w, "User not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB load profile", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, u)
}
