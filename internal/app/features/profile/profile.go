// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/standupconnect/internal/app/store/users"
	"github.com/dalemusser/standupconnect/internal/app/system/authutil"
	"github.com/dalemusser/standupconnect/internal/app/system/authz"
	"github.com/dalemusser/standupconnect/internal/app/system/inputval"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeMe returns the signed-in user.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		respond.Message(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB load user", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// HandleUpdate saves the caller's own profile and marks onboarding done.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	target, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userId"))
	if err != nil || target != uid {
		respond.Message(w, http.StatusForbidden, "You can only update your own profile")
		return
	}

	var in updateInput
	if err := respond.Decode(w, r, &in, 0); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode profile body", err, "Invalid JSON body")
		return
	}
	in.normalize()
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Validation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	current, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		respond.Message(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB load user", err, "")
		return
	}

	if in.Email != nil && *in.Email != current.Email {
		taken, err := h.Users.EmailTaken(ctx, *in.Email, uid)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "DB check email", err, "")
			return
		}
		if taken {
			respond.Message(w, http.StatusBadRequest, "Email already in use")
			return
		}
	}

	set := in.set(current.Role)
	fields := len(set)
	set["onboarding_completed"] = true

	updated, err := h.Users.Update(ctx, uid, set)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		respond.Message(w, http.StatusBadRequest, "Email already in use")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB update profile", err, "")
		return
	}
	h.AuditLog.ProfileUpdated(ctx, r, uid.Hex(), uid, fields)
	respond.JSON(w, http.StatusOK, updated)
}

// HandleChangePassword replaces the caller's password after checking the
// current one.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in passwordInput
	if err := respond.Decode(w, r, &in, 0); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode password body", err, "Invalid JSON body")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Validation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		respond.Message(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB load user", err, "")
		return
	}
	if !authutil.CheckPassword(in.CurrentPassword, user.PasswordHash) {
		respond.Message(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	if err := authutil.ValidatePassword(in.NewPassword); err != nil {
		respond.Message(w, http.StatusBadRequest, authutil.PasswordRules())
		return
	}

	hash, err := authutil.HashPassword(in.NewPassword)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err, "")
		return
	}
	if _, err := h.Users.Update(ctx, uid, bson.M{"password_hash": hash}); err != nil {
		h.ErrLog.LogServerError(w, r, "DB update password", err, "")
		return
	}
	h.Log.Info("password changed", zap.String("user_id", uid.Hex()))
	respond.Message(w, http.StatusOK, "Password updated")
}
