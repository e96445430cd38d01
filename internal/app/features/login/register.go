package login

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/standupconnect/internal/app/store/users"
	"github.com/dalemusser/standupconnect/internal/app/system/authutil"
	"github.com/dalemusser/standupconnect/internal/app/system/inputval"
	"github.com/dalemusser/standupconnect/internal/app/system/normalize"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// registerInput is the body of POST /api/auth/register. Only COMEDIAN and
// ORGANIZER are self-assigned. ADMIN and SUPER_ADMIN carry mail and
// reconciliation rights and are granted outside this endpoint.
type registerInput struct {
	Email     string `json:"email" validate:"required,email" label:"Email"`
	Password  string `json:"password" validate:"required,min=6,max=72" label:"Password"`
	FirstName string `json:"firstName" validate:"required,min=2" label:"First name"`
	LastName  string `json:"lastName" validate:"required,min=2" label:"Last name"`
	Role      string `json:"role" validate:"required,oneof=COMEDIAN ORGANIZER" label:"Role"`
	Phone     string `json:"phone" validate:"omitempty,max=40" label:"Phone"`
	City      string `json:"city" validate:"omitempty,max=120" label:"City"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := respond.Decode(w, r, &in, 0); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode register body", err, "Invalid JSON body")
		return
	}
	in.Email = normalize.Email(in.Email)
	in.FirstName = normalize.Name(in.FirstName)
	in.LastName = normalize.Name(in.LastName)
	in.Role = normalize.Role(in.Role)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Validation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	taken, err := h.Users.EmailTaken(ctx, in.Email, primitive.NilObjectID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB check email", err, "")
		return
	}
	if taken {
		respond.Message(w, http.StatusBadRequest, "User already exists")
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err, "")
		return
	}

	u, err := h.Users.Create(ctx, models.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		Phone:        in.Phone,
		City:         in.City,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		respond.Message(w, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB create user", err, "")
		return
	}

	token, err := h.Tokens.Issue(u.ID.Hex(), u.Email, u.Role)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "sign token", err, "")
		return
	}
	h.AuditLog.Registered(ctx, r, u.ID, u.Email, u.Role)

	respond.JSON(w, http.StatusCreated, h.issued(token, u))
}
