package login

import (
	"context"
	"net/http"

	"github.com/dalemusser/standupconnect/internal/app/system/paging"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
)

// ServeUsers lists comedians and organizers, newest first.
// GET /api/auth/users?limit=&skip=
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.ListMembers(ctx, paging.Parse(r))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB list users", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, users)
}
