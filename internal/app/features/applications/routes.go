package applications

import (
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /api/applications.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/respond-update", h.ServeRespondUpdate)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.With(auth.RequireRole(models.RoleComedian)).Post("/", h.HandleApply)
		r.Get("/", h.ServeList)
		r.Get("/check/{eventId}/{comedianId}", h.ServeCheck)
		r.Get("/{applicationId}", h.ServeApplication)
		r.Put("/{applicationId}/status", h.HandleStatus)
		r.Patch("/{applicationId}/confirm", h.HandleConfirm)
		r.Delete("/{applicationId}", h.HandleWithdraw)
	})
	return r
}
