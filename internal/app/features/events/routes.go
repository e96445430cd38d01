package events

import (
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /api/events. Listing and reading are public;
// the auth middleware upstream still identifies signed-in callers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/stats", h.ServeStats)
		r.With(auth.RequireRole(models.RoleOrganizer, models.RoleSuperAdmin)).Post("/", h.HandleCreate)
		r.Put("/{eventId}", h.HandleUpdate)
		r.Delete("/{eventId}", h.HandleDelete)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleSuperAdmin))
		r.Post("/process-completed-events", h.HandleProcessCompleted)
		r.Post("/reset-participations", h.HandleResetParticipations)
	})

	r.Get("/{eventId}", h.ServeEvent)
	return r
}
