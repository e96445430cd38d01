package login

import (
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /api/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	public := r.With()
	if h.Limiter != nil {
		public = r.With(h.Limiter.Middleware)
	}
	public.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)

	r.With(auth.RequireSignedIn).Get("/profile", h.ServeProfile)
	r.With(auth.RequireRole(models.RoleSuperAdmin)).Get("/users", h.ServeUsers)
	return r
}
