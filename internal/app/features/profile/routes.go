// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/me", h.ServeMe)
	r.Post("/password", h.HandleChangePassword)
	r.Put("/{userId}", h.HandleUpdate)
	return r
}
