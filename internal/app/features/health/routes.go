package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter that serves the health endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	r.Head("/", h.Serve)
	return r
}

// MetricsRoutes mounts the Prometheus exposition handler under /metrics.
func MetricsRoutes(metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/", metrics)
	return r
}
