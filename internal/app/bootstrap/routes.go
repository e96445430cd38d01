// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	absencesfeature "github.com/dalemusser/standupconnect/internal/app/features/absences"
	applicationsfeature "github.com/dalemusser/standupconnect/internal/app/features/applications"
	emailfeature "github.com/dalemusser/standupconnect/internal/app/features/email"
	errorsfeature "github.com/dalemusser/standupconnect/internal/app/features/errors"
	eventsfeature "github.com/dalemusser/standupconnect/internal/app/features/events"
	healthfeature "github.com/dalemusser/standupconnect/internal/app/features/health"
	jobsfeature "github.com/dalemusser/standupconnect/internal/app/features/jobs"
	loginfeature "github.com/dalemusser/standupconnect/internal/app/features/login"
	profilefeature "github.com/dalemusser/standupconnect/internal/app/features/profile"
	userstore "github.com/dalemusser/standupconnect/internal/app/store/users"
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root router. WAFFLE calls it after Startup,
// so every service in deps.svc is ready.
//
// Everything under /api speaks JSON and authenticates with a bearer token.
// /jobs is guarded by the cron secret, /health and /metrics are open.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	s := deps.svc
	if s == nil || s.tokens == nil {
		return nil, errors.New("build handler: services not started")
	}
	db := deps.MongoDatabase
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", jobsfeature.SecretHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.metrics.Instrument)

	// Loads the bearer token's user into the request context when present.
	// Individual routes decide whether a user is required.
	r.Use(auth.NewMiddleware(s.tokens, userstore.NewFetcher(db), logger).LoadUser)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorsfeature.NotFound(w, "Route not found")
	})

	health := healthfeature.NewHandler(deps.MongoClient, logger)
	health.Txn, health.Jobs = s.txn, s.scheduler
	r.Mount("/health", healthfeature.Routes(health))
	r.Mount("/metrics", healthfeature.MetricsRoutes(s.metrics.Handler()))

	r.Route("/api", func(api chi.Router) {
		api.Mount("/auth", loginfeature.Routes(
			loginfeature.NewHandler(db, s.tokens, s.limiter, s.audit, errLog, logger)))

		api.Mount("/events", eventsfeature.Routes(
			eventsfeature.NewHandler(db, s.lifecycle, s.audit, errLog, logger)))

		api.Mount("/applications", applicationsfeature.Routes(
			applicationsfeature.NewHandler(db, s.lifecycle, s.audit, errLog, logger)))

		api.Mount("/profile", profilefeature.Routes(
			profilefeature.NewHandler(db, s.audit, errLog, logger)))

		api.Mount("/absences", absencesfeature.Routes(
			absencesfeature.NewHandler(s.lifecycle, s.audit, errLog, logger)))

		api.Mount("/email", emailfeature.Routes(
			emailfeature.NewHandler(s.mail, errLog, logger)))
	})

	if appCfg.CronSecret == "" {
		logger.Info("cron secret not set; /jobs endpoints are disabled")
	}
	r.Mount("/jobs", jobsfeature.Routes(
		jobsfeature.NewHandler(s.reminders, appCfg.CronSecret, s.audit, errLog, logger)))

	return r, nil
}
