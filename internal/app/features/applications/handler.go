package applications

import (
	uierrors "github.com/dalemusser/standupconnect/internal/app/features/errors"
	"github.com/dalemusser/standupconnect/internal/app/features/shared/views"
	"github.com/dalemusser/standupconnect/internal/app/lifecycle"
	appstore "github.com/dalemusser/standupconnect/internal/app/store/applications"
	eventstore "github.com/dalemusser/standupconnect/internal/app/store/events"
	"github.com/dalemusser/standupconnect/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the /api/applications endpoints.
type Handler struct {
	DB       *mongo.Database
	Svc      *lifecycle.Service
	Apps     *appstore.Store
	Events   *eventstore.Store
	Views    *views.Builder
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, svc *lifecycle.Service, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Svc:      svc,
		Apps:     appstore.New(db),
		Events:   eventstore.New(db),
		Views:    views.NewBuilder(db),
		AuditLog: audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}
