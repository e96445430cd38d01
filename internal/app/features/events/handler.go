package events

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

// Handler owns the /api/events endpoints.
type Handler struct {
	DB       *mongo.Database
	Svc      *lifecycle.Service
	Events   *eventstore.Store
	Apps     *appstore.Store
	Views    *views.Builder
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, svc *lifecycle.Service, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Svc:      svc,
		Events:   eventstore.New(db),
		Apps:     appstore.New(db),
		Views:    views.NewBuilder(db),
		AuditLog: audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}
