// internal/app/features/profile/handler.go
package profile

import (
	uierrors "github.com/dalemusser/standupconnect/internal/app/features/errors"
	userstore "github.com/dalemusser/standupconnect/internal/app/store/users"
	"github.com/dalemusser/standupconnect/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns all user profile handlers.
type Handler struct {
	DB       *mongo.Database
	Users    *userstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs a Handler bound to the given Mongo database and logger.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Users:    userstore.New(db),
		AuditLog: audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}
