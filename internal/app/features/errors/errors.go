// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"go.uber.org/zap"
)

// ErrorLogger logs request-scoped failures and writes the JSON error body.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID), zap.String("role", u.Role))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	return fields
}

// LogServerError logs at error level and responds 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg, e.fields(r, err)...)
	if userMsg == "" {
		userMsg = "Server error"
	}
	respond.Message(w, http.StatusInternalServerError, userMsg)
}

// LogBadRequest logs at warn level and responds 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Warn(msg, e.fields(r, err)...)
	respond.Message(w, http.StatusBadRequest, userMsg)
}

// NotFound responds 404.
func NotFound(w http.ResponseWriter, msg string) {
	respond.Message(w, http.StatusNotFound, msg)
}
