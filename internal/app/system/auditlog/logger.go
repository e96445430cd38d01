// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/standupconnect/internal/app/store/audit"
	"github.com/dalemusser/standupconnect/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination modes for each category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// ValidMode reports whether m is a recognised destination mode.
func ValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Config holds audit logging configuration.
type Config struct {
	// Auth controls registration and login events.
	Auth string
	// Admin controls marketplace actions: events, applications, absences, batch jobs.
	Admin string
}

// Logger records audit events to MongoDB (via audit.Store) and zap.
// A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's configured mode.
// Unknown categories are logged everywhere.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := ModeAll
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}

	if setting == ModeOff {
		return
	}
	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if setting == ModeAll || setting == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

// withRequest fills IP and user agent when r is non-nil (jobs pass nil).
func withRequest(e audit.Event, r *http.Request) audit.Event {
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

func oidPtr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

func hexPtr(s string) *primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil
	}
	return &oid
}

// --- Authentication Events ---

// Registered logs a new account.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, email, role string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventRegistered,
		UserID:    oidPtr(userID),
		Success:   true,
		Details:   map[string]string{"email": email, "role": role},
	}, r))
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    oidPtr(userID),
		Success:   true,
		Details:   map[string]string{"email": email},
	}, r))
}

// LoginFailedUserNotFound logs a login for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		FailureReason: "user not found",
		Details:       map[string]string{"attempted_email": attemptedEmail},
	}, r))
}

// LoginFailedWrongPassword logs a login with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        oidPtr(userID),
		FailureReason: "wrong password",
		Details:       map[string]string{"email": email},
	}, r))
}

// LoginFailedRateLimit logs a login rejected by the limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		FailureReason: "rate limit exceeded",
		Details:       map[string]string{"email": email},
	}, r))
}

// SuperAdminBootstrapped logs the startup promotion or creation of a SUPER_ADMIN.
func (l *Logger) SuperAdminBootstrapped(ctx context.Context, userID primitive.ObjectID, email string, created bool) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSuperAdminBootstrapped,
		UserID:    oidPtr(userID),
		Success:   true,
		Details:   map[string]string{"email": email, "created": strconv.FormatBool(created)},
	})
}

// --- Marketplace Events ---

// ProfileUpdated logs a profile edit.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, actorID string, userID primitive.ObjectID, fields int) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventProfileUpdated,
		UserID:    oidPtr(userID),
		ActorID:   hexPtr(actorID),
		Success:   true,
		Details:   map[string]string{"fields": strconv.Itoa(fields)},
	}, r))
}

// EventChanged logs an event create/update/delete. eventType is one of
// audit.EventEventCreated, EventEventUpdated, EventEventDeleted.
func (l *Logger) EventChanged(ctx context.Context, r *http.Request, eventType, actorID string, eventID primitive.ObjectID, title string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   hexPtr(actorID),
		Success:   true,
		Details:   map[string]string{"event_id": eventID.Hex(), "title": title},
	}, r))
}

// ApplicationCreated logs a new application.
func (l *Logger) ApplicationCreated(ctx context.Context, r *http.Request, comedianID, appID, eventID primitive.ObjectID) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventApplicationCreated,
		UserID:    oidPtr(comedianID),
		ActorID:   oidPtr(comedianID),
		Success:   true,
		Details:   map[string]string{"application_id": appID.Hex(), "event_id": eventID.Hex()},
	}, r))
}

// ApplicationStatusChanged logs an organizer decision.
func (l *Logger) ApplicationStatusChanged(ctx context.Context, r *http.Request, actorID string, comedianID, appID primitive.ObjectID, from, to string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventApplicationStatus,
		UserID:    oidPtr(comedianID),
		ActorID:   hexPtr(actorID),
		Success:   true,
		Details:   map[string]string{"application_id": appID.Hex(), "from": from, "to": to},
	}, r))
}

// ApplicationWithdrawn logs a deleted application.
func (l *Logger) ApplicationWithdrawn(ctx context.Context, r *http.Request, actorID string, comedianID, appID, eventID primitive.ObjectID) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventApplicationWithdrawn,
		UserID:    oidPtr(comedianID),
		ActorID:   hexPtr(actorID),
		Success:   true,
		Details:   map[string]string{"application_id": appID.Hex(), "event_id": eventID.Hex()},
	}, r))
}

// AbsenceMarked logs a created or updated absence.
func (l *Logger) AbsenceMarked(ctx context.Context, r *http.Request, organizerID string, comedianID, eventID primitive.ObjectID, created bool) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAbsenceMarked,
		UserID:    oidPtr(comedianID),
		ActorID:   hexPtr(organizerID),
		Success:   true,
		Details:   map[string]string{"event_id": eventID.Hex(), "created": strconv.FormatBool(created)},
	}, r))
}

// AbsenceUnmarked logs a removed absence.
func (l *Logger) AbsenceUnmarked(ctx context.Context, r *http.Request, organizerID string, comedianID, eventID primitive.ObjectID) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAbsenceUnmarked,
		UserID:    oidPtr(comedianID),
		ActorID:   hexPtr(organizerID),
		Success:   true,
		Details:   map[string]string{"event_id": eventID.Hex()},
	}, r))
}

// BatchRun logs a maintenance pass (absences sync, completed-event
// processing, participation reset, reminders). actorID is empty for
// scheduled runs; err marks the run as failed.
func (l *Logger) BatchRun(ctx context.Context, r *http.Request, eventType, actorID, runID string, details map[string]string, err error) {
	if details == nil {
		details = map[string]string{}
	}
	if runID != "" {
		details["run_id"] = runID
	}
	e := audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   hexPtr(actorID),
		Success:   err == nil,
		Details:   details,
	}
	if err != nil {
		e.FailureReason = err.Error()
	}
	l.Log(ctx, withRequest(e, r))
}
