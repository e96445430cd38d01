// Package lifecycle owns every multi-document change in the marketplace:
// application status transitions, withdrawals, event edits, absence
// marking and participation reconciliation. It is the only code that
// writes user stats counters.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	absencestore "github.com/dalemusser/standupconnect/internal/app/store/absences"
	appstore "github.com/dalemusser/standupconnect/internal/app/store/applications"
	eventstore "github.com/dalemusser/standupconnect/internal/app/store/events"
	userstore "github.com/dalemusser/standupconnect/internal/app/store/users"
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/mailer"
	"github.com/dalemusser/standupconnect/internal/app/system/txn"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrNotFound          = errors.New("application not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrAbsenceNotFound   = errors.New("absence not found")
	ErrForbidden         = errors.New("access denied")
	ErrInvalidStatus     = errors.New("invalid application status")
	ErrAlreadyApplied    = errors.New("you have already applied to this event")
	ErrWithdrawn         = errors.New("you withdrew from this event and cannot apply again")
	ErrNotParticipant    = errors.New("comedian is not a participant of this event")
	ErrConflict          = errors.New("application was changed by another request")
	ErrInvalidLink       = errors.New("invalid or expired link")
	ErrInvalidLinkAction = errors.New("action must be keep or withdraw")
)

// Notifier queues outgoing mail. *mailer.Async satisfies it.
type Notifier interface {
	Enqueue(kind string, e mailer.Email) bool
}

// Recorder receives domain counters. *metrics.Metrics satisfies it.
type Recorder interface {
	StatusTransition(from, to string)
	ReconcileRun(ok bool, credited int)
}

// Options carries the optional collaborators of a Service.
type Options struct {
	Mail        Notifier
	Metrics     Recorder
	Tokens      *auth.TokenManager
	FrontendURL string        // base of links to the web app
	BaseURL     string        // base of links back to this API
	RespondTTL  time.Duration // lifetime of keep/withdraw links
}

// Service coordinates the stores. Methods are safe for concurrent use.
type Service struct {
	users    *userstore.Store
	events   *eventstore.Store
	apps     *appstore.Store
	absences *absencestore.Store
	txn      *txn.Runner

	opts Options
	log  *zap.Logger
	now  func() time.Time

	pending sync.WaitGroup
}

func New(db *mongo.Database, runner *txn.Runner, opts Options, logger *zap.Logger) *Service {
	if opts.RespondTTL <= 0 {
		opts.RespondTTL = 7 * 24 * time.Hour
	}
	return &Service{
		users:    userstore.New(db),
		events:   eventstore.New(db),
		apps:     appstore.New(db),
		absences: absencestore.New(db),
		txn:      runner,
		opts:     opts,
		log:      logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source; tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Wait blocks until background notification work started by the service
// has finished.
func (s *Service) Wait() { s.pending.Wait() }

// Viewer is the authenticated caller of a read operation.
type Viewer struct {
	ID   primitive.ObjectID
	Role string
}

func (v Viewer) superAdmin() bool { return v.Role == models.RoleSuperAdmin }

func (s *Service) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txn == nil {
		return fn(ctx)
	}
	return s.txn.Run(ctx, fn)
}

func (s *Service) loadApplication(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	a, err := s.apps.GetByID(ctx, id)
	if errors.Is(err, appstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	return a, err
}

func (s *Service) loadEvent(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if errors.Is(err, eventstore.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	return e, err
}

// applyDelta writes a comedian counter change. A comedian whose account
// was deleted is skipped.
func (s *Service) applyDelta(ctx context.Context, comedianID, eventID primitive.ObjectID, d models.StatsDelta) error {
	err := s.users.ApplyEventDelta(ctx, comedianID, eventID, d)
	if errors.Is(err, userstore.ErrNotFound) {
		s.log.Warn("stats target user missing", zap.String("user_id", comedianID.Hex()))
		return nil
	}
	return err
}
