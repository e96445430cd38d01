// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"strconv"
	"time"

	"github.com/dalemusser/standupconnect/internal/app/lifecycle"
	"github.com/dalemusser/standupconnect/internal/app/reminders"
	"github.com/dalemusser/standupconnect/internal/app/store/audit"
	"github.com/dalemusser/standupconnect/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Job is a named unit of scheduled work. Spec is a cron expression
// (five fields or a descriptor such as "@every 15m").
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// ReminderRunner is satisfied by *reminders.Runner.
type ReminderRunner interface {
	Run(ctx context.Context, now time.Time) (reminders.Result, error)
}

// CompletedEventsProcessor is satisfied by *lifecycle.Service.
type CompletedEventsProcessor interface {
	ProcessCompletedEvents(ctx context.Context, now time.Time) (lifecycle.ReconcileResult, error)
}

// RemindersJob sends due J-3, J-1 and -2H reminders.
func RemindersJob(runner ReminderRunner, auditLog *auditlog.Logger, logger *zap.Logger, spec string) Job {
	return Job{
		Name: "reminders",
		Spec: spec,
		Run: func(ctx context.Context) error {
			res, err := runner.Run(ctx, time.Now().UTC())
			auditLog.BatchRun(ctx, nil, audit.EventRemindersRun, "", res.RunID, map[string]string{
				"j3": strconv.Itoa(res.J3),
				"j1": strconv.Itoa(res.J1),
				"h2": strconv.Itoa(res.H2),
			}, err)
			if err != nil {
				return err
			}
			if sent := res.J3 + res.J1 + res.H2; sent > 0 {
				logger.Info("reminders sent", zap.String("run_id", res.RunID), zap.Int("count", sent))
			}
			return nil
		},
	}
}

// CompletedEventsJob credits participations for events that have ended.
func CompletedEventsJob(proc CompletedEventsProcessor, auditLog *auditlog.Logger, logger *zap.Logger, spec string) Job {
	return Job{
		Name: "completed-events",
		Spec: spec,
		Run: func(ctx context.Context) error {
			res, err := proc.ProcessCompletedEvents(ctx, time.Now().UTC())
			auditLog.BatchRun(ctx, nil, audit.EventCompletedEventsRun, "", res.RunID, map[string]string{
				"events":         strconv.Itoa(res.EventsProcessed),
				"participations": strconv.Itoa(res.ParticipationsAdded),
			}, err)
			if err != nil {
				return err
			}
			logger.Debug("completed events processed",
				zap.String("run_id", res.RunID),
				zap.Int("participations", res.ParticipationsAdded))
			return nil
		},
	}
}
