// internal/app/system/workers/scheduler.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/standupconnect/internal/app/system/tasks"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs tasks.Jobs on their cron schedules. A job that is still
// running when its next tick arrives is skipped for that tick.
type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration
	jobs    int
}

// NewScheduler creates a scheduler whose job runs are bounded by timeout
// and evaluated in loc.
func NewScheduler(logger *zap.Logger, loc *time.Location, timeout time.Duration) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:     logger,
		timeout: timeout,
	}
}

// Add registers job. A job with an empty Spec is disabled and ignored.
func (s *Scheduler) Add(job tasks.Job) error {
	if job.Spec == "" {
		s.log.Info("scheduled job disabled", zap.String("job", job.Name))
		return nil
	}
	_, err := s.cron.AddFunc(job.Spec, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name, err)
	}
	s.jobs++
	s.log.Info("scheduled job registered", zap.String("job", job.Name), zap.String("spec", job.Spec))
	return nil
}

// Len reports how many jobs are registered.
func (s *Scheduler) Len() int { return s.jobs }

func (s *Scheduler) run(job tasks.Job) {
	ctx, cancel := timeouts.WithTimeout(context.Background(), s.timeout, s.log, job.Name)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error("scheduled job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	s.log.Debug("scheduled job finished", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
}

// Start begins the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", s.jobs))
}

// Stop halts the schedule and waits for running jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with jobs still running")
	}
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// ValidSpec reports whether spec parses as a schedule Add would accept.
func ValidSpec(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}
