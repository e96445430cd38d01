// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/standupconnect/internal/app/lifecycle"
	"github.com/dalemusser/standupconnect/internal/app/reminders"
	"github.com/dalemusser/standupconnect/internal/app/store/audit"
	userstore "github.com/dalemusser/standupconnect/internal/app/store/users"
	"github.com/dalemusser/standupconnect/internal/app/system/auditlog"
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/authutil"
	"github.com/dalemusser/standupconnect/internal/app/system/mailer"
	"github.com/dalemusser/standupconnect/internal/app/system/metrics"
	"github.com/dalemusser/standupconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/standupconnect/internal/app/system/tasks"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/dalemusser/standupconnect/internal/app/system/timezones"
	"github.com/dalemusser/standupconnect/internal/app/system/txn"
	"github.com/dalemusser/standupconnect/internal/app/system/workers"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are the long-lived collaborators shared by BuildHandler and
// Shutdown.
type services struct {
	tokens    *auth.TokenManager
	audit     *auditlog.Logger
	metrics   *metrics.Metrics
	txn       *txn.Runner
	mail      *mailer.Async
	limiter   *ratelimit.LoginLimiter // nil when rate limiting is disabled
	lifecycle *lifecycle.Service
	reminders *reminders.Runner
	scheduler *workers.Scheduler
}

// Startup builds the services, bootstraps the super admin and starts the
// cron scheduler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.svc == nil {
		return errors.New("startup: ConnectDB did not allocate services")
	}
	s := deps.svc
	db := deps.MongoDatabase

	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTExpiry, appName, logger)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}
	s.tokens = tokens

	loc, err := timezones.Location(appCfg.EventTimezone)
	if err != nil {
		return err
	}

	s.audit = auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	s.metrics = metrics.New()

	var sender mailer.Sender = mailer.LogSender{Log: logger}
	if appCfg.MailEnabled {
		sender = mailer.New(mailer.Config{
			Host:     appCfg.MailSMTPHost,
			Port:     appCfg.MailSMTPPort,
			User:     appCfg.MailSMTPUser,
			Pass:     appCfg.MailSMTPPass,
			From:     appCfg.MailFrom,
			FromName: appCfg.MailFromName,
			Timeout:  timeouts.Mail(),
		}, logger)
	} else {
		logger.Info("mail disabled; messages will be logged")
	}
	s.mail = mailer.NewAsync(sender, logger, s.metrics, appCfg.MailWorkers, appCfg.MailQueueSize)

	if appCfg.LoginRateLimit > 0 {
		s.limiter = ratelimit.NewLoginLimiter(appCfg.LoginRateLimit)
	}

	s.txn = txn.New(deps.MongoClient, logger)
	s.lifecycle = lifecycle.New(db, s.txn, lifecycle.Options{
		Mail:        s.mail,
		Metrics:     s.metrics,
		Tokens:      tokens,
		FrontendURL: appCfg.FrontendURL,
		BaseURL:     appCfg.BaseURL,
		RespondTTL:  appCfg.RespondLinkExpiry,
	}, logger)

	s.reminders = reminders.New(db, reminders.Options{
		Mail:        s.mail,
		Metrics:     s.metrics,
		Location:    loc,
		FrontendURL: appCfg.FrontendURL,
	}, logger)

	if appCfg.SuperAdminEmail != "" {
		adminCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		err := ensureSuperAdmin(adminCtx, userstore.New(db), s.audit, appCfg.SuperAdminEmail, logger)
		cancel()
		if err != nil {
			return fmt.Errorf("ensure super admin: %w", err)
		}
	}

	s.scheduler = workers.NewScheduler(logger, loc, timeouts.Batch())
	for _, job := range []tasks.Job{
		tasks.RemindersJob(s.reminders, s.audit, logger, appCfg.ReminderSchedule),
		tasks.CompletedEventsJob(s.lifecycle, s.audit, logger, appCfg.ReconcileSchedule),
	} {
		if err := s.scheduler.Add(job); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name, err)
		}
	}
	s.scheduler.Start()

	return nil
}

// ensureSuperAdmin makes email a SUPER_ADMIN. A missing account is created
// with a random password that is logged once; an existing one is promoted.
func ensureSuperAdmin(ctx context.Context, users *userstore.Store, audit *auditlog.Logger, email string, logger *zap.Logger) error {
	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleSuperAdmin {
			logger.Debug("super admin already present", zap.String("email", existing.Email))
			return nil
		}
		if err := users.SetRole(ctx, existing.ID, models.RoleSuperAdmin); err != nil {
			return err
		}
		logger.Info("promoted user to SUPER_ADMIN",
			zap.String("email", existing.Email),
			zap.String("previous_role", existing.Role))
		audit.SuperAdminBootstrapped(ctx, existing.ID, existing.Email, false)
		return nil

	case !errors.Is(err, userstore.ErrNotFound):
		return err
	}

	password, err := authutil.RandomPassword()
	if err != nil {
		return err
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return err
	}
	u, err := users.Create(ctx, models.User{
		Email:               email,
		PasswordHash:        hash,
		FirstName:           "Super",
		LastName:            "Admin",
		Role:                models.RoleSuperAdmin,
		OnboardingCompleted: true,
	})
	if err != nil {
		return err
	}
	logger.Warn("created SUPER_ADMIN; change this password after first login",
		zap.String("email", u.Email),
		zap.String("password", password))
	audit.SuperAdminBootstrapped(ctx, u.ID, u.Email, true)
	return nil
}
