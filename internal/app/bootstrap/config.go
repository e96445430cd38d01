// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/standupconnect/internal/app/system/auditlog"
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/dalemusser/standupconnect/internal/app/system/timezones"
	"github.com/dalemusser/standupconnect/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys are read from config files (mongo_uri), environment
// variables (STANDUP_MONGO_URI) and flags (--mongo_uri).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "standup_connect", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "jwt_secret", Default: auth.DevSecret, Desc: "HMAC secret for API tokens (override in production)"},
	{Name: "jwt_expiry", Default: "24h", Desc: "Lifetime of issued API tokens"},

	{Name: "cors_origins", Default: "*", Desc: "Comma-separated allowed origins"},

	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@standupconnect.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "StandUp Connect", Desc: "From display name"},
	{Name: "mail_enabled", Default: true, Desc: "Send email over SMTP (false logs instead)"},
	{Name: "mail_workers", Default: 2, Desc: "Concurrent mail deliveries"},
	{Name: "mail_queue_size", Default: 256, Desc: "Queued mails before new ones are dropped"},

	{Name: "frontend_url", Default: "http://localhost:3000", Desc: "Web app base URL for links and redirects"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL of this API"},
	{Name: "event_timezone", Default: "Europe/Paris", Desc: "IANA zone of event start times"},

	{Name: "cron_secret", Default: "", Desc: "Shared secret for /jobs/reminders (empty disables)"},
	{Name: "reminder_schedule", Default: "", Desc: "Cron spec for reminders (empty disables)"},
	{Name: "reconcile_schedule", Default: "", Desc: "Cron spec for completed-event processing (empty disables)"},
	{Name: "respond_link_expiry", Default: "168h", Desc: "Lifetime of keep/withdraw email links"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth events: all, db, log, off"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin events: all, db, log, off"},

	{Name: "login_rate_limit", Default: 10, Desc: "Login and register attempts per minute per IP (0 disables)"},

	{Name: "superadmin_email", Default: "", Desc: "Email promoted to SUPER_ADMIN at startup"},

	{Name: "timeout_ping", Default: "2s", Desc: "Deadline for database pings"},
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list queries and simple writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for multi-collection writes"},
	{Name: "timeout_batch", Default: "2m", Desc: "Deadline for one scheduled job run"},
	{Name: "timeout_mail", Default: "20s", Desc: "Deadline for one SMTP delivery"},
}

// LoadConfig loads WAFFLE core config and the app keys above.
// Precedence is flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STANDUP", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTExpiry: appValues.Duration("jwt_expiry", 24*time.Hour),

		CORSOrigins: splitList(appValues.String("cors_origins")),

		MailSMTPHost:  appValues.String("mail_smtp_host"),
		MailSMTPPort:  appValues.Int("mail_smtp_port"),
		MailSMTPUser:  appValues.String("mail_smtp_user"),
		MailSMTPPass:  appValues.String("mail_smtp_pass"),
		MailFrom:      appValues.String("mail_from"),
		MailFromName:  appValues.String("mail_from_name"),
		MailEnabled:   appValues.Bool("mail_enabled"),
		MailWorkers:   appValues.Int("mail_workers"),
		MailQueueSize: appValues.Int("mail_queue_size"),

		FrontendURL:   strings.TrimRight(appValues.String("frontend_url"), "/"),
		BaseURL:       strings.TrimRight(appValues.String("base_url"), "/"),
		EventTimezone: appValues.String("event_timezone"),

		CronSecret:        appValues.String("cron_secret"),
		ReminderSchedule:  strings.TrimSpace(appValues.String("reminder_schedule")),
		ReconcileSchedule: strings.TrimSpace(appValues.String("reconcile_schedule")),
		RespondLinkExpiry: appValues.Duration("respond_link_expiry", 7*24*time.Hour),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		LoginRateLimit: appValues.Int("login_rate_limit"),

		SuperAdminEmail: appValues.String("superadmin_email"),

		Timeouts: timeouts.Config{
			Ping:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
			Short:  appValues.Duration("timeout_short", timeouts.DefaultShort),
			Medium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
			Long:   appValues.Duration("timeout_long", timeouts.DefaultLong),
			Batch:  appValues.Duration("timeout_batch", timeouts.DefaultBatch),
			Mail:   appValues.Duration("timeout_mail", timeouts.DefaultMail),
		},
	}

	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// ValidateConfig rejects configurations that would fail later at runtime or
// that are unsafe in production.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if strings.TrimSpace(appCfg.JWTSecret) == "" {
		return errors.New("jwt_secret must not be empty")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.JWTSecret == auth.DevSecret {
		return errors.New("jwt_secret must be overridden in prod")
	}

	for name, spec := range map[string]string{
		"reminder_schedule":  appCfg.ReminderSchedule,
		"reconcile_schedule": appCfg.ReconcileSchedule,
	} {
		if spec == "" {
			continue
		}
		if err := workers.ValidSpec(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	for name, mode := range map[string]string{
		"audit_log_auth":  appCfg.AuditLogAuth,
		"audit_log_admin": appCfg.AuditLogAdmin,
	} {
		if !auditlog.ValidMode(mode) {
			return fmt.Errorf("%s: unknown mode %q (want all, db, log or off)", name, mode)
		}
	}

	if _, err := timezones.Location(appCfg.EventTimezone); err != nil {
		return fmt.Errorf("event_timezone: %w", err)
	}

	return nil
}

// applyTimeouts installs the configured deadlines process-wide.
func applyTimeouts(appCfg AppConfig, logger *zap.Logger) {
	timeouts.Configure(appCfg.Timeouts)
	cur := timeouts.Current()
	logger.Info("timeouts configured",
		zap.Duration("ping", cur.Ping),
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long),
		zap.Duration("batch", cur.Batch),
		zap.Duration("mail", cur.Mail))
}
