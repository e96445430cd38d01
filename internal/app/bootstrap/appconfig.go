// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging level and request limits.
// Everything the marketplace itself needs lives here and is passed to every
// lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// API tokens
	JWTSecret string
	JWTExpiry time.Duration

	// Allowed browser origins; ["*"] allows any.
	CORSOrigins []string

	// Email/SMTP configuration
	MailSMTPHost  string
	MailSMTPPort  int
	MailSMTPUser  string
	MailSMTPPass  string
	MailFrom      string
	MailFromName  string
	MailEnabled   bool // false logs messages instead of sending them
	MailWorkers   int
	MailQueueSize int

	FrontendURL   string // web app, used in email links and redirects
	BaseURL       string // this API, used in keep/withdraw links
	EventTimezone string // zone of event start_time values

	// Scheduled work
	CronSecret        string // guards /jobs/reminders; empty disables it
	ReminderSchedule  string // cron spec; empty disables the in-process job
	ReconcileSchedule string
	RespondLinkExpiry time.Duration

	// Audit logging ("all", "db", "log", "off")
	AuditLogAuth  string
	AuditLogAdmin string

	LoginRateLimit int // auth attempts per minute per IP; 0 disables

	SuperAdminEmail string

	// Deadlines for database, mail and background work
	Timeouts timeouts.Config
}
