package bootstrap

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "standup_connect",
		JWTSecret:     "a-long-production-secret-0123456789",
		EventTimezone: "Europe/Paris",
		AuditLogAuth:  "all",
		AuditLogAdmin: "db",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid", env: "dev", mutate: func(*AppConfig) {}},
		{name: "dev secret allowed outside prod", env: "dev", mutate: func(c *AppConfig) { c.JWTSecret = auth.DevSecret }},
		{name: "bad mongo uri", env: "dev", mutate: func(c *AppConfig) { c.MongoURI = "" }, wantErr: "MongoDB URI"},
		{name: "empty secret", env: "dev", mutate: func(c *AppConfig) { c.JWTSecret = "  " }, wantErr: "jwt_secret"},
		{name: "dev secret in prod", env: "prod", mutate: func(c *AppConfig) { c.JWTSecret = auth.DevSecret }, wantErr: "prod"},
		{name: "good schedules", env: "dev", mutate: func(c *AppConfig) {
			c.ReminderSchedule = "0 * * * *"
			c.ReconcileSchedule = "@daily"
		}},
		{name: "bad reminder schedule", env: "dev", mutate: func(c *AppConfig) { c.ReminderSchedule = "every hour" }, wantErr: "reminder_schedule"},
		{name: "bad audit mode", env: "dev", mutate: func(c *AppConfig) { c.AuditLogAdmin = "verbose" }, wantErr: "audit_log_admin"},
		{name: "unknown timezone", env: "dev", mutate: func(c *AppConfig) { c.EventTimezone = "Mars/Olympus" }, wantErr: "event_timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, zap.NewNop())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{"https://a.test, https://b.test ,", []string{"https://a.test", "https://b.test"}},
	}
	for _, tt := range tests {
		got := splitList(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestApplyTimeouts(t *testing.T) {
	timeouts.Reset()
	defer timeouts.Reset()

	cfg := validAppConfig()
	cfg.Timeouts = timeouts.Config{Medium: 3 * time.Second, Batch: 10 * time.Minute}
	applyTimeouts(cfg, zap.NewNop())

	if got := timeouts.Medium(); got != 3*time.Second {
		t.Errorf("Medium: got %v, want 3s", got)
	}
	if got := timeouts.Batch(); got != 10*time.Minute {
		t.Errorf("Batch: got %v, want 10m", got)
	}
	if got := timeouts.Short(); got != timeouts.DefaultShort {
		t.Errorf("Short: got %v, want default", got)
	}
}
