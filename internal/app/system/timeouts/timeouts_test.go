package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaults(t *testing.T) {
	timeouts.Reset()

	if got := timeouts.Short(); got != timeouts.DefaultShort {
		t.Errorf("Short: got %v, want %v", got, timeouts.DefaultShort)
	}
	if got := timeouts.Batch(); got != timeouts.DefaultBatch {
		t.Errorf("Batch: got %v, want %v", got, timeouts.DefaultBatch)
	}
	if got := timeouts.Mail(); got != timeouts.DefaultMail {
		t.Errorf("Mail: got %v, want %v", got, timeouts.DefaultMail)
	}
}

func TestConfigure_IgnoresZero(t *testing.T) {
	timeouts.Reset()
	defer timeouts.Reset()

	timeouts.Configure(timeouts.Config{Long: 45 * time.Second})

	if got := timeouts.Long(); got != 45*time.Second {
		t.Errorf("Long: got %v, want 45s", got)
	}
	if got := timeouts.Medium(); got != timeouts.DefaultMedium {
		t.Errorf("Medium should keep default: got %v", got)
	}
}

func TestReset(t *testing.T) {
	timeouts.Configure(timeouts.Config{Ping: time.Minute})
	timeouts.Reset()

	if got := timeouts.Ping(); got != timeouts.DefaultPing {
		t.Errorf("Ping after Reset: got %v, want %v", got, timeouts.DefaultPing)
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, log, "reminders")
	<-ctx.Done()
	cancel()
	if logs.FilterMessage("operation timed out").FilterField(zap.String("operation", "reminders")).Len() != 1 {
		t.Errorf("expected one timeout warning, got %v", logs.All())
	}

	_, cancel = timeouts.WithTimeout(context.Background(), time.Minute, log, "quick")
	cancel()
	if logs.Len() != 1 {
		t.Errorf("cancel before the deadline logged: %v", logs.All())
	}
}
