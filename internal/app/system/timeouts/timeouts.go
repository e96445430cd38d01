// Package timeouts centralizes the deadlines handlers and workers put on
// database and mail I/O.
//
// Call Configure once at startup; until then the defaults apply.
//
//   - Ping: health checks
//   - Short: single-document reads (get event, get user by email)
//   - Medium: list queries and single-collection writes
//   - Long: writes touching several collections (status transitions, event deletes)
//   - Batch: reconciliation and reminder sweeps
//   - Mail: one SMTP conversation
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used when Configure is not called.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 2 * time.Minute
	DefaultMail   = 20 * time.Second
)

// Config holds timeout values. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
	Mail   time.Duration
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
		Mail:   DefaultMail,
	}
}

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(cur)
}

// Ping is the deadline for health checks.
func Ping() time.Duration { return get(func(c Config) time.Duration { return c.Ping }) }

// Short is the deadline for single-document reads.
func Short() time.Duration { return get(func(c Config) time.Duration { return c.Short }) }

// Medium is the deadline for list queries and simple writes.
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }

// Long is the deadline for multi-collection writes.
func Long() time.Duration { return get(func(c Config) time.Duration { return c.Long }) }

// Batch is the deadline for background sweeps.
func Batch() time.Duration { return get(func(c Config) time.Duration { return c.Batch }) }

// Mail is the deadline for sending one email.
func Mail() time.Duration { return get(func(c Config) time.Duration { return c.Mail }) }

// Configure overrides the non-zero fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&cur.Ping, cfg.Ping)
	set(&cur.Short, cfg.Short)
	set(&cur.Medium, cfg.Medium)
	set(&cur.Long, cfg.Long)
	set(&cur.Batch, cfg.Batch)
	set(&cur.Mail, cfg.Mail)
}

// Reset restores the defaults. Tests use it to undo Configure.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns a snapshot of the active values.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout wraps context.WithTimeout and logs a warning from the returned
// cancel func when the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Batch(), log, "process completed events")
//	defer cancel()
func WithTimeout(parent context.Context, d time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", d))
		}
		cancel()
	}
}
