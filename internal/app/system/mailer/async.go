// internal/app/system/mailer/async.go
package mailer

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Outcome labels reported to the Observer.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

// Observer is notified of every message outcome. *metrics.Metrics satisfies it.
type Observer interface {
	Email(kind, outcome string)
}

type job struct {
	kind  string
	email Email
}

// Async sends email on a fixed pool of workers fed by a bounded queue.
// Enqueue never blocks; when the queue is full the message is dropped and
// logged. Failures are logged, never returned to the caller.
type Async struct {
	sender Sender
	log    *zap.Logger
	obs    Observer

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

// NewAsync starts workers goroutines draining a queue of size queueSize.
func NewAsync(sender Sender, logger *zap.Logger, obs Observer, workers, queueSize int) *Async {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	a := &Async{
		sender: sender,
		log:    logger,
		obs:    obs,
		queue:  make(chan job, queueSize),
	}
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go a.work()
	}
	return a
}

func (a *Async) work() {
	defer a.wg.Done()
	for j := range a.queue {
		a.deliver(j)
	}
}

func (a *Async) deliver(j job) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("mail sender panicked", zap.String("kind", j.kind), zap.Any("panic", r))
			a.observe(j.kind, OutcomeFailed)
		}
	}()
	if err := a.sender.Send(j.email); err != nil {
		a.log.Warn("email send failed",
			zap.String("kind", j.kind),
			zap.String("to", j.email.To),
			zap.Error(err))
		a.observe(j.kind, OutcomeFailed)
		return
	}
	a.observe(j.kind, OutcomeSent)
}

func (a *Async) observe(kind, outcome string) {
	if a.obs != nil {
		a.obs.Email(kind, outcome)
	}
}

// Enqueue schedules e for delivery and reports whether it was accepted.
func (a *Async) Enqueue(kind string, e Email) bool {
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.observe(kind, OutcomeDropped)
		return false
	}
	select {
	case a.queue <- job{kind: kind, email: e}:
		return true
	default:
		a.log.Warn("email queue full; dropping message",
			zap.String("kind", kind),
			zap.String("to", e.To))
		a.observe(kind, OutcomeDropped)
		return false
	}
}

// Send delivers e synchronously on the caller's goroutine, bypassing the
// queue. Used by the admin send endpoint, which reports the SMTP result.
func (a *Async) Send(kind string, e Email) error {
	err := a.sender.Send(e)
	if err != nil {
		a.observe(kind, OutcomeFailed)
		return err
	}
	a.observe(kind, OutcomeSent)
	return nil
}

// Shutdown stops accepting messages and waits for queued ones to be sent
// or for ctx to end, whichever comes first.
func (a *Async) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		a.log.Warn("mail queue drain interrupted", zap.Int("pending", len(a.queue)))
		return ctx.Err()
	}
}
