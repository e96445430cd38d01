// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports one, and sequentially when it does not (standalone
// mongod in development).
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner executes units of work. The zero value is not usable; use New.
type Runner struct {
	client      *mongo.Client
	log         *zap.Logger
	unsupported atomic.Bool
}

// New returns a Runner bound to client.
func New(client *mongo.Client, logger *zap.Logger) *Runner {
	return &Runner{client: client, log: logger}
}

// Run executes fn inside a transaction. fn must use the context it is
// given so its operations join the session.
//
// Once the server reports that transactions are unavailable, the Runner
// stops trying and calls fn directly for the rest of the process lifetime.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.unsupported.Load() {
		return fn(ctx)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			r.markUnsupported(err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		r.markUnsupported(err)
		return fn(ctx)
	}
	return err
}

// Transactional reports whether the Runner still attempts transactions.
func (r *Runner) Transactional() bool { return !r.unsupported.Load() }

func (r *Runner) markUnsupported(err error) {
	if r.unsupported.CompareAndSwap(false, true) && r.log != nil {
		r.log.Warn("mongo transactions unavailable; multi-document writes run sequentially",
			zap.Error(err))
	}
}

// IsNotSupported reports whether err means the server cannot run
// transactions (standalone server, or an operation illegal in a transaction).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation, ..., OperationNotSupportedInTransaction
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }
	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("transaction") && has("session"):
		return true
	case has("illegal operation"):
		return true
	}
	return false
}
