// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, drains queued mail, then disconnects
// MongoDB. Mail still queued when ctx ends is dropped and logged.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if s := deps.svc; s != nil {
		if s.scheduler != nil {
			s.scheduler.Stop(ctx)
		}
		if s.lifecycle != nil {
			s.lifecycle.Wait()
		}
		if s.mail != nil {
			if err := s.mail.Shutdown(ctx); err != nil {
				logger.Warn("mail queue not drained", zap.Error(err))
			}
		}
		if s.limiter != nil {
			s.limiter.Stop()
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
