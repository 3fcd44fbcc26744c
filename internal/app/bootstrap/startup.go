// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"github.com/mealbridge/mealbridge/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Startup builds the services, bootstraps the admin account and starts the
// scheduler. It runs after EnsureSchema and before BuildHandler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Runtime == nil {
		return errors.New("startup: runtime not allocated")
	}
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n), zap.Any("timeouts", timeouts.Current()))
	}

	rt, err := buildRuntime(appCfg, deps.MongoDatabase, logger)
	if err != nil {
		return err
	}
	*deps.Runtime = *rt

	created, err := rt.Authn.EnsureAdmin(ctx, appCfg.AdminEmail, appCfg.AdminPassword, appCfg.AdminName)
	if err != nil {
		return err
	}
	if created {
		logger.Info("admin account created", zap.String("email", appCfg.AdminEmail))
	}

	if err := rt.schedule(appCfg, logger); err != nil {
		return err
	}
	rt.Scheduler.Start()
	return nil
}
