package main

import (
	"smallbiznis-backoffice/internal/guard"
	"smallbiznis-backoffice/internal/httpapi"
	"smallbiznis-backoffice/internal/migrate"
	"smallbiznis-backoffice/pkg/config"
	"smallbiznis-backoffice/pkg/db"
	"smallbiznis-backoffice/pkg/discovery"
	"smallbiznis-backoffice/pkg/featureflags"
	"smallbiznis-backoffice/pkg/gen"
	"smallbiznis-backoffice/pkg/health"
	"smallbiznis-backoffice/pkg/identity"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/minio"
	"smallbiznis-backoffice/pkg/otelcol"
	"smallbiznis-backoffice/pkg/permission"
	"smallbiznis-backoffice/pkg/profiling"
	"smallbiznis-backoffice/pkg/redis"
	"smallbiznis-backoffice/pkg/revalidate"
	"smallbiznis-backoffice/pkg/secret"
	"smallbiznis-backoffice/pkg/server"
	"smallbiznis-backoffice/pkg/task"
	"smallbiznis-backoffice/services/account"
	"smallbiznis-backoffice/services/activity"
	"smallbiznis-backoffice/services/asset"
	"smallbiznis-backoffice/services/license"
	"smallbiznis-backoffice/services/member"

	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	configPath := pflag.String("config", "", "path to config file (default ./config.yaml)")
	pflag.Parse()

	app := fx.New(
		fx.Supply(config.Path(*configPath)),
		secret.Module,
		config.Module,
		logger.Module,
		otelcol.Module,
		profiling.Module,
		db.Module,
		migrate.Module,
		redis.Module,
		gen.Module,
		health.Module,
		identity.Module,
		permission.Module,
		revalidate.Module,
		featureflags.Module,
		task.Client,
		minio.Client,
		guard.Module,
		account.Module,
		activity.Server,
		license.Server,
		member.Server,
		asset.Server,
		httpapi.Module,
		server.ProvideHTTPServer,
		discovery.Module,
		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, log *zap.Logger) fxevent.Logger {
	if cfg.AppEnv == "production" {
		return fxevent.NopLogger
	}
	return &fxevent.ZapLogger{Logger: log}
})
