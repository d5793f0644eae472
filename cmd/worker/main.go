package main

import (
	"smallbiznis-backoffice/pkg/config"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/mailer"
	"smallbiznis-backoffice/pkg/otelcol"
	"smallbiznis-backoffice/pkg/profiling"
	"smallbiznis-backoffice/pkg/secret"
	"smallbiznis-backoffice/pkg/task"
	"smallbiznis-backoffice/services/mail"

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
		mailer.Module,
		task.Server,
		mail.Worker,
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
