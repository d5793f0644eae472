package migrate

import (
	"context"
	"fmt"

	"smallbiznis-backoffice/pkg/config"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/services/account"
	"smallbiznis-backoffice/services/activity"
	"smallbiznis-backoffice/services/asset"
	"smallbiznis-backoffice/services/license"
	"smallbiznis-backoffice/services/member"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrate", fx.Invoke(runOnStart))

// Models lists every table the backoffice owns, parents first.
func Models() []any {
	return []any{
		&account.Account{},
		&member.User{},
		&member.Profile{},
		&member.Membership{},
		&member.AccountStatus{},
		&member.Invitation{},
		&asset.Asset{},
		&license.License{},
		&license.Assignment{},
		&license.RenewalAlert{},
		&activity.Log{},
	}
}

func Run(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.FromContext(ctx).Info("[DB] schema is up to date", zap.Int("tables", len(Models())))
	return nil
}

func runOnStart(lc fx.Lifecycle, db *gorm.DB, cfg *config.Config) {
	if !cfg.Database.AutoMigrate {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return Run(ctx, db)
		},
	})
}
