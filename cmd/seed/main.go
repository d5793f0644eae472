package main

import (
	"context"
	"fmt"
	"time"

	"smallbiznis-backoffice/internal/migrate"
	"smallbiznis-backoffice/pkg/config"
	"smallbiznis-backoffice/pkg/db"
	"smallbiznis-backoffice/pkg/gen"
	"smallbiznis-backoffice/pkg/identity"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/secret"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const devTokenTTL = 30 * 24 * time.Hour

type seedFile string

func main() {
	configPath := pflag.String("config", "", "path to config file (default ./config.yaml)")
	file := pflag.String("file", "seed.yaml", "path to the seed file")
	pflag.Parse()

	app := fx.New(
		fx.Supply(config.Path(*configPath), seedFile(*file)),
		secret.Module,
		config.Module,
		logger.Module,
		db.Module,
		gen.Module,
		fx.Invoke(run),
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		zap.L().Fatal("failed to build seed app", zap.Error(err))
	}
	if err := app.Start(context.Background()); err != nil {
		zap.L().Fatal("seed failed", zap.Error(err))
	}
	_ = app.Stop(context.Background())
}

func run(lc fx.Lifecycle, gdb *gorm.DB, node *snowflake.Node, cfg *config.Config, path seedFile) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			f, err := loadFile(string(path))
			if err != nil {
				return err
			}
			if err := migrate.Run(ctx, gdb); err != nil {
				return err
			}

			users, err := Seed(ctx, gdb, node, f, time.Now().UTC())
			if err != nil {
				return err
			}
			zap.L().Info("seeded account", zap.String("slug", f.Account.Slug), zap.Int("users", len(users)))

			if cfg.Auth.JWTSecret == "" {
				return nil
			}
			for _, u := range f.Users {
				token, err := identity.IssueToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, users[u.Email], devTokenTTL)
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\t%s\n", u.Email, u.Role, token)
			}
			return nil
		},
	})
}
