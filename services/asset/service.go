package asset

import (
	"context"
	"time"

	"smallbiznis-backoffice/internal/guard"
	"smallbiznis-backoffice/pkg/db/option"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/repository"
	"smallbiznis-backoffice/pkg/revalidate"
	"smallbiznis-backoffice/services/activity"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db          *gorm.DB
	guard       *guard.Guard
	activity    activity.Recorder
	invalidator revalidate.Invalidator
	now         func() time.Time

	assets repository.Repository[Asset]
}

type ServiceParams struct {
	fx.In
	DB          *gorm.DB
	Guard       *guard.Guard
	Activity    activity.Recorder
	Invalidator revalidate.Invalidator
	Now         func() time.Time `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		db:          p.DB,
		guard:       p.Guard,
		activity:    p.Activity,
		invalidator: p.Invalidator,
		now:         now,
		assets:      repository.ProvideStore[Asset](p.DB),
	}
}

// LoadAssets lists the account's assets by name. availableOnly narrows the
// list to assets that can still be handed out.
func (s *Service) LoadAssets(ctx context.Context, slug string, availableOnly bool) ([]*Asset, error) {
	accountID, err := s.guard.Account(ctx, slug)
	if err != nil {
		return nil, err
	}

	query := &Asset{AccountID: accountID}
	if availableOnly {
		query.Status = StatusAvailable
	}

	assets, err := s.assets.Find(ctx, query, option.ApplyOrder("name, id"))
	if err != nil {
		logger.FromContext(ctx).Error("failed to list assets", zap.String("account_id", accountID), zap.Error(err))
		return nil, errutil.Internal("failed to list assets", err)
	}
	return assets, nil
}
