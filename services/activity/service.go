package activity

import (
	"context"
	"encoding/json"

	"smallbiznis-backoffice/pkg/db/option"
	"smallbiznis-backoffice/pkg/db/pagination"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recorder writes the audit trail. Recording is best effort: failures are
// logged and never returned.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

type Service struct {
	node *snowflake.Node
	repo repository.Repository[Log]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		node: p.Node,
		repo: repository.ProvideStore[Log](p.DB),
	}
}

func (s *Service) Record(ctx context.Context, e Entry) {
	zapLog := logger.FromContext(ctx).With(
		zap.String("account_id", e.AccountID),
		zap.String("action", e.Action),
	)

	var meta datatypes.JSON
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			zapLog.Warn("failed to encode activity metadata", zap.Error(err))
		} else {
			meta = datatypes.JSON(b)
		}
	}

	if err := s.repo.Create(ctx, &Log{
		ID:         s.node.Generate().String(),
		AccountID:  e.AccountID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Metadata:   meta,
	}); err != nil {
		zapLog.Warn("failed to record activity", zap.Error(err))
	}
}

// List returns the newest entries of an account first.
func (s *Service) List(ctx context.Context, accountID string, p pagination.Pagination) ([]*Log, error) {
	logs, err := s.repo.Find(ctx, &Log{AccountID: accountID},
		option.ApplyOrder("created_at DESC, id DESC"),
		option.ApplyPagination(p),
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list activity", zap.String("account_id", accountID), zap.Error(err))
		return nil, errutil.Internal("failed to list activity", err)
	}
	return logs, nil
}
