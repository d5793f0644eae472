package asset

import (
	"context"
	"strings"

	"smallbiznis-backoffice/internal/guard"
	"smallbiznis-backoffice/pkg/db/option"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/identity"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/permission"
	"smallbiznis-backoffice/pkg/rediskey"
	"smallbiznis-backoffice/pkg/result"
	"smallbiznis-backoffice/services/activity"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MsgUserNotMember    = "User is not a member of this team"
	MsgAssetsNotFound   = "Some assets could not be found"
	MsgAssetNotFound    = "Asset not found"
	MsgAssetNotAssigned = "This asset is not assigned"
	MsgAssetsChanged    = "Some assets changed while assigning. Please try again."
)

func alreadyAssignedMessage(names []string) string {
	return "Already assigned: " + strings.Join(names, ", ")
}

func (s *Service) record(ctx context.Context, scope guard.Scope, action, entityID string, meta map[string]any) {
	s.activity.Record(ctx, activity.Entry{
		AccountID:  scope.AccountID,
		ActorID:    scope.UserID,
		Action:     action,
		EntityType: "asset",
		EntityID:   entityID,
		Metadata:   meta,
	})
}

// AssignAssetsToUser hands every requested asset to one member. Nothing is
// written unless all assets exist and are available.
func (s *Service) AssignAssetsToUser(ctx context.Context, sess identity.Session, in AssignAssetsInput) (result.Result[[]*Asset], error) {
	parsed := ParseAssignAssets(in)
	if !parsed.OK() {
		return result.Invalid[[]*Asset](parsed.Errors), nil
	}
	in = parsed.Value

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.AssetsAssign)
	if err != nil {
		return result.From[[]*Asset](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID), zap.String("user_id", in.UserID))
	failed := result.Fail[[]*Asset]("Failed to assign assets")

	var members int64
	err = s.db.WithContext(ctx).Table("memberships").
		Where("account_id = ? AND user_id = ?", scope.AccountID, in.UserID).
		Count(&members).Error
	if err != nil {
		zapLog.Error("failed to check membership", zap.Error(err))
		return failed, nil
	}
	if members == 0 {
		return result.Fail[[]*Asset](MsgUserNotMember), nil
	}

	now := s.now().UTC()
	var assigned []*Asset
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.assets.WithTrx(tx)
		found, err := repo.Find(ctx, &Asset{AccountID: scope.AccountID}, option.ApplyIn("id", in.AssetIDs))
		if err != nil {
			return err
		}
		if len(found) != len(in.AssetIDs) {
			return errutil.NotFound(MsgAssetsNotFound, nil)
		}

		byID := make(map[string]*Asset, len(found))
		for _, a := range found {
			byID[a.ID] = a
		}
		var taken []string
		for _, id := range in.AssetIDs {
			if a := byID[id]; a.Status != StatusAvailable {
				taken = append(taken, a.Name)
			}
		}
		if len(taken) > 0 {
			return errutil.Conflict(alreadyAssignedMessage(taken), nil)
		}

		res := tx.Model(&Asset{}).
			Where("account_id = ? AND status = ?", scope.AccountID, StatusAvailable).
			Where("id IN ?", in.AssetIDs).
			Updates(map[string]any{
				"status":      StatusAssigned,
				"assigned_to": in.UserID,
				"assigned_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		// a concurrent assignment won the race for at least one asset
		if res.RowsAffected != int64(len(in.AssetIDs)) {
			return errutil.Conflict(MsgAssetsChanged, nil)
		}

		assigned = make([]*Asset, 0, len(in.AssetIDs))
		for _, id := range in.AssetIDs {
			a := byID[id]
			a.Status = StatusAssigned
			a.AssignedTo = &in.UserID
			a.AssignedAt = &now
			assigned = append(assigned, a)
		}
		return nil
	})
	if err != nil {
		if _, ok := errutil.As(err); ok {
			return result.From[[]*Asset](err)
		}
		zapLog.Error("failed to assign assets", zap.Error(err))
		return failed, nil
	}

	for _, a := range assigned {
		s.record(ctx, scope, "asset.assigned", a.ID, map[string]any{"name": a.Name, "user_id": in.UserID})
	}
	s.invalidator.Paths(ctx,
		rediskey.AssetsPath(scope.AccountSlug),
		rediskey.MemberPath(scope.AccountSlug, in.UserID),
		rediskey.MembersPath(scope.AccountSlug),
	)

	return result.OK(assigned, "Assets assigned"), nil
}

func (s *Service) UnassignAsset(ctx context.Context, sess identity.Session, in UnassignAssetInput) (result.Result[*Asset], error) {
	parsed := ParseUnassignAsset(in)
	if !parsed.OK() {
		return result.Invalid[*Asset](parsed.Errors), nil
	}
	in = parsed.Value

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.AssetsAssign)
	if err != nil {
		return result.From[*Asset](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("asset_id", in.AssetID))
	failed := result.Fail[*Asset]("Failed to unassign asset")

	a, err := s.assets.FindOne(ctx, &Asset{ID: in.AssetID, AccountID: scope.AccountID})
	if err != nil {
		zapLog.Error("failed to load asset", zap.Error(err))
		return failed, nil
	}
	if a == nil {
		return result.Fail[*Asset](MsgAssetNotFound), nil
	}
	if a.Status != StatusAssigned || a.AssignedTo == nil {
		return result.Fail[*Asset](MsgAssetNotAssigned), nil
	}
	previous := *a.AssignedTo

	err = s.assets.Update(ctx, a.ID, map[string]any{
		"status":      StatusAvailable,
		"assigned_to": nil,
		"assigned_at": nil,
	})
	if err != nil {
		zapLog.Error("failed to unassign asset", zap.Error(err))
		return failed, nil
	}
	a.Status = StatusAvailable
	a.AssignedTo = nil
	a.AssignedAt = nil

	s.record(ctx, scope, "asset.unassigned", a.ID, map[string]any{"name": a.Name, "user_id": previous})
	s.invalidator.Paths(ctx,
		rediskey.AssetsPath(scope.AccountSlug),
		rediskey.MemberPath(scope.AccountSlug, previous),
		rediskey.MembersPath(scope.AccountSlug),
	)

	return result.OK(a, "Asset unassigned"), nil
}
