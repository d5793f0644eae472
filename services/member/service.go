package member

import (
	"context"
	"time"

	"smallbiznis-backoffice/internal/guard"
	"smallbiznis-backoffice/pkg/config"
	"smallbiznis-backoffice/pkg/db/option"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/minio"
	"smallbiznis-backoffice/pkg/permission"
	"smallbiznis-backoffice/pkg/repository"
	"smallbiznis-backoffice/pkg/revalidate"
	"smallbiznis-backoffice/pkg/task"
	"smallbiznis-backoffice/services/account"
	"smallbiznis-backoffice/services/activity"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db          *gorm.DB
	node        *snowflake.Node
	cfg         *config.Config
	guard       *guard.Guard
	accounts    *account.Service
	enforcer    *casbin.Enforcer
	enqueuer    task.Enqueuer
	objects     minio.ObjectStore
	activity    activity.Recorder
	invalidator revalidate.Invalidator
	now         func() time.Time

	profiles    repository.Repository[Profile]
	memberships repository.Repository[Membership]
	invitations repository.Repository[Invitation]
}

type ServiceParams struct {
	fx.In
	DB          *gorm.DB
	Node        *snowflake.Node
	Config      *config.Config
	Guard       *guard.Guard
	Accounts    *account.Service
	Enforcer    *casbin.Enforcer
	Enqueuer    task.Enqueuer
	Objects     minio.ObjectStore
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
		node:        p.Node,
		cfg:         p.Config,
		guard:       p.Guard,
		accounts:    p.Accounts,
		enforcer:    p.Enforcer,
		enqueuer:    p.Enqueuer,
		objects:     p.Objects,
		activity:    p.Activity,
		invalidator: p.Invalidator,
		now:         now,
		profiles:    repository.ProvideStore[Profile](p.DB),
		memberships: repository.ProvideStore[Membership](p.DB),
		invitations: repository.ProvideStore[Invitation](p.DB),
	}
}

type memberRow struct {
	UserID   string
	Email    string
	Role     permission.Role
	JoinedAt time.Time
	Status   *Status
}

func (s *Service) memberRows(ctx context.Context, accountID string, userID string) ([]memberRow, error) {
	q := s.db.WithContext(ctx).
		Table("memberships AS m").
		Select("m.user_id, u.email, m.role, m.joined_at, st.status").
		Joins("JOIN users u ON u.id = m.user_id").
		Joins("LEFT JOIN account_statuses st ON st.account_id = m.account_id AND st.user_id = m.user_id").
		Where("m.account_id = ?", accountID)
	if userID != "" {
		q = q.Where("m.user_id = ?", userID)
	}

	var rows []memberRow
	if err := q.Order("m.joined_at ASC, m.user_id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) assetCounts(ctx context.Context, accountID string, userIDs []string) (map[string]int64, error) {
	out := map[string]int64{}
	if len(userIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		AssignedTo string
		Total      int64
	}
	err := s.db.WithContext(ctx).
		Table("assets").
		Select("assigned_to, COUNT(*) AS total").
		Where("account_id = ? AND assigned_to IN ?", accountID, userIDs).
		Group("assigned_to").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.AssignedTo] = r.Total
	}
	return out, nil
}

func (s *Service) assemble(ctx context.Context, accountID string, rows []memberRow) []Member {
	zapLog := logger.FromContext(ctx).With(zap.String("account_id", accountID))

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}

	profiles := map[string]*Profile{}
	found, err := s.profiles.Find(ctx, &Profile{}, option.ApplyIn("user_id", ids))
	if err != nil {
		zapLog.Warn("failed to load member profiles", zap.Error(err))
	}
	for _, p := range found {
		profiles[p.UserID] = p
	}

	counts, err := s.assetCounts(ctx, accountID, ids)
	if err != nil {
		zapLog.Warn("failed to count member assets", zap.Error(err))
		counts = map[string]int64{}
	}

	out := make([]Member, 0, len(rows))
	for _, r := range rows {
		m := Member{
			UserID:     r.UserID,
			Email:      r.Email,
			Role:       r.Role,
			JoinedAt:   r.JoinedAt,
			Status:     StatusActive,
			Profile:    profiles[r.UserID],
			AssetCount: counts[r.UserID],
		}
		if r.Status != nil {
			m.Status = *r.Status
		}
		out = append(out, m)
	}
	return out
}

// LoadMembers lists the team with profile, role, status and asset count.
// Members without a status row are active.
func (s *Service) LoadMembers(ctx context.Context, slug string) ([]Member, error) {
	accountID, err := s.guard.Account(ctx, slug)
	if err != nil {
		return nil, err
	}

	rows, err := s.memberRows(ctx, accountID, "")
	if err != nil {
		logger.FromContext(ctx).Error("failed to list members", zap.String("account_id", accountID), zap.Error(err))
		return nil, errutil.Internal("failed to list members", err)
	}
	return s.assemble(ctx, accountID, rows), nil
}

type AssetSummary struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	SerialNumber *string    `json:"serial_number"`
	AssignedAt   *time.Time `json:"assigned_at"`
}

type Detail struct {
	Member
	Permissions []permission.Category `json:"permissions"`
	Assets      []AssetSummary        `json:"assets"`
}

func (s *Service) LoadMemberDetail(ctx context.Context, slug, userID string) (*Detail, error) {
	zapLog := logger.FromContext(ctx).With(zap.String("account_slug", slug), zap.String("user_id", userID))

	accountID, err := s.guard.Account(ctx, slug)
	if err != nil {
		return nil, err
	}

	rows, err := s.memberRows(ctx, accountID, userID)
	if err != nil {
		zapLog.Error("failed to load member", zap.Error(err))
		return nil, errutil.Internal("failed to load member", err)
	}
	if len(rows) == 0 {
		return nil, errutil.NotFound("Member not found", nil)
	}

	d := &Detail{Member: s.assemble(ctx, accountID, rows)[0], Assets: []AssetSummary{}}

	d.Permissions, err = permission.ForRole(s.enforcer, d.Role)
	if err != nil {
		zapLog.Warn("failed to resolve role permissions", zap.Error(err))
		d.Permissions = []permission.Category{}
	}

	err = s.db.WithContext(ctx).
		Table("assets").
		Select("id, name, category, serial_number, assigned_at").
		Where("account_id = ? AND assigned_to = ?", accountID, userID).
		Order("name").
		Scan(&d.Assets).Error
	if err != nil {
		zapLog.Warn("failed to load member assets", zap.Error(err))
		d.Assets = []AssetSummary{}
	}

	return d, nil
}

// LoadPendingInvitations lists invitations still waiting for an answer.
func (s *Service) LoadPendingInvitations(ctx context.Context, slug string) ([]*Invitation, error) {
	accountID, err := s.guard.Account(ctx, slug)
	if err != nil {
		return nil, err
	}

	invites, err := s.invitations.Find(ctx, &Invitation{AccountID: accountID, Status: InvitationPending},
		option.ApplyWhere("expires_at > ?", s.now().UTC()),
		option.ApplyOrder("created_at DESC"),
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list invitations", zap.String("account_id", accountID), zap.Error(err))
		return nil, errutil.Internal("failed to list invitations", err)
	}
	return invites, nil
}

type Catalog struct {
	Roles      []permission.Role     `json:"roles"`
	Categories []permission.Category `json:"categories"`
}

func (s *Service) LoadPermissionCatalog() Catalog {
	return Catalog{Roles: permission.Roles(), Categories: permission.Catalog()}
}
