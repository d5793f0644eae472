package account

import (
	"context"
	"strings"

	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resolver turns a slug into the internal account id. It returns "" and no
// error when the slug does not resolve.
type Resolver interface {
	ResolveID(ctx context.Context, slug string) (string, error)
}

type Service struct {
	node *snowflake.Node
	repo repository.Repository[Account]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		node: p.Node,
		repo: repository.ProvideStore[Account](p.DB),
	}
}

func (s *Service) ResolveID(ctx context.Context, accountSlug string) (string, error) {
	acct, err := s.GetBySlug(ctx, accountSlug)
	if err != nil || acct == nil {
		return "", err
	}
	return acct.ID, nil
}

// GetBySlug returns nil, nil for unknown or malformed slugs.
func (s *Service) GetBySlug(ctx context.Context, accountSlug string) (*Account, error) {
	accountSlug = strings.TrimSpace(accountSlug)
	if !slug.IsSlug(accountSlug) {
		return nil, nil
	}

	acct, err := s.repo.FindOne(ctx, &Account{Slug: accountSlug})
	if err != nil {
		logger.FromContext(ctx).Error("failed query get account by slug", zap.String("slug", accountSlug), zap.Error(err))
		return nil, err
	}
	return acct, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Account, error) {
	if id == "" {
		return nil, nil
	}
	return s.repo.FindOne(ctx, &Account{ID: id})
}

// CreateAccount creates an account, deriving the slug from name when none is given.
func (s *Service) CreateAccount(ctx context.Context, name, accountSlug string) (*Account, error) {
	zapLog := logger.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errutil.ValidationFailed("account name is required", nil,
			errutil.WithDetails(errutil.Detail{Field: "name", Message: "This field is required"}))
	}

	if accountSlug == "" {
		accountSlug = slug.Make(name)
	}
	if !slug.IsSlug(accountSlug) {
		return nil, errutil.ValidationFailed("invalid slug", nil,
			errutil.WithDetails(errutil.Detail{Field: "slug", Message: "Must contain only lowercase letters, digits and dashes"}))
	}

	exist, err := s.repo.FindOne(ctx, &Account{Slug: accountSlug})
	if err != nil {
		zapLog.Error("failed query get account by slug", zap.Error(err))
		return nil, errutil.Internal("failed to check existing account", err)
	}
	if exist != nil {
		zapLog.Warn("account already exists", zap.String("slug", accountSlug))
		return nil, errutil.Conflict("account already exists", nil)
	}

	acct := &Account{
		ID:   s.node.Generate().String(),
		Name: name,
		Slug: accountSlug,
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		if errutil.IsDuplicate(err) {
			return nil, errutil.Conflict("account already exists", err)
		}
		zapLog.Error("failed to create account", zap.Error(err))
		return nil, errutil.Internal("failed to create account", err)
	}

	return acct, nil
}
