package permission

import (
	"context"
	"errors"
	"fmt"

	"smallbiznis-backoffice/pkg/config"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("permission",
	fx.Provide(NewEnforcer, NewChecker),
)

type Permission string

const (
	LicensesRead   Permission = "licenses.read"
	LicensesManage Permission = "licenses.manage"
	MembersRead    Permission = "members.read"
	MembersInvite  Permission = "members.invite"
	MembersManage  Permission = "members.manage"
	AssetsRead     Permission = "assets.read"
	AssetsAssign   Permission = "assets.assign"
	SettingsManage Permission = "settings.manage"
	BillingManage  Permission = "billing.manage"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	default:
		return false
	}
}

const defaultModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

const defaultPolicy = `
p, viewer, licenses.read
p, viewer, members.read
p, member, assets.read
p, admin, licenses.manage
p, admin, members.invite
p, admin, members.manage
p, admin, assets.assign
p, owner, settings.manage
p, owner, billing.manage
g, member, viewer
g, admin, member
g, owner, admin
`

// NewEnforcer loads the role model from ACCESS_CONTROL files when both are
// configured and falls back to the built-in role ladder otherwise.
func NewEnforcer(cfg *config.Config) (*casbin.Enforcer, error) {
	if cfg != nil && cfg.AccessControl.Model != "" && cfg.AccessControl.Policy != "" {
		return casbin.NewEnforcer(cfg.AccessControl.Model, cfg.AccessControl.Policy)
	}

	m, err := model.NewModelFromString(defaultModel)
	if err != nil {
		return nil, fmt.Errorf("load access model: %w", err)
	}
	return casbin.NewEnforcer(m, stringadapter.NewAdapter(defaultPolicy))
}

// Checker is the server-side permission function consulted right before writes.
type Checker interface {
	HasPermission(ctx context.Context, userID, accountID string, perm Permission) (bool, error)
	RoleOf(ctx context.Context, userID, accountID string) (Role, error)
}

type casbinChecker struct {
	db       *gorm.DB
	enforcer *casbin.Enforcer
}

func NewChecker(db *gorm.DB, enforcer *casbin.Enforcer) Checker {
	return &casbinChecker{db: db, enforcer: enforcer}
}

// RoleOf returns the caller's membership role, or "" for non-members.
func (c *casbinChecker) RoleOf(ctx context.Context, userID, accountID string) (Role, error) {
	var row struct {
		Role string
	}
	err := c.db.WithContext(ctx).
		Table("memberships").
		Select("role").
		Where("account_id = ? AND user_id = ?", accountID, userID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return Role(row.Role), nil
}

func (c *casbinChecker) HasPermission(ctx context.Context, userID, accountID string, perm Permission) (bool, error) {
	role, err := c.RoleOf(ctx, userID, accountID)
	if err != nil {
		return false, err
	}
	if role == "" {
		return false, nil
	}
	return c.enforcer.Enforce(string(role), string(perm))
}

type Entry struct {
	Key         Permission `json:"key"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
}

type Category struct {
	Name        string  `json:"name"`
	Permissions []Entry `json:"permissions"`
}

var catalog = []Entry{
	{LicensesRead, "Licenses", "View software licenses and their assignments"},
	{LicensesManage, "Licenses", "Create, edit, renew, assign and delete licenses"},
	{MembersRead, "Team", "View team members"},
	{MembersInvite, "Team", "Invite new team members"},
	{MembersManage, "Team", "Change member roles and account status"},
	{AssetsRead, "Assets", "View assets"},
	{AssetsAssign, "Assets", "Assign assets to team members"},
	{SettingsManage, "Settings", "Manage team settings"},
	{BillingManage, "Billing", "Manage billing and subscription"},
}

// GroupByCategory groups entries by category. Categories keep the order of
// their first appearance; entries keep input order.
func GroupByCategory(entries []Entry) []Category {
	index := map[string]int{}
	out := []Category{}
	for _, e := range entries {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, Category{Name: e.Category})
		}
		out[i].Permissions = append(out[i].Permissions, e)
	}
	return out
}

// Catalog lists every known permission grouped by category.
func Catalog() []Category {
	return GroupByCategory(catalog)
}

// ForRole lists the permissions granted to role, including inherited ones,
// grouped by category.
func ForRole(enforcer *casbin.Enforcer, role Role) ([]Category, error) {
	rules, err := enforcer.GetImplicitPermissionsForUser(string(role))
	if err != nil {
		return nil, err
	}

	granted := map[Permission]bool{}
	for _, rule := range rules {
		if len(rule) >= 2 {
			granted[Permission(rule[1])] = true
		}
	}

	entries := make([]Entry, 0, len(granted))
	for _, e := range catalog {
		if granted[e.Key] {
			entries = append(entries, e)
		}
	}
	return GroupByCategory(entries), nil
}

// Roles returns the known roles, most privileged first.
func Roles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleMember, RoleViewer}
}
