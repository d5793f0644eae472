// Package guard re-resolves the caller context every action runs under: the
// tenant from its slug, the user from the session, and the permission to write.
package guard

import (
	"context"
	"strings"

	"smallbiznis-backoffice/internal/httpapi"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/identity"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/permission"
	"smallbiznis-backoffice/services/account"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	MsgAccountNotFound        = "Account not found"
	MsgAuthenticationRequired = "Authentication required"
	MsgPermissionDenied       = "You do not have permission to perform this action"
)

var Module = fx.Module("guard",
	fx.Provide(New),
)

// Scope is the resolved context of one call.
type Scope struct {
	AccountID   string
	AccountSlug string
	UserID      string
	UserEmail   string
}

type Guard struct {
	accounts account.Resolver
	identity identity.Resolver
	perms    permission.Checker
}

type Params struct {
	fx.In
	Accounts account.Resolver
	Identity identity.Resolver
	Perms    permission.Checker
}

func New(p Params) *Guard {
	return &Guard{accounts: p.Accounts, identity: p.Identity, perms: p.Perms}
}

// Account resolves only the tenant. Loaders use it.
func (g *Guard) Account(ctx context.Context, slug string) (string, error) {
	id, err := g.accounts.ResolveID(ctx, slug)
	if err != nil {
		return "", errutil.Internal("failed to resolve account", err)
	}
	if id == "" {
		return "", errutil.NotFound(MsgAccountNotFound, nil)
	}
	return id, nil
}

// Resolve runs the tenant, user and permission checks in that order. An empty
// perm skips the permission check. Redirect signals from the identity lookup
// are returned as is.
func (g *Guard) Resolve(ctx context.Context, slug string, s identity.Session, perm permission.Permission) (Scope, error) {
	slug = strings.TrimSpace(slug)
	zapLog := logger.FromContext(ctx).With(zap.String("account_slug", slug))

	accountID, err := g.Account(ctx, slug)
	if err != nil {
		return Scope{}, err
	}

	user, err := g.identity.CurrentUser(ctx, s)
	if err != nil {
		return Scope{}, err
	}
	if user == nil {
		return Scope{}, errutil.Unauthorized(MsgAuthenticationRequired, nil)
	}

	scope := Scope{
		AccountID:   accountID,
		AccountSlug: slug,
		UserID:      user.ID,
		UserEmail:   user.Email,
	}

	if perm == "" {
		return scope, nil
	}

	ok, err := g.perms.HasPermission(ctx, user.ID, accountID, perm)
	if err != nil {
		zapLog.Error("failed to check permission", zap.String("permission", string(perm)), zap.Error(err))
		return Scope{}, errutil.Internal("Failed to verify permissions", err)
	}
	if !ok {
		zapLog.Warn("permission denied", zap.String("user_id", user.ID), zap.String("permission", string(perm)))
		return Scope{}, errutil.Forbidden(MsgPermissionDenied, nil)
	}

	return scope, nil
}

// Check re-runs the permission check for an already resolved scope. Writes
// that depend on the caller's role call it right before touching data.
func (g *Guard) Check(ctx context.Context, scope Scope, perm permission.Permission) error {
	ok, err := g.perms.HasPermission(ctx, scope.UserID, scope.AccountID, perm)
	if err != nil {
		return errutil.Internal("Failed to verify permissions", err)
	}
	if !ok {
		return errutil.Forbidden(MsgPermissionDenied, nil)
	}
	return nil
}

const scopeKey = "guard.scope"

// Require resolves the scope of the :slug route parameter for loader routes
// and aborts the request when any check fails.
func (g *Guard) Require(perm permission.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := g.Resolve(c.Request.Context(), c.Param("slug"), httpapi.Session(c), perm)
		if err != nil {
			if !httpapi.Redirect(c, err) {
				_ = c.Error(err)
			}
			c.Abort()
			return
		}
		c.Set(scopeKey, scope)
		c.Next()
	}
}

// ScopeOf returns the scope stored by Require.
func ScopeOf(c *gin.Context) Scope {
	v, _ := c.Get(scopeKey)
	scope, _ := v.(Scope)
	return scope
}
