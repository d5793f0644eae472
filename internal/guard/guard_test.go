package guard_test

import (
	"context"
	"errors"
	"testing"

	"smallbiznis-backoffice/internal/guard"
	"smallbiznis-backoffice/internal/guard/guardtest"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/identity"
	"smallbiznis-backoffice/pkg/permission"
	"smallbiznis-backoffice/pkg/result"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type accounts map[string]string

func (a accounts) ResolveID(_ context.Context, slug string) (string, error) {
	return a[slug], nil
}

func newGuard(t *testing.T) (*guard.Guard, *guardtest.Checker) {
	checker := guardtest.NewChecker(t).
		Grant("acc-1", "admin-1", permission.RoleAdmin).
		Grant("acc-1", "viewer-1", permission.RoleViewer)

	g := guard.New(guard.Params{
		Accounts: accounts{"acme": "acc-1"},
		Identity: guardtest.Users(
			&identity.User{ID: "admin-1", Email: "admin@acme.test"},
			&identity.User{ID: "viewer-1", Email: "viewer@acme.test"},
		),
		Perms: checker,
	})
	return g, checker
}

func TestResolve(t *testing.T) {
	g, _ := newGuard(t)
	ctx := context.Background()

	t.Run("unknown account", func(t *testing.T) {
		_, err := g.Resolve(ctx, "globex", guardtest.Session("admin-1"), permission.LicensesManage)
		base, ok := errutil.As(err)
		require.True(t, ok)
		require.Equal(t, guard.MsgAccountNotFound, base.Message)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := g.Resolve(ctx, "acme", identity.Session{}, permission.LicensesManage)
		base, ok := errutil.As(err)
		require.True(t, ok)
		require.Equal(t, guard.MsgAuthenticationRequired, base.Message)
	})

	t.Run("expired session redirects", func(t *testing.T) {
		_, err := g.Resolve(ctx, "acme", guardtest.Session(guardtest.ExpiredToken), permission.LicensesManage)
		r, ok := result.AsRedirect(err)
		require.True(t, ok)
		require.Equal(t, guardtest.SignInPath, r.Location)
	})

	t.Run("viewer cannot manage", func(t *testing.T) {
		_, err := g.Resolve(ctx, "acme", guardtest.Session("viewer-1"), permission.LicensesManage)
		base, ok := errutil.As(err)
		require.True(t, ok)
		require.Equal(t, errutil.StatusForbidden, base.Code)
	})

	t.Run("admin scope", func(t *testing.T) {
		scope, err := g.Resolve(ctx, "acme", guardtest.Session("admin-1"), permission.LicensesManage)
		require.NoError(t, err)
		require.Equal(t, guard.Scope{AccountID: "acc-1", AccountSlug: "acme", UserID: "admin-1", UserEmail: "admin@acme.test"}, scope)
	})

	t.Run("slug is trimmed", func(t *testing.T) {
		scope, err := g.Resolve(ctx, " acme ", guardtest.Session("admin-1"), permission.LicensesManage)
		require.NoError(t, err)
		require.Equal(t, "acme", scope.AccountSlug)
	})
}

func TestResolvePermissionLookupFails(t *testing.T) {
	g, checker := newGuard(t)
	checker.Err = errors.New("connection reset")

	_, err := g.Resolve(context.Background(), "acme", guardtest.Session("admin-1"), permission.LicensesManage)
	base, ok := errutil.As(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusInternal, base.Code)
}
