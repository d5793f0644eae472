// Package guardtest provides in-memory identity and permission collaborators
// for service tests. A session token is the id of the user it authenticates.
package guardtest

import (
	"context"
	"testing"

	"smallbiznis-backoffice/pkg/identity"
	"smallbiznis-backoffice/pkg/permission"
	"smallbiznis-backoffice/pkg/result"

	"github.com/casbin/casbin/v2"
	"github.com/stretchr/testify/require"
)

const (
	ExpiredToken = "expired"
	SignInPath   = "/auth/sign-in"
)

func Session(userID string) identity.Session {
	return identity.Session{Token: userID}
}

type Identity map[string]*identity.User

func Users(users ...*identity.User) Identity {
	out := Identity{}
	for _, u := range users {
		out[u.ID] = u
	}
	return out
}

func (m Identity) CurrentUser(_ context.Context, s identity.Session) (*identity.User, error) {
	if s.Token == ExpiredToken {
		return nil, result.Redirect{Location: SignInPath}
	}
	return m[s.Token], nil
}

// Checker grants permissions through the built-in role ladder.
type Checker struct {
	enforcer *casbin.Enforcer
	roles    map[string]permission.Role
	Err      error
}

func NewChecker(t *testing.T) *Checker {
	t.Helper()
	enforcer, err := permission.NewEnforcer(nil)
	require.NoError(t, err)
	return &Checker{enforcer: enforcer, roles: map[string]permission.Role{}}
}

func (c *Checker) Grant(accountID, userID string, role permission.Role) *Checker {
	c.roles[accountID+"/"+userID] = role
	return c
}

func (c *Checker) RoleOf(_ context.Context, userID, accountID string) (permission.Role, error) {
	if c.Err != nil {
		return "", c.Err
	}
	return c.roles[accountID+"/"+userID], nil
}

func (c *Checker) HasPermission(ctx context.Context, userID, accountID string, perm permission.Permission) (bool, error) {
	role, err := c.RoleOf(ctx, userID, accountID)
	if err != nil || role == "" {
		return false, err
	}
	return c.enforcer.Enforce(string(role), string(perm))
}
