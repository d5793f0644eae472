package permission

import (
	"context"
	"testing"

	"smallbiznis-backoffice/pkg/config"
	"smallbiznis-backoffice/pkg/testutil"

	"github.com/stretchr/testify/require"
)

type membershipRow struct {
	AccountID string `gorm:"column:account_id;primaryKey"`
	UserID    string `gorm:"column:user_id;primaryKey"`
	Role      string `gorm:"column:role"`
}

func (membershipRow) TableName() string { return "memberships" }

func TestRoleLadder(t *testing.T) {
	e, err := NewEnforcer(&config.Config{})
	require.NoError(t, err)

	cases := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleViewer, LicensesRead, true},
		{RoleViewer, LicensesManage, false},
		{RoleMember, AssetsRead, true},
		{RoleMember, MembersInvite, false},
		{RoleAdmin, MembersManage, true},
		{RoleAdmin, LicensesRead, true},
		{RoleAdmin, BillingManage, false},
		{RoleOwner, BillingManage, true},
		{RoleOwner, LicensesManage, true},
	}
	for _, tc := range cases {
		ok, err := e.Enforce(string(tc.role), string(tc.perm))
		require.NoError(t, err)
		require.Equal(t, tc.want, ok, "%s -> %s", tc.role, tc.perm)
	}
}

func TestHasPermissionUsesMembershipRole(t *testing.T) {
	db := testutil.NewTestDB(t, &membershipRow{})
	require.NoError(t, db.Create(&membershipRow{AccountID: "1", UserID: "10", Role: "admin"}).Error)
	require.NoError(t, db.Create(&membershipRow{AccountID: "1", UserID: "11", Role: "viewer"}).Error)

	e, err := NewEnforcer(&config.Config{})
	require.NoError(t, err)
	c := NewChecker(db, e)
	ctx := context.Background()

	ok, err := c.HasPermission(ctx, "10", "1", MembersManage)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.HasPermission(ctx, "11", "1", MembersManage)
	require.NoError(t, err)
	require.False(t, ok)

	// not a member of account 2
	ok, err = c.HasPermission(ctx, "10", "2", LicensesRead)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestForRoleGroupsInheritedPermissions(t *testing.T) {
	e, err := NewEnforcer(&config.Config{})
	require.NoError(t, err)

	groups, err := ForRole(e, RoleMember)
	require.NoError(t, err)

	names := []string{}
	for _, g := range groups {
		names = append(names, g.Name)
	}
	require.Equal(t, []string{"Licenses", "Team", "Assets"}, names)
	require.Len(t, groups[0].Permissions, 1)
	require.Equal(t, LicensesRead, groups[0].Permissions[0].Key)
}

func TestCatalogCoversEveryCategory(t *testing.T) {
	groups := Catalog()
	require.Len(t, groups, 5)
	require.Equal(t, "Licenses", groups[0].Name)
	require.Len(t, groups[0].Permissions, 2)
}
