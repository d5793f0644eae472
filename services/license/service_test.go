package license

import (
	"context"
	"testing"
	"time"

	"smallbiznis-backoffice/internal/guard"
	"smallbiznis-backoffice/internal/guard/guardtest"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/identity"
	"smallbiznis-backoffice/pkg/permission"
	"smallbiznis-backoffice/pkg/result"
	"smallbiznis-backoffice/pkg/revalidate"
	"smallbiznis-backoffice/pkg/testutil"
	"smallbiznis-backoffice/services/account"
	"smallbiznis-backoffice/services/activity"
	"smallbiznis-backoffice/services/asset"
	"smallbiznis-backoffice/services/member"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      *Service
	recorder *revalidate.Recorder

	accountID string
	otherID   string
	adminID   string
	viewerID  string
}

var fixedNow = time.Date(2024, time.January, 25, 15, 30, 0, 0, time.UTC)

func newFixture(t *testing.T, models ...any) *fixture {
	t.Helper()
	ctx := context.Background()

	if len(models) == 0 {
		models = []any{
			&account.Account{}, &License{}, &Assignment{}, &RenewalAlert{},
			&member.User{}, &member.Profile{}, &member.Membership{}, &asset.Asset{}, &activity.Log{},
		}
	}
	db := testutil.NewTestDB(t, models...)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	accounts := account.NewService(account.ServiceParams{DB: db, Node: node})
	acme, err := accounts.CreateAccount(ctx, "Acme", "acme")
	require.NoError(t, err)
	globex, err := accounts.CreateAccount(ctx, "Globex", "globex")
	require.NoError(t, err)

	f := &fixture{
		db:        db,
		node:      node,
		recorder:  &revalidate.Recorder{},
		accountID: acme.ID,
		otherID:   globex.ID,
		adminID:   node.Generate().String(),
		viewerID:  node.Generate().String(),
	}

	checker := guardtest.NewChecker(t).
		Grant(acme.ID, f.adminID, permission.RoleAdmin).
		Grant(acme.ID, f.viewerID, permission.RoleViewer).
		Grant(globex.ID, f.adminID, permission.RoleAdmin)

	g := guard.New(guard.Params{
		Accounts: accounts,
		Identity: guardtest.Users(
			&identity.User{ID: f.adminID, Email: "admin@acme.test"},
			&identity.User{ID: f.viewerID, Email: "viewer@acme.test"},
		),
		Perms: checker,
	})

	f.svc = NewService(ServiceParams{
		DB:          db,
		Node:        node,
		Guard:       g,
		Activity:    activity.NewService(activity.ServiceParams{DB: db, Node: node}),
		Invalidator: f.recorder,
		Now:         testutil.Clock(fixedNow),
	})
	return f
}

func (f *fixture) admin() identity.Session { return guardtest.Session(f.adminID) }

func (f *fixture) seedLicense(t *testing.T, accountID, name, vendor, key string, purchase, expiration time.Time) *License {
	t.Helper()
	l := &License{
		ID:             f.node.Generate().String(),
		AccountID:      accountID,
		Name:           name,
		Vendor:         vendor,
		LicenseKey:     key,
		LicenseType:    TypeSubscription,
		PurchaseDate:   purchase,
		ExpirationDate: expiration,
	}
	require.NoError(t, f.db.Create(l).Error)
	return l
}

func (f *fixture) seedMember(t *testing.T, email string) string {
	t.Helper()
	id := f.node.Generate().String()
	require.NoError(t, f.db.Create(&member.User{ID: id, Email: email}).Error)
	require.NoError(t, f.db.Create(&member.Membership{
		ID: f.node.Generate().String(), AccountID: f.accountID, UserID: id, Role: permission.RoleMember, JoinedAt: fixedNow,
	}).Error)
	return id
}

func (f *fixture) seedAsset(t *testing.T, name string) string {
	t.Helper()
	id := f.node.Generate().String()
	require.NoError(t, f.db.Create(&asset.Asset{
		ID: id, AccountID: f.accountID, Name: name, Category: "laptop", Status: asset.StatusAvailable,
	}).Error)
	return id
}

func createInput(name, key string) CreateLicenseInput {
	return CreateLicenseInput{
		AccountSlug:    "acme",
		Name:           name,
		Vendor:         "Adobe",
		LicenseKey:     key,
		LicenseType:    TypeSubscription,
		PurchaseDate:   "2024-01-01",
		ExpirationDate: "2024-01-31",
	}
}

func TestCreateLicense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.CreateLicense(ctx, f.admin(), createInput("Creative Cloud", "CC-1"))
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, f.accountID, res.Data.AccountID)
	require.Equal(t, f.adminID, res.Data.CreatedBy)
	require.Equal(t, []string{"/home/acme/licenses", "/home/acme/licenses/" + res.Data.ID}, f.recorder.All())

	detail, err := f.svc.LoadLicenseDetail(ctx, "acme", res.Data.ID)
	require.NoError(t, err)
	require.Equal(t, 6, detail.DaysUntilExpiry)
	require.False(t, detail.IsExpired)
	require.Equal(t, BucketUrgent, detail.ExpiryStatus)
	require.Equal(t, "Expires in 6 days", detail.ExpiryLabel)

	var logs int64
	require.NoError(t, f.db.Model(&activity.Log{}).Where("action = ?", "license.created").Count(&logs).Error)
	require.EqualValues(t, 1, logs)
}

func TestCreateLicenseDuplicateKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateLicense(ctx, f.admin(), createInput("Creative Cloud", "CC-1"))
	require.NoError(t, err)

	res, err := f.svc.CreateLicense(ctx, f.admin(), createInput("Creative Cloud Copy", "CC-1"))
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, MsgDuplicateKey, res.Message)

	// the same key is free in another account
	in := createInput("Creative Cloud", "CC-1")
	in.AccountSlug = "globex"
	res, err = f.svc.CreateLicense(ctx, f.admin(), in)
	require.NoError(t, err)
	require.True(t, res.Success)
}

func TestCreateLicenseContextChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("invalid input never reaches the database", func(t *testing.T) {
		in := createInput("Creative Cloud", "CC-1")
		in.ExpirationDate = "2023-12-01"
		res, err := f.svc.CreateLicense(ctx, f.admin(), in)
		require.NoError(t, err)
		require.Equal(t, "Invalid input", res.Message)
		require.Equal(t, "expiration_date", res.Errors[0].Field)
	})

	t.Run("account not found", func(t *testing.T) {
		in := createInput("Creative Cloud", "CC-1")
		in.AccountSlug = "initech"
		res, err := f.svc.CreateLicense(ctx, f.admin(), in)
		require.NoError(t, err)
		require.Equal(t, guard.MsgAccountNotFound, res.Message)
	})

	t.Run("authentication required", func(t *testing.T) {
		res, err := f.svc.CreateLicense(ctx, identity.Session{}, createInput("Creative Cloud", "CC-1"))
		require.NoError(t, err)
		require.Equal(t, guard.MsgAuthenticationRequired, res.Message)
	})

	t.Run("viewer denied", func(t *testing.T) {
		res, err := f.svc.CreateLicense(ctx, guardtest.Session(f.viewerID), createInput("Creative Cloud", "CC-1"))
		require.NoError(t, err)
		require.Equal(t, guard.MsgPermissionDenied, res.Message)
	})

	t.Run("expired session redirect is passed through", func(t *testing.T) {
		res, err := f.svc.CreateLicense(ctx, guardtest.Session(guardtest.ExpiredToken), createInput("Creative Cloud", "CC-1"))
		r, ok := result.AsRedirect(err)
		require.True(t, ok)
		require.Equal(t, guardtest.SignInPath, r.Location)
		require.False(t, res.Success)
	})

	var n int64
	require.NoError(t, f.db.Model(&License{}).Count(&n).Error)
	require.Zero(t, n)
	require.Empty(t, f.recorder.Published)
}

func TestUpdateLicense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))
	foreign := f.seedLicense(t, f.otherID, "Office", "Microsoft", "MS-9", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))

	in := UpdateLicenseInput{ID: l.ID, CreateLicenseInput: createInput("Office 365", "MS-1")}
	in.Vendor = "Microsoft"
	notes := "renewed by finance"
	in.Notes = &notes

	res, err := f.svc.UpdateLicense(ctx, f.admin(), in)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, l.ID, res.Data.ID)
	require.Equal(t, "Office 365", res.Data.Name)
	require.Equal(t, "renewed by finance", *res.Data.Notes)

	in.ID = foreign.ID
	res, err = f.svc.UpdateLicense(ctx, f.admin(), in)
	require.NoError(t, err)
	require.Equal(t, MsgLicenseNotFound, res.Message)
}

func TestUpdateLicenseTrimsID(t *testing.T) {
	f := newFixture(t)
	l := f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))

	in := UpdateLicenseInput{ID: " " + l.ID + " ", CreateLicenseInput: createInput("Office 365", "MS-1")}
	require.True(t, ParseUpdateLicense(in).OK())

	res, err := f.svc.UpdateLicense(context.Background(), f.admin(), in)
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	require.Equal(t, l.ID, res.Data.ID)
	require.Equal(t, "Office 365", res.Data.Name)
}

func TestUpdateLicenseDuplicateKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))
	l := f.seedLicense(t, f.accountID, "Visio", "Microsoft", "MS-2", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))

	res, err := f.svc.UpdateLicense(ctx, f.admin(), UpdateLicenseInput{ID: l.ID, CreateLicenseInput: createInput("Visio", "MS-1")})
	require.NoError(t, err)
	require.Equal(t, MsgDuplicateKey, res.Message)
}

func TestDeleteLicenseCascadesAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))
	userID := f.seedMember(t, "jane@acme.test")

	assigned, err := f.svc.AssignLicense(ctx, f.admin(), AssignLicenseInput{AccountSlug: "acme", LicenseID: l.ID, UserID: userID})
	require.NoError(t, err)
	require.True(t, assigned.Success)
	require.NoError(t, f.db.Create(&RenewalAlert{ID: f.node.Generate().String(), AccountID: f.accountID, LicenseID: l.ID, AlertType: Alert30Day, SentAt: fixedNow}).Error)

	res, err := f.svc.DeleteLicense(ctx, f.admin(), DeleteLicenseInput{AccountSlug: "acme", ID: l.ID})
	require.NoError(t, err)
	require.True(t, res.Success)

	var n int64
	require.NoError(t, f.db.Model(&Assignment{}).Where("license_id = ?", l.ID).Count(&n).Error)
	require.Zero(t, n)
	require.NoError(t, f.db.Model(&RenewalAlert{}).Where("license_id = ?", l.ID).Count(&n).Error)
	require.Zero(t, n)

	_, err = f.svc.LoadLicenseDetail(ctx, "acme", l.ID)
	require.True(t, errutil.IsNotFound(err))

	res, err = f.svc.DeleteLicense(ctx, f.admin(), DeleteLicenseInput{AccountSlug: "acme", ID: l.ID})
	require.NoError(t, err)
	require.Equal(t, MsgLicenseNotFound, res.Message)
}

func TestAssignLicenseRejectsDuplicateTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))
	userID := f.seedMember(t, "jane@acme.test")
	assetID := f.seedAsset(t, "MacBook 14")

	res, err := f.svc.AssignLicense(ctx, f.admin(), AssignLicenseInput{AccountSlug: "acme", LicenseID: l.ID, UserID: userID})
	require.NoError(t, err)
	require.True(t, res.Success)

	res, err = f.svc.AssignLicense(ctx, f.admin(), AssignLicenseInput{AccountSlug: "acme", LicenseID: l.ID, UserID: userID})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, MsgAlreadyAssignedUser, res.Message)

	res, err = f.svc.AssignLicense(ctx, f.admin(), AssignLicenseInput{AccountSlug: "acme", LicenseID: l.ID, AssetID: assetID})
	require.NoError(t, err)
	require.True(t, res.Success)

	res, err = f.svc.AssignLicense(ctx, f.admin(), AssignLicenseInput{AccountSlug: "acme", LicenseID: l.ID, AssetID: assetID})
	require.NoError(t, err)
	require.Equal(t, MsgAlreadyAssignedAsset, res.Message)

	var n int64
	require.NoError(t, f.db.Model(&Assignment{}).Where("license_id = ?", l.ID).Count(&n).Error)
	require.EqualValues(t, 2, n)
}

func TestAssignmentUniqueIndex(t *testing.T) {
	f := newFixture(t)
	l := f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))
	userID := f.seedMember(t, "jane@acme.test")

	first := &Assignment{ID: f.node.Generate().String(), AccountID: f.accountID, LicenseID: l.ID, AssignedToUser: &userID}
	require.NoError(t, f.db.Create(first).Error)

	second := &Assignment{ID: f.node.Generate().String(), AccountID: f.accountID, LicenseID: l.ID, AssignedToUser: &userID}
	err := f.db.Create(second).Error
	require.Error(t, err)
	require.True(t, errutil.IsDuplicate(err))
}

func TestAssignLicenseTargetScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))
	stranger := f.node.Generate().String()

	res, err := f.svc.AssignLicense(ctx, f.admin(), AssignLicenseInput{AccountSlug: "acme", LicenseID: l.ID, UserID: stranger})
	require.NoError(t, err)
	require.Equal(t, "User not found", res.Message)

	res, err = f.svc.AssignLicense(ctx, f.admin(), AssignLicenseInput{AccountSlug: "acme", LicenseID: l.ID, AssetID: stranger})
	require.NoError(t, err)
	require.Equal(t, "Asset not found", res.Message)

	res, err = f.svc.AssignLicense(ctx, f.admin(), AssignLicenseInput{AccountSlug: "acme", LicenseID: stranger, AssetID: stranger})
	require.NoError(t, err)
	require.Equal(t, MsgLicenseNotFound, res.Message)
}

func TestUnassignLicense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))
	userID := f.seedMember(t, "jane@acme.test")

	assigned, err := f.svc.AssignLicense(ctx, f.admin(), AssignLicenseInput{AccountSlug: "acme", LicenseID: l.ID, UserID: userID})
	require.NoError(t, err)

	views, err := f.svc.LoadLicenseAssignments(ctx, "acme", l.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "jane@acme.test", views[0].User.Email)
	require.Nil(t, views[0].Asset)

	res, err := f.svc.UnassignLicense(ctx, f.admin(), UnassignLicenseInput{AccountSlug: "acme", AssignmentID: assigned.Data.ID})
	require.NoError(t, err)
	require.True(t, res.Success)

	res, err = f.svc.UnassignLicense(ctx, f.admin(), UnassignLicenseInput{AccountSlug: "acme", AssignmentID: assigned.Data.ID})
	require.NoError(t, err)
	require.Equal(t, "Assignment not found", res.Message)

	// assigning again after an unassign is allowed
	again, err := f.svc.AssignLicense(ctx, f.admin(), AssignLicenseInput{AccountSlug: "acme", LicenseID: l.ID, UserID: userID})
	require.NoError(t, err)
	require.True(t, again.Success)
}

func TestLoadLicenseAssignmentsDegradesToEmpty(t *testing.T) {
	// users, profiles and assets are missing so the join fails
	f := newFixture(t, &account.Account{}, &License{}, &Assignment{}, &RenewalAlert{}, &activity.Log{})
	l := f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))
	userID := f.node.Generate().String()
	require.NoError(t, f.db.Create(&Assignment{ID: f.node.Generate().String(), AccountID: f.accountID, LicenseID: l.ID, AssignedToUser: &userID}).Error)

	views, err := f.svc.LoadLicenseAssignments(context.Background(), "acme", l.ID)
	require.NoError(t, err)
	require.NotNil(t, views)
	require.Empty(t, views)
}

func TestBulkDeleteLicensesCollectsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))
	b := f.seedLicense(t, f.accountID, "Slack", "Salesforce", "SL-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))
	foreign := f.seedLicense(t, f.otherID, "Jira", "Atlassian", "JI-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))

	ids := []string{a.ID, "garbage", foreign.ID, b.ID}
	res, err := f.svc.BulkDeleteLicenses(ctx, f.admin(), BulkIDsInput{AccountSlug: "acme", LicenseIDs: ids})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 2, res.Data.Succeeded)
	require.Equal(t, 2, res.Data.Failed)
	require.Equal(t, []ItemOutcome{
		{ID: a.ID, Success: true},
		{ID: "garbage", Error: "Invalid license id"},
		{ID: foreign.ID, Error: MsgLicenseNotFound},
		{ID: b.ID, Success: true},
	}, res.Data.Results)

	var n int64
	require.NoError(t, f.db.Model(&License{}).Where("id = ?", foreign.ID).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestBulkRenewLicenses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2024, 1, 1), testutil.Date(2024, 6, 1))
	late := f.seedLicense(t, f.accountID, "Slack", "Salesforce", "SL-1", testutil.Date(2025, 3, 1), testutil.Date(2025, 6, 1))
	missing := f.node.Generate().String()

	res, err := f.svc.BulkRenewLicenses(ctx, f.admin(), BulkRenewInput{
		AccountSlug:    "acme",
		LicenseIDs:     []string{a.ID, late.ID, missing},
		ExpirationDate: "2025-01-01",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 1, res.Data.Succeeded)
	require.Equal(t, []ItemOutcome{
		{ID: a.ID, Success: true},
		{ID: late.ID, Error: MsgExpirationBeforePurchase},
		{ID: missing, Error: MsgLicenseNotFound},
	}, res.Data.Results)

	detail, err := f.svc.LoadLicenseDetail(ctx, "acme", a.ID)
	require.NoError(t, err)
	require.Equal(t, "2025-01-01", detail.ExpirationDate.UTC().Format("2006-01-02"))
	require.Equal(t, f.adminID, detail.UpdatedBy)

	// the old expiration is not the bound: renewing to a date before it is fine
	res, err = f.svc.BulkRenewLicenses(ctx, f.admin(), BulkRenewInput{AccountSlug: "acme", LicenseIDs: []string{a.ID}, ExpirationDate: "2024-03-01"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Data.Succeeded)
}

func TestLoadLicensesPaginated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2023, 1, 1), testutil.Date(2024, 1, 10))
	f.seedLicense(t, f.accountID, "Visio", "Microsoft", "MS-2", testutil.Date(2024, 1, 1), testutil.Date(2024, 1, 31))
	f.seedLicense(t, f.accountID, "Slack", "Salesforce", "SL-1", testutil.Date(2024, 1, 1), testutil.Date(2025, 1, 1))
	f.seedLicense(t, f.otherID, "Office", "Microsoft", "MS-1", testutil.Date(2024, 1, 1), testutil.Date(2025, 1, 1))

	all, err := f.svc.LoadLicensesPaginated(ctx, "acme", Filters{})
	require.NoError(t, err)
	require.EqualValues(t, 3, all.PageInfo.Total)
	require.Equal(t, []string{"Slack", "Visio", "Office"}, names(all.Licenses))

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"search matches key case insensitively", Filters{Search: "ms-"}, []string{"Visio", "Office"}},
		{"vendor", Filters{Vendor: "Salesforce"}, []string{"Slack"}},
		{"type set", Filters{Types: []Type{TypePerpetual}}, []string{}},
		{"expired", Filters{Status: StatusExpired}, []string{"Office"}},
		{"expiring", Filters{Status: StatusExpiring}, []string{"Visio"}},
		{"active", Filters{Status: StatusActive}, []string{"Slack"}},
		{"combined", Filters{Vendor: "Microsoft", Status: StatusExpiring}, []string{"Visio"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.svc.LoadLicensesPaginated(ctx, "acme", tt.filters)
			require.NoError(t, err)
			require.Equal(t, tt.want, names(page.Licenses))
		})
	}

	page, err := f.svc.LoadLicensesPaginated(ctx, "acme", Filters{})
	require.NoError(t, err)
	require.Equal(t, -15, page.Licenses[2].DaysUntilExpiry)
	require.True(t, page.Licenses[2].IsExpired)

	second := Filters{}
	second.Pagination.Page, second.Pagination.PageSize = 2, 2
	page, err = f.svc.LoadLicensesPaginated(ctx, "acme", second)
	require.NoError(t, err)
	require.Equal(t, []string{"Office"}, names(page.Licenses))
	require.Equal(t, 2, page.PageInfo.TotalPages)
	require.False(t, page.PageInfo.HasMore)

	_, err = f.svc.LoadLicensesPaginated(ctx, "initech", Filters{})
	require.True(t, errutil.IsNotFound(err))
}

func names(rows []Summary) []string {
	out := []string{}
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestLoadLicenseStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2023, 1, 1), testutil.Date(2024, 1, 10))
	visio := f.seedLicense(t, f.accountID, "Visio", "Microsoft", "MS-2", testutil.Date(2024, 1, 1), testutil.Date(2024, 1, 31))
	f.seedLicense(t, f.accountID, "Slack", "Salesforce", "SL-1", testutil.Date(2024, 1, 1), testutil.Date(2025, 1, 1))
	userID := f.seedMember(t, "jane@acme.test")
	_, err := f.svc.AssignLicense(ctx, f.admin(), AssignLicenseInput{AccountSlug: "acme", LicenseID: visio.ID, UserID: userID})
	require.NoError(t, err)

	stats, err := f.svc.LoadLicenseStats(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, Stats{Total: 3, ExpiringSoon: 1, Expired: 1, TotalAssignments: 1}, stats)

	vendors, err := f.svc.LoadVendors(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, []string{"Microsoft", "Salesforce"}, vendors)
}

func TestLoadLicenseStatsDegradesToZero(t *testing.T) {
	// no assignment table: the aggregate fails part way
	f := newFixture(t, &account.Account{}, &License{}, &activity.Log{})
	f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2023, 1, 1), testutil.Date(2024, 1, 10))

	stats, err := f.svc.LoadLicenseStats(context.Background(), "acme")
	require.NoError(t, err)
	require.Equal(t, Stats{}, stats)
}
