package license

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"smallbiznis-backoffice/pkg/featureflags"
	"smallbiznis-backoffice/pkg/testutil"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestEscapeCSV(t *testing.T) {
	require.Equal(t, "plain", EscapeCSV("plain"))
	require.Equal(t, `"a,b"`, EscapeCSV("a,b"))
	require.Equal(t, `"say ""hi"""`, EscapeCSV(`say "hi"`))
	require.Equal(t, "\"line\nbreak\"", EscapeCSV("line\nbreak"))
}

func TestWriteCSVRoundTrip(t *testing.T) {
	cost := 1200.5
	notes := "Seats for design\nand \"marketing\""
	rows := []ExportRow{{
		License: &License{
			Name:           "Adobe, Creative Cloud",
			Vendor:         "Adobe",
			LicenseKey:     "CC-1",
			LicenseType:    TypeSubscription,
			PurchaseDate:   testutil.Date(2024, 1, 1),
			ExpirationDate: testutil.Date(2024, 1, 31),
			Cost:           &cost,
			Notes:          &notes,
		},
		Counts: AssignmentCount{Users: 3, Assets: 1},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows, testutil.Date(2024, 1, 25)))
	require.True(t, strings.HasPrefix(buf.String(),
		"Name,Vendor,License Key,License Type,Purchase Date,Expiration Date,Days Until Expiry,Status,Cost,Total Assignments,User Assignments,Asset Assignments,Notes\n"))
	require.Contains(t, buf.String(), `"Adobe, Creative Cloud"`)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, ExportHeader, records[0])
	require.Equal(t, []string{
		"Adobe, Creative Cloud", "Adobe", "CC-1", "subscription", "2024-01-01", "2024-01-31",
		"6", "Expiring Soon (7 days)", "1200.50", "4", "3", "1", notes,
	}, records[1])
}

func TestExportLicenses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	office := f.seedLicense(t, f.accountID, "Office", "Microsoft", "MS-1", testutil.Date(2023, 1, 1), testutil.Date(2024, 1, 10))
	f.seedLicense(t, f.accountID, "Slack", "Salesforce", "SL-1", testutil.Date(2024, 1, 1), testutil.Date(2025, 1, 1))
	userID := f.seedMember(t, "jane@acme.test")
	assetID := f.seedAsset(t, "MacBook 14")
	for _, in := range []AssignLicenseInput{
		{AccountSlug: "acme", LicenseID: office.ID, UserID: userID},
		{AccountSlug: "acme", LicenseID: office.ID, AssetID: assetID},
	} {
		res, err := f.svc.AssignLicense(ctx, f.admin(), in)
		require.NoError(t, err)
		require.True(t, res.Success)
	}

	res, err := f.svc.ExportLicenses(ctx, f.admin(), "acme", FilterInput{Vendor: "Microsoft", PageSize: 1}, FormatCSV)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "licenses-2024-01-25.csv", res.Data.Filename)

	records, err := csv.NewReader(bytes.NewReader(res.Data.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Office", records[1][0])
	require.Equal(t, "Expired", records[1][7])
	require.Equal(t, []string{"2", "1", "1"}, records[1][9:12])

	xlsx, err := f.svc.ExportLicenses(ctx, f.admin(), "acme", FilterInput{}, FormatXLSX)
	require.NoError(t, err)
	require.Equal(t, 2, xlsx.Data.Rows)

	book, err := excelize.OpenReader(bytes.NewReader(xlsx.Data.Body))
	require.NoError(t, err)
	defer book.Close()
	sheet, err := book.GetRows("Licenses")
	require.NoError(t, err)
	require.Len(t, sheet, 3)
	require.Equal(t, ExportHeader, sheet[0])
	require.Equal(t, "Slack", sheet[1][0])
}

func TestExportXLSXBehindFlag(t *testing.T) {
	f := newFixture(t)
	f.svc.flags = featureflags.Static{featureflags.LicenseExportXLSX: false}

	res, err := f.svc.ExportLicenses(context.Background(), f.admin(), "acme", FilterInput{}, FormatXLSX)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, MsgXLSXDisabled, res.Message)

	res, err = f.svc.ExportLicenses(context.Background(), f.admin(), "acme", FilterInput{}, FormatCSV)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 0, res.Data.Rows)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.ExportLicenses(context.Background(), f.admin(), "acme", FilterInput{}, Format("pdf"))
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "format", res.Errors[0].Field)

	res, err = f.svc.ExportLicenses(context.Background(), f.admin(), "acme", FilterInput{}, Format(" XLSX "))
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", res.Data.ContentType)
}
