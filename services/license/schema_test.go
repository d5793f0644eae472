package license

import (
	"strings"
	"testing"

	"smallbiznis-backoffice/pkg/errutil"

	"github.com/stretchr/testify/require"
)

func validCreateInput() CreateLicenseInput {
	return CreateLicenseInput{
		AccountSlug:    "acme",
		Name:           " Figma Professional ",
		Vendor:         "Figma",
		LicenseKey:     "FIG-001",
		LicenseType:    TypeSubscription,
		PurchaseDate:   "2024-01-01",
		ExpirationDate: "2024-01-31",
	}
}

func fields(details []errutil.Detail) []string {
	out := make([]string, 0, len(details))
	for _, d := range details {
		out = append(out, d.Field)
	}
	return out
}

func TestParseCreateLicense(t *testing.T) {
	res := ParseCreateLicense(validCreateInput())
	require.True(t, res.OK())
	require.Equal(t, "Figma Professional", res.Value.Name)
	require.Equal(t, "2024-01-31", res.Value.ExpirationDate.Format("2006-01-02"))
}

func TestParseCreateLicenseExpirationMustFollowPurchase(t *testing.T) {
	for _, expiration := range []string{"2024-01-01", "2023-12-31"} {
		in := validCreateInput()
		in.ExpirationDate = expiration

		res := ParseCreateLicense(in)
		require.False(t, res.OK())
		require.Equal(t, []errutil.Detail{{Field: "expiration_date", Message: MsgExpirationBeforePurchase}}, res.Errors)
	}

	// reported alongside unrelated failures
	in := validCreateInput()
	in.Name = ""
	in.LicenseType = "shareware"
	in.ExpirationDate = "2023-06-01"
	res := ParseCreateLicense(in)
	require.ElementsMatch(t, []string{"name", "license_type", "expiration_date"}, fields(res.Errors))
}

func TestParseCreateLicenseShape(t *testing.T) {
	in := validCreateInput()
	in.PurchaseDate = "01/01/2024"
	cost := -1.0
	in.Cost = &cost
	notes := strings.Repeat("x", MaxNotesLength+1)
	in.Notes = &notes

	res := ParseCreateLicense(in)
	require.ElementsMatch(t, []string{"purchase_date", "cost", "notes"}, fields(res.Errors))
}

func TestParseUpdateLicense(t *testing.T) {
	res := ParseUpdateLicense(UpdateLicenseInput{ID: "not-an-id", CreateLicenseInput: validCreateInput()})
	require.Equal(t, []string{"id"}, fields(res.Errors))

	res = ParseUpdateLicense(UpdateLicenseInput{ID: " 1750000000000000000 ", CreateLicenseInput: validCreateInput()})
	require.True(t, res.OK())
	require.Equal(t, "1750000000000000000", res.Value.ID)

	in := UpdateLicenseInput{ID: "1750000000000000000", CreateLicenseInput: validCreateInput()}
	in.ExpirationDate = "2023-01-01"
	res = ParseUpdateLicense(in)
	require.Equal(t, []string{"expiration_date"}, fields(res.Errors))
}

func TestParseAssignLicense(t *testing.T) {
	const id = "1750000000000000000"

	res := ParseAssignLicense(AssignLicenseInput{LicenseID: id})
	require.Equal(t, []string{"user_id"}, fields(res.Errors))

	res = ParseAssignLicense(AssignLicenseInput{LicenseID: id, UserID: id, AssetID: id})
	require.Equal(t, []string{"asset_id"}, fields(res.Errors))

	long := strings.Repeat("n", MaxNotesLength+1)
	res = ParseAssignLicense(AssignLicenseInput{LicenseID: "x", UserID: id, Notes: &long})
	require.ElementsMatch(t, []string{"license_id", "notes"}, fields(res.Errors))

	blank := "   "
	res = ParseAssignLicense(AssignLicenseInput{LicenseID: id, AssetID: id, Notes: &blank})
	require.True(t, res.OK())
	require.Nil(t, res.Value.Notes)
}

func TestParseLicenseFilters(t *testing.T) {
	res := ParseLicenseFilters(FilterInput{Types: []string{"trial,oem", " volume "}, Status: "expiring", Page: 0, PageSize: 500})
	require.True(t, res.OK())
	require.Equal(t, []Type{TypeTrial, TypeOEM, TypeVolume}, res.Value.Types)
	require.Equal(t, 1, res.Value.Pagination.Page)
	require.Equal(t, 100, res.Value.Pagination.PageSize)

	res = ParseLicenseFilters(FilterInput{Status: "soon"})
	require.Equal(t, []string{"status"}, fields(res.Errors))
}

func TestParseBulkRenew(t *testing.T) {
	res := ParseBulkRenew(BulkRenewInput{ExpirationDate: "2025-01-01"})
	require.Equal(t, []string{"license_ids"}, fields(res.Errors))

	res = ParseBulkRenew(BulkRenewInput{LicenseIDs: []string{"a"}, ExpirationDate: "2025-01-01"})
	require.True(t, res.OK())
	require.Equal(t, "2025-01-01", res.Value.ExpirationDate.Format("2006-01-02"))
}
