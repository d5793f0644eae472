package license

import (
	"strings"
	"time"

	"smallbiznis-backoffice/pkg/db/pagination"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/validation"
)

const (
	MaxNotesLength = 1000
	MaxBulkIDs     = 100
)

type CreateLicenseInput struct {
	AccountSlug    string   `json:"account_slug"`
	Name           string   `json:"name" validate:"required,max=255"`
	Vendor         string   `json:"vendor" validate:"required,max=255"`
	LicenseKey     string   `json:"license_key" validate:"required,max=500"`
	LicenseType    Type     `json:"license_type" validate:"required,oneof=perpetual subscription volume oem trial educational enterprise"`
	PurchaseDate   string   `json:"purchase_date" validate:"required,date"`
	ExpirationDate string   `json:"expiration_date" validate:"required,date"`
	Cost           *float64 `json:"cost" validate:"omitempty,gte=0"`
	Notes          *string  `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateLicenseInput struct {
	ID string `json:"id"`
	CreateLicenseInput
}

// Values is the normalized form of a create or update payload. ID is empty
// for creates.
type Values struct {
	ID             string
	Name           string
	Vendor         string
	LicenseKey     string
	LicenseType    Type
	PurchaseDate   time.Time
	ExpirationDate time.Time
	Cost           *float64
	Notes          *string
}

func (in *CreateLicenseInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Vendor = strings.TrimSpace(in.Vendor)
	in.LicenseKey = strings.TrimSpace(in.LicenseKey)
	in.PurchaseDate = strings.TrimSpace(in.PurchaseDate)
	in.ExpirationDate = strings.TrimSpace(in.ExpirationDate)
	in.Notes = validation.OptionalString(in.Notes)
}

// ParseCreateLicense validates a create payload. The expiration must fall
// strictly after the purchase date; that error is reported on expiration_date.
func ParseCreateLicense(in CreateLicenseInput) validation.Result[Values] {
	in.normalize()
	details := validation.Struct(in)
	return buildValues(in, details)
}

func ParseUpdateLicense(in UpdateLicenseInput) validation.Result[Values] {
	in.ID = strings.TrimSpace(in.ID)
	in.CreateLicenseInput.normalize()

	var details []errutil.Detail
	if err := validation.Validator().Var(in.ID, "required,snowflake"); err != nil {
		details = append(details, errutil.Detail{Field: "id", Message: "Must be a valid identifier"})
	}
	details = append(details, validation.Struct(in.CreateLicenseInput)...)
	res := buildValues(in.CreateLicenseInput, details)
	res.Value.ID = in.ID
	return res
}

func buildValues(in CreateLicenseInput, details []errutil.Detail) validation.Result[Values] {
	purchase, perr := validation.ParseDate(in.PurchaseDate)
	expiration, eerr := validation.ParseDate(in.ExpirationDate)
	if perr == nil && eerr == nil && !expiration.After(purchase) {
		details = append(details, errutil.Detail{
			Field:   "expiration_date",
			Message: "Expiration date must be after purchase date",
		})
	}
	if len(details) > 0 {
		return validation.Fail[Values](details...)
	}

	return validation.Result[Values]{Value: Values{
		Name:           in.Name,
		Vendor:         in.Vendor,
		LicenseKey:     in.LicenseKey,
		LicenseType:    in.LicenseType,
		PurchaseDate:   purchase,
		ExpirationDate: expiration,
		Cost:           in.Cost,
		Notes:          in.Notes,
	}}
}

type AssignLicenseInput struct {
	AccountSlug string  `json:"account_slug"`
	LicenseID   string  `json:"license_id" validate:"required,snowflake"`
	UserID      string  `json:"user_id" validate:"omitempty,snowflake"`
	AssetID     string  `json:"asset_id" validate:"omitempty,snowflake"`
	Notes       *string `json:"notes" validate:"omitempty,max=1000"`
}

// ParseAssignLicense requires exactly one of user_id and asset_id.
func ParseAssignLicense(in AssignLicenseInput) validation.Result[AssignLicenseInput] {
	in.LicenseID = strings.TrimSpace(in.LicenseID)
	in.UserID = strings.TrimSpace(in.UserID)
	in.AssetID = strings.TrimSpace(in.AssetID)
	in.Notes = validation.OptionalString(in.Notes)

	details := validation.Struct(in)
	switch {
	case in.UserID == "" && in.AssetID == "":
		details = append(details, errutil.Detail{Field: "user_id", Message: "Select a user or an asset"})
	case in.UserID != "" && in.AssetID != "":
		details = append(details, errutil.Detail{Field: "asset_id", Message: "Only one target may be set"})
	}
	if len(details) > 0 {
		return validation.Fail[AssignLicenseInput](details...)
	}
	return validation.Result[AssignLicenseInput]{Value: in}
}

type UnassignLicenseInput struct {
	AccountSlug  string `json:"account_slug"`
	AssignmentID string `json:"assignment_id" validate:"required,snowflake"`
}

func ParseUnassignLicense(in UnassignLicenseInput) validation.Result[UnassignLicenseInput] {
	in.AssignmentID = strings.TrimSpace(in.AssignmentID)
	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[UnassignLicenseInput](details...)
	}
	return validation.Result[UnassignLicenseInput]{Value: in}
}

type DeleteLicenseInput struct {
	AccountSlug string `json:"account_slug"`
	ID          string `json:"id" validate:"required,snowflake"`
}

func ParseDeleteLicense(in DeleteLicenseInput) validation.Result[DeleteLicenseInput] {
	in.ID = strings.TrimSpace(in.ID)
	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[DeleteLicenseInput](details...)
	}
	return validation.Result[DeleteLicenseInput]{Value: in}
}

// BulkIDsInput carries ids that are checked one by one by the bulk actions,
// so malformed ids are reported per item rather than rejecting the batch.
type BulkIDsInput struct {
	AccountSlug string   `json:"account_slug"`
	LicenseIDs  []string `json:"license_ids" validate:"required,min=1,max=100"`
}

func ParseBulkIDs(in BulkIDsInput) validation.Result[BulkIDsInput] {
	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[BulkIDsInput](details...)
	}
	return validation.Result[BulkIDsInput]{Value: in}
}

type BulkRenewInput struct {
	AccountSlug    string   `json:"account_slug"`
	LicenseIDs     []string `json:"license_ids" validate:"required,min=1,max=100"`
	ExpirationDate string   `json:"expiration_date" validate:"required,date"`
}

type BulkRenewValues struct {
	LicenseIDs     []string
	ExpirationDate time.Time
}

func ParseBulkRenew(in BulkRenewInput) validation.Result[BulkRenewValues] {
	in.ExpirationDate = strings.TrimSpace(in.ExpirationDate)
	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[BulkRenewValues](details...)
	}
	expiration, _ := validation.ParseDate(in.ExpirationDate)
	return validation.Result[BulkRenewValues]{Value: BulkRenewValues{
		LicenseIDs:     in.LicenseIDs,
		ExpirationDate: expiration,
	}}
}

// FilterInput is the query string of the list and export views.
type FilterInput struct {
	Search   string   `form:"search" json:"search" validate:"max=255"`
	Vendor   string   `form:"vendor" json:"vendor" validate:"max=255"`
	Types    []string `form:"type" json:"type" validate:"dive,oneof=perpetual subscription volume oem trial educational enterprise"`
	Status   string   `form:"status" json:"status" validate:"omitempty,oneof=active expiring expired"`
	Page     int      `form:"page" json:"page" validate:"gte=0"`
	PageSize int      `form:"page_size" json:"page_size" validate:"gte=0"`
}

type Filters struct {
	Search     string
	Vendor     string
	Types      []Type
	Status     string
	Pagination pagination.Pagination
}

func ParseLicenseFilters(in FilterInput) validation.Result[Filters] {
	in.Search = strings.TrimSpace(in.Search)
	in.Vendor = strings.TrimSpace(in.Vendor)
	in.Status = strings.TrimSpace(in.Status)

	types := make([]string, 0, len(in.Types))
	for _, t := range in.Types {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				types = append(types, part)
			}
		}
	}
	in.Types = types

	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[Filters](details...)
	}

	f := Filters{
		Search:     in.Search,
		Vendor:     in.Vendor,
		Status:     in.Status,
		Pagination: pagination.Pagination{Page: in.Page, PageSize: in.PageSize}.Normalize(),
	}
	for _, t := range in.Types {
		f.Types = append(f.Types, Type(t))
	}
	return validation.Result[Filters]{Value: f}
}
