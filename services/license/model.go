package license

import (
	"time"

	"smallbiznis-backoffice/pkg/db/pagination"
)

type Type string

const (
	TypePerpetual    Type = "perpetual"
	TypeSubscription Type = "subscription"
	TypeVolume       Type = "volume"
	TypeOEM          Type = "oem"
	TypeTrial        Type = "trial"
	TypeEducational  Type = "educational"
	TypeEnterprise   Type = "enterprise"
)

type License struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
	AccountID      string    `gorm:"column:account_id;not null;uniqueIndex:idx_licenses_account_key,priority:1" json:"account_id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Vendor         string    `gorm:"column:vendor;not null" json:"vendor"`
	LicenseKey     string    `gorm:"column:license_key;not null;uniqueIndex:idx_licenses_account_key,priority:2" json:"license_key"`
	LicenseType    Type      `gorm:"column:license_type;not null" json:"license_type"`
	PurchaseDate   time.Time `gorm:"column:purchase_date;not null" json:"purchase_date"`
	ExpirationDate time.Time `gorm:"column:expiration_date;not null;index" json:"expiration_date"`
	Cost           *float64  `gorm:"column:cost" json:"cost"`
	Notes          *string   `gorm:"column:notes" json:"notes"`
	CreatedBy      string    `gorm:"column:created_by" json:"created_by"`
	UpdatedBy      string    `gorm:"column:updated_by" json:"updated_by"`
}

func (License) TableName() string { return "licenses" }

// Assignment links a license to exactly one user or one asset.
type Assignment struct {
	ID              string    `gorm:"column:id;primaryKey" json:"id"`
	AccountID       string    `gorm:"column:account_id;not null;index" json:"account_id"`
	LicenseID       string    `gorm:"column:license_id;not null;uniqueIndex:idx_assignments_license_user,priority:1;uniqueIndex:idx_assignments_license_asset,priority:1" json:"license_id"`
	AssignedToUser  *string   `gorm:"column:assigned_to_user;uniqueIndex:idx_assignments_license_user,priority:2" json:"assigned_to_user"`
	AssignedToAsset *string   `gorm:"column:assigned_to_asset;uniqueIndex:idx_assignments_license_asset,priority:2" json:"assigned_to_asset"`
	AssignedBy      string    `gorm:"column:assigned_by" json:"assigned_by"`
	AssignedAt      time.Time `gorm:"column:assigned_at" json:"assigned_at"`
	Notes           *string   `gorm:"column:notes" json:"notes"`
}

func (Assignment) TableName() string { return "license_assignments" }

type AlertType string

const (
	Alert30Day AlertType = "30_day"
	Alert7Day  AlertType = "7_day"
)

// RenewalAlert rows are written by the external renewal scheduler.
type RenewalAlert struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	AccountID string    `gorm:"column:account_id;not null;index" json:"account_id"`
	LicenseID string    `gorm:"column:license_id;not null;index" json:"license_id"`
	AlertType AlertType `gorm:"column:alert_type;not null" json:"alert_type"`
	SentAt    time.Time `gorm:"column:sent_at" json:"sent_at"`
}

func (RenewalAlert) TableName() string { return "license_renewal_alerts" }

// Summary is one row of the list view.
type Summary struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Name            string    `json:"name"`
	Vendor          string    `json:"vendor"`
	LicenseKey      string    `json:"license_key"`
	LicenseType     Type      `json:"license_type"`
	PurchaseDate    time.Time `json:"purchase_date"`
	ExpirationDate  time.Time `json:"expiration_date"`
	AssignmentCount int64     `json:"assignment_count"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
	IsExpired       bool      `json:"is_expired"`
	ExpiryStatus    Bucket    `json:"expiry_status"`
}

type Detail struct {
	*License
	DaysUntilExpiry int    `json:"days_until_expiry"`
	IsExpired       bool   `json:"is_expired"`
	ExpiryStatus    Bucket `json:"expiry_status"`
	ExpiryLabel     string `json:"expiry_label"`
}

type UserSummary struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name"`
}

type AssetSummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	SerialNumber *string `json:"serial_number"`
}

type AssignmentView struct {
	Assignment
	User  *UserSummary  `json:"user,omitempty"`
	Asset *AssetSummary `json:"asset,omitempty"`
}

type Stats struct {
	Total            int64 `json:"total"`
	ExpiringSoon     int64 `json:"expiring_soon"`
	Expired          int64 `json:"expired"`
	TotalAssignments int64 `json:"total_assignments"`
}

type Page struct {
	Licenses []Summary           `json:"licenses"`
	PageInfo pagination.PageInfo `json:"page_info"`
}
