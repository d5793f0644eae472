package member

import (
	"time"

	"smallbiznis-backoffice/pkg/permission"
)

type User struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
	Email     string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
}

func (User) TableName() string { return "users" }

type Profile struct {
	UserID      string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
	DisplayName *string   `gorm:"column:display_name" json:"display_name"`
	Phone       *string   `gorm:"column:phone" json:"phone"`
	JobTitle    *string   `gorm:"column:job_title" json:"job_title"`
	Department  *string   `gorm:"column:department" json:"department"`
	Location    *string   `gorm:"column:location" json:"location"`
	Bio         *string   `gorm:"column:bio" json:"bio"`
	AvatarURL   *string   `gorm:"column:avatar_url" json:"avatar_url"`
}

func (Profile) TableName() string { return "user_profiles" }

// Membership is unique per (account, user).
type Membership struct {
	ID        string          `gorm:"column:id;primaryKey" json:"id"`
	AccountID string          `gorm:"column:account_id;not null;uniqueIndex:idx_memberships_account_user,priority:1" json:"account_id"`
	UserID    string          `gorm:"column:user_id;not null;uniqueIndex:idx_memberships_account_user,priority:2" json:"user_id"`
	Role      permission.Role `gorm:"column:role;not null" json:"role"`
	JoinedAt  time.Time       `gorm:"column:joined_at" json:"joined_at"`
}

func (Membership) TableName() string { return "memberships" }

type Status string

const (
	StatusActive            Status = "active"
	StatusInactive          Status = "inactive"
	StatusSuspended         Status = "suspended"
	StatusPendingInvitation Status = "pending_invitation"
)

// AccountStatus is optional; a member without a row is active.
type AccountStatus struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	AccountID string    `gorm:"column:account_id;not null;uniqueIndex:idx_account_statuses_account_user,priority:1" json:"account_id"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:idx_account_statuses_account_user,priority:2" json:"user_id"`
	Status    Status    `gorm:"column:status;not null" json:"status"`
	Reason    *string   `gorm:"column:reason" json:"reason"`
	ChangedAt time.Time `gorm:"column:changed_at" json:"changed_at"`
	ChangedBy string    `gorm:"column:changed_by" json:"changed_by"`
}

func (AccountStatus) TableName() string { return "account_statuses" }

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
	InvitationExpired  InvitationStatus = "expired"
)

type Invitation struct {
	ID         string           `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt  time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"column:updated_at" json:"updated_at"`
	AccountID  string           `gorm:"column:account_id;not null;index" json:"account_id"`
	Email      string           `gorm:"column:email;not null;index" json:"email"`
	Role       permission.Role  `gorm:"column:role;not null" json:"role"`
	TokenHash  string           `gorm:"column:token_hash;uniqueIndex;not null" json:"-"`
	Status     InvitationStatus `gorm:"column:status;not null" json:"status"`
	InvitedBy  string           `gorm:"column:invited_by" json:"invited_by"`
	ExpiresAt  time.Time        `gorm:"column:expires_at" json:"expires_at"`
	AcceptedAt *time.Time       `gorm:"column:accepted_at" json:"accepted_at"`
}

func (Invitation) TableName() string { return "invitations" }

// Member is the list and detail view of a team member.
type Member struct {
	UserID     string          `json:"user_id"`
	Email      string          `json:"email"`
	Role       permission.Role `json:"role"`
	JoinedAt   time.Time       `json:"joined_at"`
	Status     Status          `json:"status"`
	Profile    *Profile        `json:"profile,omitempty"`
	AssetCount int64           `json:"asset_count"`
}
