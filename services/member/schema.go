package member

import (
	"strings"

	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/validation"
)

const (
	MaxReasonLength = 500
	MaxAvatarBytes  = 2 << 20
)

type InviteMemberInput struct {
	AccountSlug string `json:"account_slug"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Role        string `json:"role" validate:"required,oneof=admin member viewer"`
}

func ParseInviteMember(in InviteMemberInput) validation.Result[InviteMemberInput] {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.TrimSpace(in.Role)
	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[InviteMemberInput](details...)
	}
	return validation.Result[InviteMemberInput]{Value: in}
}

type AcceptInvitationInput struct {
	AccountSlug string `json:"account_slug"`
	Token       string `json:"token" validate:"required,uuid"`
}

func ParseAcceptInvitation(in AcceptInvitationInput) validation.Result[AcceptInvitationInput] {
	in.Token = strings.TrimSpace(in.Token)
	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[AcceptInvitationInput](details...)
	}
	return validation.Result[AcceptInvitationInput]{Value: in}
}

type RevokeInvitationInput struct {
	AccountSlug  string `json:"account_slug"`
	InvitationID string `json:"invitation_id" validate:"required,snowflake"`
}

func ParseRevokeInvitation(in RevokeInvitationInput) validation.Result[RevokeInvitationInput] {
	in.InvitationID = strings.TrimSpace(in.InvitationID)
	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[RevokeInvitationInput](details...)
	}
	return validation.Result[RevokeInvitationInput]{Value: in}
}

type UpdateRoleInput struct {
	AccountSlug string `json:"account_slug"`
	UserID      string `json:"user_id" validate:"required,snowflake"`
	Role        string `json:"role" validate:"required,oneof=admin member viewer"`
}

func ParseUpdateRole(in UpdateRoleInput) validation.Result[UpdateRoleInput] {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Role = strings.TrimSpace(in.Role)
	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[UpdateRoleInput](details...)
	}
	return validation.Result[UpdateRoleInput]{Value: in}
}

type UpdateStatusInput struct {
	AccountSlug string  `json:"account_slug"`
	UserID      string  `json:"user_id" validate:"required,snowflake"`
	Status      string  `json:"status" validate:"required,oneof=active inactive suspended"`
	Reason      *string `json:"reason" validate:"omitempty,max=500"`
}

func ParseUpdateStatus(in UpdateStatusInput) validation.Result[UpdateStatusInput] {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Status = strings.TrimSpace(in.Status)
	in.Reason = validation.OptionalString(in.Reason)
	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[UpdateStatusInput](details...)
	}
	return validation.Result[UpdateStatusInput]{Value: in}
}

type UpdateProfileInput struct {
	AccountSlug string  `json:"account_slug"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	JobTitle    *string `json:"job_title" validate:"omitempty,max=100"`
	Department  *string `json:"department" validate:"omitempty,max=100"`
	Location    *string `json:"location" validate:"omitempty,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=1000"`
}

func ParseUpdateProfile(in UpdateProfileInput) validation.Result[UpdateProfileInput] {
	in.DisplayName = validation.OptionalString(in.DisplayName)
	in.Phone = validation.OptionalString(in.Phone)
	in.JobTitle = validation.OptionalString(in.JobTitle)
	in.Department = validation.OptionalString(in.Department)
	in.Location = validation.OptionalString(in.Location)
	in.Bio = validation.OptionalString(in.Bio)
	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[UpdateProfileInput](details...)
	}
	return validation.Result[UpdateProfileInput]{Value: in}
}

var avatarTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

type UploadAvatarInput struct {
	AccountSlug string `json:"account_slug"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ParseUploadAvatar returns the file extension for the accepted image type.
func ParseUploadAvatar(in UploadAvatarInput) validation.Result[string] {
	var details []errutil.Detail
	ext, ok := avatarTypes[strings.ToLower(strings.TrimSpace(in.ContentType))]
	if !ok {
		details = append(details, errutil.Detail{Field: "file", Message: "Must be a PNG, JPEG, WebP or GIF image"})
	}
	switch {
	case in.Size <= 0:
		details = append(details, errutil.Detail{Field: "file", Message: "File is empty"})
	case in.Size > MaxAvatarBytes:
		details = append(details, errutil.Detail{Field: "file", Message: "File must be 2 MB or smaller"})
	}
	if len(details) > 0 {
		return validation.Fail[string](details...)
	}
	return validation.Result[string]{Value: ext}
}
