package member

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"smallbiznis-backoffice/internal/guard"
	"smallbiznis-backoffice/pkg/db/option"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/identity"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/permission"
	"smallbiznis-backoffice/pkg/rediskey"
	"smallbiznis-backoffice/pkg/result"
	"smallbiznis-backoffice/services/activity"
	"smallbiznis-backoffice/services/mail"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MsgPendingInvitation  = "This user already has a pending invitation"
	MsgAlreadyMember      = "This user is already a member of this team"
	MsgMemberNotFound     = "Member not found"
	MsgOwnerRoleLocked    = "The owner's role cannot be changed"
	MsgOwnerStatusLocked  = "The owner's account status cannot be changed"
	MsgSelfDeactivation   = "You cannot deactivate your own account"
	MsgInvitationNotFound = "Invitation not found"
	MsgInvitationExpired  = "This invitation has expired"
	MsgInvitationEmail    = "This invitation was sent to a different email address"
)

const defaultInvitationTTL = 7 * 24 * time.Hour

// HashToken is the stored form of an invitation token.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Service) record(ctx context.Context, scope guard.Scope, action, entityType, entityID string, meta map[string]any) {
	s.activity.Record(ctx, activity.Entry{
		AccountID:  scope.AccountID,
		ActorID:    scope.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   meta,
	})
}

func (s *Service) invitationTTL() time.Duration {
	if s.cfg != nil && s.cfg.Invitation.TTL > 0 {
		return s.cfg.Invitation.TTL
	}
	return defaultInvitationTTL
}

func (s *Service) acceptURL(slug, token string) string {
	base := ""
	if s.cfg != nil {
		base = strings.TrimRight(s.cfg.Mail.AppURL, "/")
	}
	return fmt.Sprintf("%s/invitations/accept?account=%s&token=%s", base, url.QueryEscape(slug), url.QueryEscape(token))
}

// InviteMember creates a pending invitation and queues its email. A failed
// enqueue is logged and leaves the invitation in place.
func (s *Service) InviteMember(ctx context.Context, sess identity.Session, in InviteMemberInput) (result.Result[*Invitation], error) {
	parsed := ParseInviteMember(in)
	if !parsed.OK() {
		return result.Invalid[*Invitation](parsed.Errors), nil
	}
	in = parsed.Value

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.MembersInvite)
	if err != nil {
		return result.From[*Invitation](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID))
	failed := result.Fail[*Invitation]("Failed to send invitation")
	now := s.now().UTC()

	pending, err := s.invitations.Count(ctx,
		&Invitation{AccountID: scope.AccountID, Email: in.Email, Status: InvitationPending},
		option.ApplyWhere("expires_at > ?", now),
	)
	if err != nil {
		zapLog.Error("failed to check pending invitations", zap.Error(err))
		return failed, nil
	}
	if pending > 0 {
		return result.Fail[*Invitation](MsgPendingInvitation), nil
	}

	var members int64
	err = s.db.WithContext(ctx).
		Table("memberships AS m").
		Joins("JOIN users u ON u.id = m.user_id").
		Where("m.account_id = ? AND LOWER(u.email) = ?", scope.AccountID, in.Email).
		Count(&members).Error
	if err != nil {
		zapLog.Error("failed to check existing membership", zap.Error(err))
		return failed, nil
	}
	if members > 0 {
		return result.Fail[*Invitation](MsgAlreadyMember), nil
	}

	token := uuid.NewString()
	inv := &Invitation{
		ID:        s.node.Generate().String(),
		AccountID: scope.AccountID,
		Email:     in.Email,
		Role:      permission.Role(in.Role),
		TokenHash: HashToken(token),
		Status:    InvitationPending,
		InvitedBy: scope.UserID,
		ExpiresAt: now.Add(s.invitationTTL()),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		zapLog.Error("failed to create invitation", zap.Error(err))
		return failed, nil
	}

	s.sendInvitation(ctx, scope, inv, token)
	s.record(ctx, scope, "member.invited", "invitation", inv.ID, map[string]any{"email": inv.Email, "role": inv.Role})
	s.invalidator.Paths(ctx, rediskey.MembersPath(scope.AccountSlug))

	return result.OK(inv, "Invitation sent to "+inv.Email), nil
}

func (s *Service) sendInvitation(ctx context.Context, scope guard.Scope, inv *Invitation, token string) {
	zapLog := logger.FromContext(ctx).With(zap.String("invitation_id", inv.ID))

	accountName := scope.AccountSlug
	if acct, err := s.accounts.GetByID(ctx, scope.AccountID); err == nil && acct != nil {
		accountName = acct.Name
	}

	t, err := mail.NewInvitationTask(mail.InvitationPayload{
		InvitationID: inv.ID,
		Email:        inv.Email,
		AccountName:  accountName,
		InviterEmail: scope.UserEmail,
		Role:         string(inv.Role),
		AcceptURL:    s.acceptURL(scope.AccountSlug, token),
		ExpiresAt:    inv.ExpiresAt,
	})
	if err != nil {
		zapLog.Warn("failed to build invitation email task", zap.Error(err))
		return
	}
	if _, err := s.enqueuer.Enqueue(ctx, t); err != nil {
		zapLog.Warn("failed to enqueue invitation email", zap.Error(err))
	}
}

// AcceptInvitation joins the authenticated user to the inviting account. The
// user's email must match the invited address.
func (s *Service) AcceptInvitation(ctx context.Context, sess identity.Session, in AcceptInvitationInput) (result.Result[*Membership], error) {
	parsed := ParseAcceptInvitation(in)
	if !parsed.OK() {
		return result.Invalid[*Membership](parsed.Errors), nil
	}

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, "")
	if err != nil {
		return result.From[*Membership](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID))
	failed := result.Fail[*Membership]("Failed to accept invitation")
	now := s.now().UTC()

	inv, err := s.invitations.FindOne(ctx, &Invitation{AccountID: scope.AccountID, TokenHash: HashToken(parsed.Value.Token)})
	if err != nil {
		zapLog.Error("failed to load invitation", zap.Error(err))
		return failed, nil
	}
	if inv == nil || inv.Status != InvitationPending {
		return result.Fail[*Membership](MsgInvitationNotFound), nil
	}
	if !inv.ExpiresAt.After(now) {
		if err := s.invitations.Update(ctx, inv.ID, map[string]any{"status": InvitationExpired}); err != nil {
			zapLog.Warn("failed to mark invitation expired", zap.Error(err))
		}
		return result.Fail[*Membership](MsgInvitationExpired), nil
	}
	if !strings.EqualFold(inv.Email, scope.UserEmail) {
		return result.Fail[*Membership](MsgInvitationEmail), nil
	}

	m := &Membership{
		ID:        s.node.Generate().String(),
		AccountID: scope.AccountID,
		UserID:    scope.UserID,
		Role:      inv.Role,
		JoinedAt:  now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.memberships.WithTrx(tx).Create(ctx, m); err != nil {
			return err
		}
		return s.invitations.WithTrx(tx).Update(ctx, inv.ID, map[string]any{
			"status":      InvitationAccepted,
			"accepted_at": now,
		})
	})
	if err != nil {
		if errutil.IsDuplicate(err) {
			return result.Fail[*Membership]("You are already a member of this team"), nil
		}
		zapLog.Error("failed to accept invitation", zap.Error(err))
		return failed, nil
	}

	s.record(ctx, scope, "member.joined", "user", scope.UserID, map[string]any{"invitation_id": inv.ID, "role": inv.Role})
	s.invalidator.Paths(ctx, rediskey.MembersPath(scope.AccountSlug))

	return result.OK(m, "Welcome to the team"), nil
}

func (s *Service) RevokeInvitation(ctx context.Context, sess identity.Session, in RevokeInvitationInput) (result.Result[any], error) {
	parsed := ParseRevokeInvitation(in)
	if !parsed.OK() {
		return result.Invalid[any](parsed.Errors), nil
	}

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.MembersInvite)
	if err != nil {
		return result.From[any](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID))

	inv, err := s.invitations.FindOne(ctx, &Invitation{ID: parsed.Value.InvitationID, AccountID: scope.AccountID})
	if err != nil {
		zapLog.Error("failed to load invitation", zap.Error(err))
		return result.Fail[any]("Failed to revoke invitation"), nil
	}
	if inv == nil || inv.Status != InvitationPending {
		return result.Fail[any](MsgInvitationNotFound), nil
	}

	if err := s.invitations.Update(ctx, inv.ID, map[string]any{"status": InvitationRevoked}); err != nil {
		zapLog.Error("failed to revoke invitation", zap.Error(err))
		return result.Fail[any]("Failed to revoke invitation"), nil
	}

	s.record(ctx, scope, "member.invitation_revoked", "invitation", inv.ID, map[string]any{"email": inv.Email})
	s.invalidator.Paths(ctx, rediskey.MembersPath(scope.AccountSlug))

	return result.OK[any](nil, "Invitation revoked"), nil
}

func (s *Service) UpdateMemberRole(ctx context.Context, sess identity.Session, in UpdateRoleInput) (result.Result[*Membership], error) {
	parsed := ParseUpdateRole(in)
	if !parsed.OK() {
		return result.Invalid[*Membership](parsed.Errors), nil
	}
	in = parsed.Value

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.MembersManage)
	if err != nil {
		return result.From[*Membership](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID), zap.String("user_id", in.UserID))
	failed := result.Fail[*Membership]("Failed to update role")

	m, err := s.memberships.FindOne(ctx, &Membership{AccountID: scope.AccountID, UserID: in.UserID})
	if err != nil {
		zapLog.Error("failed to load membership", zap.Error(err))
		return failed, nil
	}
	if m == nil {
		return result.Fail[*Membership](MsgMemberNotFound), nil
	}
	if m.Role == permission.RoleOwner {
		return result.Fail[*Membership](MsgOwnerRoleLocked), nil
	}

	if err := s.guard.Check(ctx, scope, permission.MembersManage); err != nil {
		return result.From[*Membership](err)
	}

	previous := m.Role
	m.Role = permission.Role(in.Role)
	if err := s.memberships.Update(ctx, m.ID, map[string]any{"role": m.Role}); err != nil {
		zapLog.Error("failed to update role", zap.Error(err))
		return failed, nil
	}

	s.record(ctx, scope, "member.role_changed", "user", in.UserID, map[string]any{"from": previous, "to": m.Role})
	s.invalidator.Paths(ctx, rediskey.MembersPath(scope.AccountSlug), rediskey.MemberPath(scope.AccountSlug, in.UserID))

	return result.OK(m, "Role updated"), nil
}

// UpdateMemberStatus changes a member's account status. Callers cannot
// deactivate themselves.
func (s *Service) UpdateMemberStatus(ctx context.Context, sess identity.Session, in UpdateStatusInput) (result.Result[*AccountStatus], error) {
	parsed := ParseUpdateStatus(in)
	if !parsed.OK() {
		return result.Invalid[*AccountStatus](parsed.Errors), nil
	}
	in = parsed.Value

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.MembersManage)
	if err != nil {
		return result.From[*AccountStatus](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID), zap.String("user_id", in.UserID))
	failed := result.Fail[*AccountStatus]("Failed to update status")

	status := Status(in.Status)
	if in.UserID == scope.UserID && status != StatusActive {
		return result.Fail[*AccountStatus](MsgSelfDeactivation), nil
	}

	m, err := s.memberships.FindOne(ctx, &Membership{AccountID: scope.AccountID, UserID: in.UserID})
	if err != nil {
		zapLog.Error("failed to load membership", zap.Error(err))
		return failed, nil
	}
	if m == nil {
		return result.Fail[*AccountStatus](MsgMemberNotFound), nil
	}
	if m.Role == permission.RoleOwner {
		return result.Fail[*AccountStatus](MsgOwnerStatusLocked), nil
	}

	if err := s.guard.Check(ctx, scope, permission.MembersManage); err != nil {
		return result.From[*AccountStatus](err)
	}

	row := &AccountStatus{
		ID:        s.node.Generate().String(),
		AccountID: scope.AccountID,
		UserID:    in.UserID,
		Status:    status,
		Reason:    in.Reason,
		ChangedAt: s.now().UTC(),
		ChangedBy: scope.UserID,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "reason", "changed_at", "changed_by"}),
	}).Create(row).Error
	if err != nil {
		zapLog.Error("failed to update status", zap.Error(err))
		return failed, nil
	}

	s.record(ctx, scope, "member.status_changed", "user", in.UserID, map[string]any{"status": status})
	s.invalidator.Paths(ctx, rediskey.MembersPath(scope.AccountSlug), rediskey.MemberPath(scope.AccountSlug, in.UserID))

	return result.OK(row, "Status updated"), nil
}

// UpdateProfile edits the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, sess identity.Session, in UpdateProfileInput) (result.Result[*Profile], error) {
	parsed := ParseUpdateProfile(in)
	if !parsed.OK() {
		return result.Invalid[*Profile](parsed.Errors), nil
	}
	in = parsed.Value

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.MembersRead)
	if err != nil {
		return result.From[*Profile](err)
	}

	p := &Profile{
		UserID:      scope.UserID,
		DisplayName: in.DisplayName,
		Phone:       in.Phone,
		JobTitle:    in.JobTitle,
		Department:  in.Department,
		Location:    in.Location,
		Bio:         in.Bio,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "phone", "job_title", "department", "location", "bio", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		logger.FromContext(ctx).Error("failed to update profile", zap.String("user_id", scope.UserID), zap.Error(err))
		return result.Fail[*Profile]("Failed to update profile"), nil
	}

	s.invalidator.Paths(ctx, rediskey.MembersPath(scope.AccountSlug), rediskey.MemberPath(scope.AccountSlug, scope.UserID))
	return result.OK(p, "Profile updated"), nil
}

// UploadAvatar stores the caller's avatar and points the profile at it.
func (s *Service) UploadAvatar(ctx context.Context, sess identity.Session, in UploadAvatarInput, body io.Reader) (result.Result[string], error) {
	parsed := ParseUploadAvatar(in)
	if !parsed.OK() {
		return result.Invalid[string](parsed.Errors), nil
	}

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.MembersRead)
	if err != nil {
		return result.From[string](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("user_id", scope.UserID))

	key := fmt.Sprintf("%s/%s.%s", scope.UserID, uuid.NewString(), parsed.Value)
	location, err := s.objects.Put(ctx, key, io.LimitReader(body, MaxAvatarBytes), in.Size, in.ContentType)
	if err != nil {
		zapLog.Error("failed to store avatar", zap.Error(err))
		return result.Fail[string]("Failed to upload avatar"), nil
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"avatar_url", "updated_at"}),
	}).Create(&Profile{UserID: scope.UserID, AvatarURL: &location}).Error
	if err != nil {
		zapLog.Error("failed to save avatar url", zap.Error(err))
		return result.Fail[string]("Failed to upload avatar"), nil
	}

	s.invalidator.Paths(ctx, rediskey.MembersPath(scope.AccountSlug), rediskey.MemberPath(scope.AccountSlug, scope.UserID))
	return result.OK(location, "Avatar updated"), nil
}
