package license

import (
	"context"
	"fmt"

	"smallbiznis-backoffice/internal/guard"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/identity"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/permission"
	"smallbiznis-backoffice/pkg/rediskey"
	"smallbiznis-backoffice/pkg/result"
	"smallbiznis-backoffice/services/activity"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MsgLicenseNotFound          = "License not found"
	MsgDuplicateKey             = "A license with this key already exists"
	MsgAlreadyAssignedUser      = "This license is already assigned to this user"
	MsgAlreadyAssignedAsset     = "This license is already assigned to this asset"
	MsgExpirationBeforePurchase = "Expiration date must be after purchase date"
)

func (s *Service) revalidate(ctx context.Context, slug string, licenseIDs ...string) {
	paths := []string{rediskey.LicensesPath(slug)}
	for _, id := range licenseIDs {
		paths = append(paths, rediskey.LicensePath(slug, id))
	}
	s.invalidator.Paths(ctx, paths...)
}

func (s *Service) record(ctx context.Context, scope guard.Scope, action, licenseID string, meta map[string]any) {
	s.activity.Record(ctx, activity.Entry{
		AccountID:  scope.AccountID,
		ActorID:    scope.UserID,
		Action:     action,
		EntityType: "license",
		EntityID:   licenseID,
		Metadata:   meta,
	})
}

func (s *Service) CreateLicense(ctx context.Context, sess identity.Session, in CreateLicenseInput) (result.Result[*License], error) {
	parsed := ParseCreateLicense(in)
	if !parsed.OK() {
		return result.Invalid[*License](parsed.Errors), nil
	}

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.LicensesManage)
	if err != nil {
		return result.From[*License](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID))

	v := parsed.Value
	l := &License{
		ID:             s.node.Generate().String(),
		AccountID:      scope.AccountID,
		Name:           v.Name,
		Vendor:         v.Vendor,
		LicenseKey:     v.LicenseKey,
		LicenseType:    v.LicenseType,
		PurchaseDate:   v.PurchaseDate,
		ExpirationDate: v.ExpirationDate,
		Cost:           v.Cost,
		Notes:          v.Notes,
		CreatedBy:      scope.UserID,
		UpdatedBy:      scope.UserID,
	}

	if err := s.licenses.Create(ctx, l); err != nil {
		if errutil.IsDuplicate(err) {
			return result.Fail[*License](MsgDuplicateKey), nil
		}
		zapLog.Error("failed to create license", zap.Error(err))
		return result.Fail[*License]("Failed to create license"), nil
	}

	s.record(ctx, scope, "license.created", l.ID, map[string]any{"name": l.Name, "vendor": l.Vendor})
	s.revalidate(ctx, scope.AccountSlug, l.ID)

	return result.OK(l, "License created successfully"), nil
}

func (s *Service) UpdateLicense(ctx context.Context, sess identity.Session, in UpdateLicenseInput) (result.Result[*License], error) {
	parsed := ParseUpdateLicense(in)
	if !parsed.OK() {
		return result.Invalid[*License](parsed.Errors), nil
	}

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.LicensesManage)
	if err != nil {
		return result.From[*License](err)
	}

	v := parsed.Value
	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID), zap.String("license_id", v.ID))

	existing, err := s.licenses.FindOne(ctx, &License{ID: v.ID, AccountID: scope.AccountID})
	if err != nil {
		zapLog.Error("failed to load license", zap.Error(err))
		return result.Fail[*License]("Failed to update license"), nil
	}
	if existing == nil {
		return result.Fail[*License](MsgLicenseNotFound), nil
	}

	err = s.licenses.Update(ctx, existing.ID, map[string]any{
		"name":            v.Name,
		"vendor":          v.Vendor,
		"license_key":     v.LicenseKey,
		"license_type":    v.LicenseType,
		"purchase_date":   v.PurchaseDate,
		"expiration_date": v.ExpirationDate,
		"cost":            v.Cost,
		"notes":           v.Notes,
		"updated_by":      scope.UserID,
	})
	if err != nil {
		if errutil.IsDuplicate(err) {
			return result.Fail[*License](MsgDuplicateKey), nil
		}
		zapLog.Error("failed to update license", zap.Error(err))
		return result.Fail[*License]("Failed to update license"), nil
	}

	updated, err := s.licenses.FindOne(ctx, &License{ID: existing.ID, AccountID: scope.AccountID})
	if err != nil || updated == nil {
		zapLog.Warn("failed to reload license after update", zap.Error(err))
		updated = existing
	}

	s.record(ctx, scope, "license.updated", existing.ID, map[string]any{"name": v.Name})
	s.revalidate(ctx, scope.AccountSlug, existing.ID)

	return result.OK(updated, "License updated successfully"), nil
}

func (s *Service) DeleteLicense(ctx context.Context, sess identity.Session, in DeleteLicenseInput) (result.Result[any], error) {
	parsed := ParseDeleteLicense(in)
	if !parsed.OK() {
		return result.Invalid[any](parsed.Errors), nil
	}

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.LicensesManage)
	if err != nil {
		return result.From[any](err)
	}

	msg, ok := s.deleteOne(ctx, scope, parsed.Value.ID)
	if !ok {
		return result.Fail[any](msg), nil
	}

	s.revalidate(ctx, scope.AccountSlug, parsed.Value.ID)
	return result.OK[any](nil, "License deleted successfully"), nil
}

// deleteOne removes a license with its assignments in one transaction and
// returns a user facing message on failure.
func (s *Service) deleteOne(ctx context.Context, scope guard.Scope, licenseID string) (string, bool) {
	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID), zap.String("license_id", licenseID))

	var name string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := s.licenses.WithTrx(tx).FindOne(ctx, &License{ID: licenseID, AccountID: scope.AccountID})
		if err != nil {
			return err
		}
		if l == nil {
			return errutil.NotFound(MsgLicenseNotFound, nil)
		}
		name = l.Name

		n, err := s.store.WithTrx(tx).DeleteCascade(ctx, scope.AccountID, licenseID)
		if err != nil {
			return err
		}
		if n == 0 {
			return errutil.NotFound(MsgLicenseNotFound, nil)
		}
		return nil
	})
	if err != nil {
		if errutil.IsNotFound(err) {
			return MsgLicenseNotFound, false
		}
		zapLog.Error("failed to delete license", zap.Error(err))
		return "Failed to delete license", false
	}

	s.record(ctx, scope, "license.deleted", licenseID, map[string]any{"name": name})
	return "", true
}

func (s *Service) AssignLicense(ctx context.Context, sess identity.Session, in AssignLicenseInput) (result.Result[*Assignment], error) {
	parsed := ParseAssignLicense(in)
	if !parsed.OK() {
		return result.Invalid[*Assignment](parsed.Errors), nil
	}
	in = parsed.Value

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.LicensesManage)
	if err != nil {
		return result.From[*Assignment](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID), zap.String("license_id", in.LicenseID))
	failed := result.Fail[*Assignment]("Failed to assign license")

	l, err := s.licenses.FindOne(ctx, &License{ID: in.LicenseID, AccountID: scope.AccountID})
	if err != nil {
		zapLog.Error("failed to load license", zap.Error(err))
		return failed, nil
	}
	if l == nil {
		return result.Fail[*Assignment](MsgLicenseNotFound), nil
	}

	query := &Assignment{LicenseID: l.ID, AccountID: scope.AccountID}
	duplicateMsg := MsgAlreadyAssignedUser
	if in.UserID != "" {
		ok, err := s.store.IsMember(ctx, scope.AccountID, in.UserID)
		if err != nil {
			zapLog.Error("failed to check membership", zap.Error(err))
			return failed, nil
		}
		if !ok {
			return result.Fail[*Assignment]("User not found"), nil
		}
		query.AssignedToUser = &in.UserID
	} else {
		ok, err := s.store.AssetExists(ctx, scope.AccountID, in.AssetID)
		if err != nil {
			zapLog.Error("failed to check asset", zap.Error(err))
			return failed, nil
		}
		if !ok {
			return result.Fail[*Assignment]("Asset not found"), nil
		}
		query.AssignedToAsset = &in.AssetID
		duplicateMsg = MsgAlreadyAssignedAsset
	}

	existing, err := s.assignments.FindOne(ctx, query)
	if err != nil {
		zapLog.Error("failed to check existing assignment", zap.Error(err))
		return failed, nil
	}
	if existing != nil {
		return result.Fail[*Assignment](duplicateMsg), nil
	}

	a := &Assignment{
		ID:              s.node.Generate().String(),
		AccountID:       scope.AccountID,
		LicenseID:       l.ID,
		AssignedToUser:  query.AssignedToUser,
		AssignedToAsset: query.AssignedToAsset,
		AssignedBy:      scope.UserID,
		AssignedAt:      s.now().UTC(),
		Notes:           in.Notes,
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		if errutil.IsDuplicate(err) {
			return result.Fail[*Assignment](duplicateMsg), nil
		}
		zapLog.Error("failed to create assignment", zap.Error(err))
		return failed, nil
	}

	s.record(ctx, scope, "license.assigned", l.ID, map[string]any{
		"assignment_id": a.ID,
		"user_id":       in.UserID,
		"asset_id":      in.AssetID,
	})
	s.revalidate(ctx, scope.AccountSlug, l.ID)

	return result.OK(a, "License assigned successfully"), nil
}

func (s *Service) UnassignLicense(ctx context.Context, sess identity.Session, in UnassignLicenseInput) (result.Result[any], error) {
	parsed := ParseUnassignLicense(in)
	if !parsed.OK() {
		return result.Invalid[any](parsed.Errors), nil
	}

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.LicensesManage)
	if err != nil {
		return result.From[any](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID), zap.String("assignment_id", in.AssignmentID))

	a, err := s.assignments.FindOne(ctx, &Assignment{ID: parsed.Value.AssignmentID, AccountID: scope.AccountID})
	if err != nil {
		zapLog.Error("failed to load assignment", zap.Error(err))
		return result.Fail[any]("Failed to unassign license"), nil
	}
	if a == nil {
		return result.Fail[any]("Assignment not found"), nil
	}

	if _, err := s.assignments.Delete(ctx, &Assignment{ID: a.ID, AccountID: scope.AccountID}); err != nil {
		zapLog.Error("failed to delete assignment", zap.Error(err))
		return result.Fail[any]("Failed to unassign license"), nil
	}

	s.record(ctx, scope, "license.unassigned", a.LicenseID, map[string]any{"assignment_id": a.ID})
	s.revalidate(ctx, scope.AccountSlug, a.LicenseID)

	return result.OK[any](nil, "License unassigned successfully"), nil
}

// ItemOutcome is the result of one id of a bulk action.
type ItemOutcome struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type BulkOutcome struct {
	Results   []ItemOutcome `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

func (b *BulkOutcome) ok(id string) {
	b.Results = append(b.Results, ItemOutcome{ID: id, Success: true})
	b.Succeeded++
}

func (b *BulkOutcome) fail(id, msg string) {
	b.Results = append(b.Results, ItemOutcome{ID: id, Error: msg})
	b.Failed++
}

func (b *BulkOutcome) succeededIDs() []string {
	ids := make([]string, 0, b.Succeeded)
	for _, r := range b.Results {
		if r.Success {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// BulkDeleteLicenses deletes each id on its own. Failures are collected in
// input order and never stop the batch.
func (s *Service) BulkDeleteLicenses(ctx context.Context, sess identity.Session, in BulkIDsInput) (result.Result[*BulkOutcome], error) {
	parsed := ParseBulkIDs(in)
	if !parsed.OK() {
		return result.Invalid[*BulkOutcome](parsed.Errors), nil
	}

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.LicensesManage)
	if err != nil {
		return result.From[*BulkOutcome](err)
	}

	out := &BulkOutcome{Results: make([]ItemOutcome, 0, len(in.LicenseIDs))}
	for _, id := range parsed.Value.LicenseIDs {
		if _, err := snowflake.ParseString(id); err != nil {
			out.fail(id, "Invalid license id")
			continue
		}
		if msg, ok := s.deleteOne(ctx, scope, id); !ok {
			out.fail(id, msg)
			continue
		}
		out.ok(id)
	}

	if out.Succeeded > 0 {
		s.revalidate(ctx, scope.AccountSlug, out.succeededIDs()...)
	}

	return result.OK(out, fmt.Sprintf("Deleted %d of %d licenses", out.Succeeded, len(in.LicenseIDs))), nil
}

// BulkRenewLicenses moves the expiration date of each license. The new date
// must fall after the license's own purchase date.
func (s *Service) BulkRenewLicenses(ctx context.Context, sess identity.Session, in BulkRenewInput) (result.Result[*BulkOutcome], error) {
	parsed := ParseBulkRenew(in)
	if !parsed.OK() {
		return result.Invalid[*BulkOutcome](parsed.Errors), nil
	}

	scope, err := s.guard.Resolve(ctx, in.AccountSlug, sess, permission.LicensesManage)
	if err != nil {
		return result.From[*BulkOutcome](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID))
	expiration := parsed.Value.ExpirationDate

	out := &BulkOutcome{Results: make([]ItemOutcome, 0, len(in.LicenseIDs))}
	for _, id := range parsed.Value.LicenseIDs {
		if _, err := snowflake.ParseString(id); err != nil {
			out.fail(id, "Invalid license id")
			continue
		}

		l, err := s.licenses.FindOne(ctx, &License{ID: id, AccountID: scope.AccountID})
		if err != nil {
			zapLog.Error("failed to load license", zap.String("license_id", id), zap.Error(err))
			out.fail(id, "Failed to renew license")
			continue
		}
		if l == nil {
			out.fail(id, MsgLicenseNotFound)
			continue
		}
		if !expiration.After(l.PurchaseDate) {
			out.fail(id, MsgExpirationBeforePurchase)
			continue
		}

		if err := s.licenses.Update(ctx, l.ID, map[string]any{
			"expiration_date": expiration,
			"updated_by":      scope.UserID,
		}); err != nil {
			zapLog.Error("failed to renew license", zap.String("license_id", id), zap.Error(err))
			out.fail(id, "Failed to renew license")
			continue
		}

		s.record(ctx, scope, "license.renewed", l.ID, map[string]any{
			"previous_expiration": l.ExpirationDate.Format("2006-01-02"),
			"expiration":          expiration.Format("2006-01-02"),
		})
		out.ok(id)
	}

	if out.Succeeded > 0 {
		s.revalidate(ctx, scope.AccountSlug, out.succeededIDs()...)
	}

	return result.OK(out, fmt.Sprintf("Renewed %d of %d licenses", out.Succeeded, len(in.LicenseIDs))), nil
}
