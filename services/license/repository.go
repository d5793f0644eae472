package license

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Store runs the aggregate queries of the license views. Plain entity reads
// and writes go through repository.Repository.
type Store interface {
	WithTrx(tx *gorm.DB) Store
	ListWithAssignmentCounts(ctx context.Context, accountID string) ([]Summary, error)
	Stats(ctx context.Context, accountID string, today time.Time) (Stats, error)
	AssignmentCounts(ctx context.Context, accountID string, licenseIDs []string) (map[string]AssignmentCount, error)
	AssignmentsWithTargets(ctx context.Context, accountID, licenseID string) ([]AssignmentView, error)
	Vendors(ctx context.Context, accountID string) ([]string, error)
	IsMember(ctx context.Context, accountID, userID string) (bool, error)
	AssetExists(ctx context.Context, accountID, assetID string) (bool, error)
	DeleteCascade(ctx context.Context, accountID, licenseID string) (int64, error)
}

type AssignmentCount struct {
	Users  int64
	Assets int64
}

func (c AssignmentCount) Total() int64 { return c.Users + c.Assets }

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) WithTrx(tx *gorm.DB) Store {
	if tx == nil {
		return s
	}
	return &gormStore{db: tx}
}

// ListWithAssignmentCounts returns every license of the account with its
// assignment count, newest first.
func (s *gormStore) ListWithAssignmentCounts(ctx context.Context, accountID string) ([]Summary, error) {
	var rows []Summary
	err := s.db.WithContext(ctx).
		Table("licenses AS l").
		Select(`l.id, l.created_at, l.name, l.vendor, l.license_key, l.license_type,
			l.purchase_date, l.expiration_date, COUNT(a.id) AS assignment_count`).
		Joins("LEFT JOIN license_assignments a ON a.license_id = l.id").
		Where("l.account_id = ?", accountID).
		Group("l.id").
		Order("l.created_at DESC, l.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *gormStore) Stats(ctx context.Context, accountID string, today time.Time) (Stats, error) {
	var out Stats
	q := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&License{}).Where("account_id = ?", accountID)
	}

	if err := q().Count(&out.Total).Error; err != nil {
		return Stats{}, err
	}
	if err := q().Where("expiration_date < ?", today).Count(&out.Expired).Error; err != nil {
		return Stats{}, err
	}
	horizon := today.AddDate(0, 0, WarningDays)
	if err := q().Where("expiration_date >= ? AND expiration_date <= ?", today, horizon).Count(&out.ExpiringSoon).Error; err != nil {
		return Stats{}, err
	}
	if err := s.db.WithContext(ctx).Model(&Assignment{}).Where("account_id = ?", accountID).Count(&out.TotalAssignments).Error; err != nil {
		return Stats{}, err
	}
	return out, nil
}

func (s *gormStore) AssignmentCounts(ctx context.Context, accountID string, licenseIDs []string) (map[string]AssignmentCount, error) {
	out := make(map[string]AssignmentCount, len(licenseIDs))
	if len(licenseIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		LicenseID string
		Users     int64
		Assets    int64
	}
	err := s.db.WithContext(ctx).
		Model(&Assignment{}).
		Select(`license_id,
			COUNT(assigned_to_user) AS users,
			COUNT(assigned_to_asset) AS assets`).
		Where("account_id = ? AND license_id IN ?", accountID, licenseIDs).
		Group("license_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		out[r.LicenseID] = AssignmentCount{Users: r.Users, Assets: r.Assets}
	}
	return out, nil
}

type assignmentRow struct {
	Assignment
	UserEmail     *string
	UserName      *string
	AssetName     *string
	AssetCategory *string
	AssetSerial   *string
}

func (s *gormStore) AssignmentsWithTargets(ctx context.Context, accountID, licenseID string) ([]AssignmentView, error) {
	var rows []assignmentRow
	err := s.db.WithContext(ctx).
		Table("license_assignments AS a").
		Select(`a.id, a.account_id, a.license_id, a.assigned_to_user, a.assigned_to_asset,
			a.assigned_by, a.assigned_at, a.notes,
			u.email AS user_email, p.display_name AS user_name,
			s.name AS asset_name, s.category AS asset_category, s.serial_number AS asset_serial`).
		Joins("LEFT JOIN users u ON u.id = a.assigned_to_user").
		Joins("LEFT JOIN user_profiles p ON p.user_id = a.assigned_to_user").
		Joins("LEFT JOIN assets s ON s.id = a.assigned_to_asset").
		Where("a.account_id = ? AND a.license_id = ?", accountID, licenseID).
		Order("a.assigned_at DESC, a.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]AssignmentView, 0, len(rows))
	for _, r := range rows {
		v := AssignmentView{Assignment: r.Assignment}
		if r.AssignedToUser != nil {
			v.User = &UserSummary{ID: *r.AssignedToUser, DisplayName: r.UserName}
			if r.UserEmail != nil {
				v.User.Email = *r.UserEmail
			}
		}
		if r.AssignedToAsset != nil {
			v.Asset = &AssetSummary{ID: *r.AssignedToAsset, SerialNumber: r.AssetSerial}
			if r.AssetName != nil {
				v.Asset.Name = *r.AssetName
			}
			if r.AssetCategory != nil {
				v.Asset.Category = *r.AssetCategory
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *gormStore) Vendors(ctx context.Context, accountID string) ([]string, error) {
	var vendors []string
	err := s.db.WithContext(ctx).
		Model(&License{}).
		Distinct("vendor").
		Where("account_id = ?", accountID).
		Order("vendor").
		Pluck("vendor", &vendors).Error
	return vendors, err
}

func (s *gormStore) IsMember(ctx context.Context, accountID, userID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Table("memberships").
		Where("account_id = ? AND user_id = ?", accountID, userID).
		Count(&n).Error
	return n > 0, err
}

func (s *gormStore) AssetExists(ctx context.Context, accountID, assetID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Table("assets").
		Where("account_id = ? AND id = ?", accountID, assetID).
		Count(&n).Error
	return n > 0, err
}

// DeleteCascade removes a license with its assignments and alerts. It must
// run inside a transaction.
func (s *gormStore) DeleteCascade(ctx context.Context, accountID, licenseID string) (int64, error) {
	db := s.db.WithContext(ctx)
	if err := db.Where("account_id = ? AND license_id = ?", accountID, licenseID).Delete(&Assignment{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("account_id = ? AND license_id = ?", accountID, licenseID).Delete(&RenewalAlert{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("account_id = ? AND id = ?", accountID, licenseID).Delete(&License{})
	return res.RowsAffected, res.Error
}
