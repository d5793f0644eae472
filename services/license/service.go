package license

import (
	"context"
	"strings"
	"time"

	"smallbiznis-backoffice/internal/guard"
	"smallbiznis-backoffice/pkg/db/option"
	"smallbiznis-backoffice/pkg/db/pagination"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/featureflags"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/repository"
	"smallbiznis-backoffice/pkg/revalidate"
	"smallbiznis-backoffice/services/activity"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db          *gorm.DB
	node        *snowflake.Node
	guard       *guard.Guard
	activity    activity.Recorder
	invalidator revalidate.Invalidator
	flags       featureflags.Flags
	now         func() time.Time

	store       Store
	licenses    repository.Repository[License]
	assignments repository.Repository[Assignment]
	alerts      repository.Repository[RenewalAlert]
}

type ServiceParams struct {
	fx.In
	DB          *gorm.DB
	Node        *snowflake.Node
	Guard       *guard.Guard
	Activity    activity.Recorder
	Invalidator revalidate.Invalidator
	Flags       featureflags.Flags `optional:"true"`
	Now         func() time.Time   `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	var flags featureflags.Flags = featureflags.Defaults()
	if p.Flags != nil {
		flags = p.Flags
	}
	return &Service{
		db:          p.DB,
		node:        p.Node,
		guard:       p.Guard,
		activity:    p.Activity,
		invalidator: p.Invalidator,
		flags:       flags,
		now:         now,
		store:       NewStore(p.DB),
		licenses:    repository.ProvideStore[License](p.DB),
		assignments: repository.ProvideStore[Assignment](p.DB),
		alerts:      repository.ProvideStore[RenewalAlert](p.DB),
	}
}

func (s *Service) today() time.Time {
	return Day(s.now())
}

// LoadLicenseDetail fails with NotFound when the account or the license does
// not resolve.
func (s *Service) LoadLicenseDetail(ctx context.Context, slug, licenseID string) (*Detail, error) {
	zapLog := logger.FromContext(ctx).With(zap.String("account_slug", slug), zap.String("license_id", licenseID))

	accountID, err := s.guard.Account(ctx, slug)
	if err != nil {
		return nil, err
	}

	l, err := s.licenses.FindOne(ctx, &License{ID: licenseID, AccountID: accountID})
	if err != nil {
		zapLog.Error("failed to load license", zap.Error(err))
		return nil, errutil.Internal("failed to load license", err)
	}
	if l == nil {
		return nil, errutil.NotFound("License not found", nil)
	}

	return newDetail(l, s.today()), nil
}

func newDetail(l *License, today time.Time) *Detail {
	e := ComputeExpiry(l.ExpirationDate, today)
	return &Detail{
		License:         l,
		DaysUntilExpiry: e.DaysUntilExpiry,
		IsExpired:       e.IsExpired,
		ExpiryStatus:    e.Bucket,
		ExpiryLabel:     e.Label(),
	}
}

// LoadLicenseAssignments lists assignments with their user or asset. A failed
// join degrades to an empty list.
func (s *Service) LoadLicenseAssignments(ctx context.Context, slug, licenseID string) ([]AssignmentView, error) {
	accountID, err := s.guard.Account(ctx, slug)
	if err != nil {
		return nil, err
	}

	views, err := s.store.AssignmentsWithTargets(ctx, accountID, licenseID)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to load license assignments",
			zap.String("license_id", licenseID), zap.Error(err))
		return []AssignmentView{}, nil
	}
	return views, nil
}

// LoadLicensesPaginated filters the full license list in memory and returns
// one page of it. Source order is kept.
func (s *Service) LoadLicensesPaginated(ctx context.Context, slug string, f Filters) (*Page, error) {
	accountID, err := s.guard.Account(ctx, slug)
	if err != nil {
		return nil, err
	}

	matched, err := s.filtered(ctx, accountID, f)
	if err != nil {
		return nil, err
	}

	return &Page{
		Licenses: pagination.Slice(matched, f.Pagination),
		PageInfo: pagination.NewPageInfo(f.Pagination, int64(len(matched))),
	}, nil
}

func (s *Service) filtered(ctx context.Context, accountID string, f Filters) ([]Summary, error) {
	rows, err := s.store.ListWithAssignmentCounts(ctx, accountID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list licenses", zap.String("account_id", accountID), zap.Error(err))
		return nil, errutil.Internal("failed to list licenses", err)
	}

	today := s.today()
	for i := range rows {
		e := ComputeExpiry(rows[i].ExpirationDate, today)
		rows[i].DaysUntilExpiry = e.DaysUntilExpiry
		rows[i].IsExpired = e.IsExpired
		rows[i].ExpiryStatus = e.Bucket
	}

	return ApplyFilters(rows, f), nil
}

// ApplyFilters runs the search, vendor, type and status filters in that order.
func ApplyFilters(rows []Summary, f Filters) []Summary {
	out := make([]Summary, 0, len(rows))
	search := strings.ToLower(f.Search)

	var types map[Type]bool
	if len(f.Types) > 0 {
		types = make(map[Type]bool, len(f.Types))
		for _, t := range f.Types {
			types[t] = true
		}
	}

	for _, r := range rows {
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Name), search) &&
			!strings.Contains(strings.ToLower(r.Vendor), search) &&
			!strings.Contains(strings.ToLower(r.LicenseKey), search) {
			continue
		}
		if f.Vendor != "" && r.Vendor != f.Vendor {
			continue
		}
		if types != nil && !types[r.LicenseType] {
			continue
		}
		if f.Status != "" && (Expiry{DaysUntilExpiry: r.DaysUntilExpiry}).FilterStatus() != f.Status {
			continue
		}
		out = append(out, r)
	}
	return out
}

// LoadLicenseStats returns zero stats when the aggregate fails.
func (s *Service) LoadLicenseStats(ctx context.Context, slug string) (Stats, error) {
	accountID, err := s.guard.Account(ctx, slug)
	if err != nil {
		return Stats{}, err
	}

	stats, err := s.store.Stats(ctx, accountID, s.today())
	if err != nil {
		logger.FromContext(ctx).Warn("failed to load license stats", zap.String("account_id", accountID), zap.Error(err))
		return Stats{}, nil
	}
	return stats, nil
}

func (s *Service) LoadRenewalAlerts(ctx context.Context, slug, licenseID string) ([]*RenewalAlert, error) {
	accountID, err := s.guard.Account(ctx, slug)
	if err != nil {
		return nil, err
	}

	alerts, err := s.alerts.Find(ctx, &RenewalAlert{AccountID: accountID, LicenseID: licenseID},
		option.ApplyOrder("sent_at DESC"))
	if err != nil {
		logger.FromContext(ctx).Warn("failed to load renewal alerts", zap.String("license_id", licenseID), zap.Error(err))
		return []*RenewalAlert{}, nil
	}
	return alerts, nil
}

func (s *Service) LoadVendors(ctx context.Context, slug string) ([]string, error) {
	accountID, err := s.guard.Account(ctx, slug)
	if err != nil {
		return nil, err
	}

	vendors, err := s.store.Vendors(ctx, accountID)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to load vendors", zap.String("account_id", accountID), zap.Error(err))
		return []string{}, nil
	}
	return vendors, nil
}
