package license

import (
	"fmt"
	"time"
)

// Bucket classifies the remaining lifetime of a license.
type Bucket string

const (
	BucketExpired Bucket = "expired"
	BucketUrgent  Bucket = "urgent"
	BucketWarning Bucket = "warning"
	BucketActive  Bucket = "active"
)

const (
	UrgentDays  = 7
	WarningDays = 30
)

// Status values of the list filter.
const (
	StatusActive   = "active"
	StatusExpiring = "expiring"
	StatusExpired  = "expired"
)

type Expiry struct {
	DaysUntilExpiry int
	IsExpired       bool
	Bucket          Bucket
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntil counts whole UTC days from today to expiration. Time of day is
// ignored on both sides.
func DaysUntil(expiration, today time.Time) int {
	return int(Day(expiration).Sub(Day(today)).Hours() / 24)
}

func ComputeExpiry(expiration, today time.Time) Expiry {
	days := DaysUntil(expiration, today)
	return Expiry{
		DaysUntilExpiry: days,
		IsExpired:       days < 0,
		Bucket:          bucketOf(days),
	}
}

func bucketOf(days int) Bucket {
	switch {
	case days < 0:
		return BucketExpired
	case days <= UrgentDays:
		return BucketUrgent
	case days <= WarningDays:
		return BucketWarning
	default:
		return BucketActive
	}
}

// Label is the badge text shown next to a license.
func (e Expiry) Label() string {
	switch {
	case e.DaysUntilExpiry < 0:
		return "Expired"
	case e.DaysUntilExpiry == 0:
		return "Expires today"
	case e.DaysUntilExpiry == 1:
		return "Expires in 1 day"
	case e.DaysUntilExpiry <= WarningDays:
		return fmt.Sprintf("Expires in %d days", e.DaysUntilExpiry)
	default:
		return "Active"
	}
}

// FilterStatus maps the expiry onto the list filter buckets:
// expired below 0, expiring from 0 to 30, active above 30.
func (e Expiry) FilterStatus() string {
	switch {
	case e.DaysUntilExpiry < 0:
		return StatusExpired
	case e.DaysUntilExpiry <= WarningDays:
		return StatusExpiring
	default:
		return StatusActive
	}
}

// CSVStatus is the Status column of the export.
func (e Expiry) CSVStatus() string {
	switch {
	case e.DaysUntilExpiry < 0:
		return "Expired"
	case e.DaysUntilExpiry <= UrgentDays:
		return "Expiring Soon (7 days)"
	case e.DaysUntilExpiry <= WarningDays:
		return "Expiring Soon (30 days)"
	default:
		return "Active"
	}
}
