package periods

import "time"

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// Period represents one calendar month of one org.
// Unique per (org, year, month); a missing row counts as OPEN.
type Period struct {
	ID        int64
	OrgID     int64
	Year      int
	Month     time.Month
	Status    PeriodStatus
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Label renders the period as YYYY-MM.
func (p Period) Label() string {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}
