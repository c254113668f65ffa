package periods

import (
	"sort"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// ResolveStatus returns the validated status of a period.
func ResolveStatus(p Period) (Status, error) {
	return ParseStatus(string(p.Status))
}

// CanModify returns the mutation capabilities for a status. Only open
// periods accept changes.
func CanModify(status Status) Capabilities {
	if status == StatusOpen {
		return Capabilities{CanCreate: true, CanEdit: true, CanDelete: true}
	}
	return Capabilities{}
}

// CanWrite reports whether postings may land in the period right now.
// The answer is advisory outside the posting transaction.
func CanWrite(p Period) bool {
	status, err := ResolveStatus(p)
	if err != nil {
		return false
	}
	return CanModify(status).CanCreate
}

// ValidateTransition allows forward moves only.
func ValidateTransition(from, to Status) error {
	switch {
	case from == StatusOpen && (to == StatusSoftClosed || to == StatusHardClosed):
		return nil
	case from == StatusSoftClosed && to == StatusHardClosed:
		return nil
	}
	return shared.Wrapf(shared.ErrInvalidTransition, "%s -> %s", from, to)
}

// ResolveForWrite picks the period a write targets: the explicit id when
// supplied, otherwise the period whose range holds date.
func ResolveForWrite(list []Period, explicitID *int64, date time.Time) (Period, error) {
	if explicitID != nil {
		for _, p := range list {
			if p.ID == *explicitID {
				return p, nil
			}
		}
		return Period{}, shared.Wrapf(shared.ErrPeriodNotFound, "period %d", *explicitID)
	}
	for _, p := range list {
		if p.Contains(date) {
			return p, nil
		}
	}
	return Period{}, shared.Wrapf(shared.ErrNoPeriodForDate, "%s", date.Format("2006-01-02"))
}

// SelectCurrent resolves the period a user is looking at: explicit override,
// then persisted preference, then the single open period. Ids that no longer
// exist fall through to the next level.
func SelectCurrent(list []Period, override, preference *int64) (Period, error) {
	for _, id := range []*int64{override, preference} {
		if id == nil {
			continue
		}
		for _, p := range list {
			if p.ID == *id {
				return p, nil
			}
		}
	}
	var open []Period
	for _, p := range list {
		if p.Status == StatusOpen {
			open = append(open, p)
		}
	}
	switch len(open) {
	case 0:
		return Period{}, shared.ErrNoOpenPeriod
	case 1:
		return open[0], nil
	}
	return Period{}, shared.Wrapf(shared.ErrMultipleOpenPeriods, "%d open", len(open))
}

// PlanMonthly lays out one period per calendar month from January of now's
// year through now's month. Only the current month is open.
func PlanMonthly(now time.Time) []NewPeriod {
	year, month, _ := now.Date()
	plan := make([]NewPeriod, 0, int(month))
	for m := time.January; m <= month; m++ {
		start := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		status := StatusSoftClosed
		if m == month {
			status = StatusOpen
		}
		plan = append(plan, NewPeriod{
			Name:      start.Format("2006-01"),
			StartDate: start,
			EndDate:   start.AddDate(0, 1, -1),
			Status:    status,
		})
	}
	return plan
}

// SortByStart orders periods chronologically in place.
func SortByStart(list []Period) {
	sort.Slice(list, func(i, j int) bool { return list[i].StartDate.Before(list[j].StartDate) })
}
