package periods

import (
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Status enumerates accounting period lifecycle stages.
type Status string

const (
	StatusOpen       Status = "open"
	StatusSoftClosed Status = "soft_closed"
	StatusHardClosed Status = "hard_closed"
)

// Period is a fiscal window scoped to a company. EndDate is inclusive.
type Period struct {
	ID           int64
	CompanyID    int64
	Name         string
	StartDate    time.Time
	EndDate      time.Time
	Status       Status
	SoftClosedAt *time.Time
	SoftClosedBy *int64
	HardClosedAt *time.Time
	HardClosedBy *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewPeriod describes a period to be inserted.
type NewPeriod struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    Status
}

// Capabilities lists which ledger mutations a period status allows.
type Capabilities struct {
	CanCreate bool `json:"canCreate"`
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusOpen, StatusSoftClosed, StatusHardClosed:
		return s, nil
	}
	return "", shared.Wrapf(shared.ErrInvalidStatusValue, "period status %q", raw)
}

// Contains reports whether date falls on a calendar day inside the period.
func (p Period) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}

// DateOnly drops the clock part, keeping the calendar day of t in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
