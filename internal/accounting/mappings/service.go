package mappings

import (
	"context"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// ErrUnknownMappingType rejects mapping keys outside RequiredTypes.
var ErrUnknownMappingType = shared.NewValidation("accounting: unknown payroll mapping type")

// ChartLoader returns a company's indexed chart of accounts.
type ChartLoader interface {
	Chart(ctx context.Context, companyID int64) (*accounts.Chart, error)
}

// Assignment is the configuration state of one required mapping type.
// AccountID is nil while the type is unmapped.
type Assignment struct {
	MappingType MappingType `json:"mappingType"`
	AccountID   *int64      `json:"accountId"`
	UpdatedAt   *time.Time  `json:"updatedAt,omitempty"`
}

// Service maintains payroll account mappings.
type Service struct {
	repo   Repository
	charts ChartLoader
}

func NewService(repo Repository, charts ChartLoader) *Service {
	return &Service{repo: repo, charts: charts}
}

// ParseType accepts only the payroll mapping types a posting needs.
func ParseType(raw string) (MappingType, error) {
	for _, t := range RequiredTypes {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", shared.Wrapf(ErrUnknownMappingType, "%q", raw)
}

// Payroll lists every required type in posting order, mapped or not.
func (s *Service) Payroll(ctx context.Context, companyID int64) ([]Assignment, error) {
	list, err := s.repo.ListPayroll(ctx, companyID)
	if err != nil {
		return nil, err
	}
	byType := make(map[MappingType]PayrollAccountMapping, len(list))
	for _, m := range list {
		byType[m.MappingType] = m
	}
	out := make([]Assignment, 0, len(RequiredTypes))
	for _, t := range RequiredTypes {
		a := Assignment{MappingType: t}
		if m, ok := byType[t]; ok && m.AccountID != 0 {
			id, at := m.AccountID, m.UpdatedAt
			a.AccountID, a.UpdatedAt = &id, &at
		}
		out = append(out, a)
	}
	return out, nil
}

// Set points t at accountID, which must be a postable account of the company.
func (s *Service) Set(ctx context.Context, companyID int64, t MappingType, accountID int64) (PayrollAccountMapping, error) {
	if companyID <= 0 {
		return PayrollAccountMapping{}, shared.NewValidation("accounting: company required")
	}
	if _, err := ParseType(string(t)); err != nil {
		return PayrollAccountMapping{}, err
	}
	chart, err := s.charts.Chart(ctx, companyID)
	if err != nil {
		return PayrollAccountMapping{}, err
	}
	if err := chart.EnsurePostable(accountID); err != nil {
		return PayrollAccountMapping{}, err
	}
	if err := s.repo.Upsert(ctx, PayrollAccountMapping{CompanyID: companyID, MappingType: t, AccountID: accountID}); err != nil {
		return PayrollAccountMapping{}, err
	}
	return s.repo.Get(ctx, companyID, t)
}
