package periods

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Service owns the accounting period lifecycle.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// AutoProvision creates January..current month for a company with no
// periods. Calling it again is a no-op and returns no periods.
func (s *Service) AutoProvision(ctx context.Context, companyID int64) ([]Period, error) {
	if companyID == 0 {
		return nil, fmt.Errorf("periods: company id required")
	}
	created, err := s.repo.InsertMonthlyIfAbsent(ctx, companyID, PlanMonthly(s.now()))
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		s.logger.Info("periods provisioned", slog.Int64("company_id", companyID), slog.Int("count", len(created)))
	}
	return created, nil
}

// List returns the company's periods in chronological order.
func (s *Service) List(ctx context.Context, companyID int64) ([]Period, error) {
	list, err := s.repo.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	SortByStart(list)
	return list, nil
}

// Get returns a single period.
func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	return s.repo.Get(ctx, id)
}

// ResolveForWrite loads the company's periods and picks the write target.
func (s *Service) ResolveForWrite(ctx context.Context, companyID int64, explicitID *int64, date time.Time) (Period, error) {
	list, err := s.repo.List(ctx, companyID)
	if err != nil {
		return Period{}, err
	}
	return ResolveForWrite(list, explicitID, date)
}

// Current resolves the period a caller is working in.
func (s *Service) Current(ctx context.Context, companyID int64, override, preference *int64) (Period, error) {
	list, err := s.repo.List(ctx, companyID)
	if err != nil {
		return Period{}, err
	}
	return SelectCurrent(list, override, preference)
}

// SoftClose moves an open period to soft_closed.
func (s *Service) SoftClose(ctx context.Context, periodID, actorID int64) (Period, error) {
	return s.transition(ctx, periodID, actorID, StatusSoftClosed)
}

// HardClose locks the period permanently.
func (s *Service) HardClose(ctx context.Context, periodID, actorID int64) (Period, error) {
	return s.transition(ctx, periodID, actorID, StatusHardClosed)
}

func (s *Service) transition(ctx context.Context, periodID, actorID int64, target Status) (Period, error) {
	if actorID == 0 {
		return Period{}, fmt.Errorf("periods: actor required")
	}
	current, err := s.repo.Get(ctx, periodID)
	if err != nil {
		return Period{}, err
	}
	from, err := ResolveStatus(current)
	if err != nil {
		return Period{}, err
	}
	if err := ValidateTransition(from, target); err != nil {
		return Period{}, err
	}
	now := s.now()
	updated, err := s.repo.CompareAndSetStatus(ctx, periodID, from, target, actorID, now, internalShared.AuditLog{
		ActorID:  actorID,
		Action:   "period." + string(target),
		Entity:   "accounting_period",
		EntityID: fmt.Sprintf("%d", periodID),
		Meta:     map[string]any{"from": string(from), "to": string(target)},
		At:       now,
	})
	if err != nil {
		return Period{}, err
	}
	return updated, nil
}
