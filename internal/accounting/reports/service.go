package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// PeriodReader resolves the period a report is built for.
type PeriodReader interface {
	Get(ctx context.Context, id int64) (periods.Period, error)
}

// Service builds trial balance and statements, caching results per company.
type Service struct {
	repo    Repository
	periods PeriodReader
	cache   *Cache
	group   singleflight.Group
	policy  BalanceSheetPolicy
	logger  *slog.Logger
}

// NewService constructs the reporting service. cache may be nil.
func NewService(repo Repository, periodReader PeriodReader, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, periods: periodReader, cache: cache, policy: DefaultBalanceSheetPolicy(), logger: logger}
}

// WithPolicy replaces the balance sheet classification policy.
func (s *Service) WithPolicy(policy BalanceSheetPolicy) {
	s.policy = policy
}

// Bump drops every cached report of the company.
func (s *Service) Bump(ctx context.Context, companyID int64) error {
	return s.cache.Bump(ctx, companyID)
}

// TrialBalance returns the period's trial balance.
func (s *Service) TrialBalance(ctx context.Context, companyID, periodID int64) (TrialBalance, error) {
	var tb TrialBalance
	err := s.cached(ctx, companyID, "tb:"+strconv.FormatInt(periodID, 10), &tb, func(ctx context.Context) (any, error) {
		return s.build(ctx, companyID, periodID)
	})
	return tb, err
}

// BalanceSheet returns the balance sheet derived from the period's trial balance.
func (s *Service) BalanceSheet(ctx context.Context, companyID, periodID int64) (BalanceSheet, error) {
	var bs BalanceSheet
	key := fmt.Sprintf("bs:%d:%d:%d:%t:%t", periodID, s.policy.CurrentAssetsBelow, s.policy.CurrentLiabilitiesBelow,
		s.policy.Lexicographic, s.policy.IncludeUnclosedResult)
	err := s.cached(ctx, companyID, key, &bs, func(ctx context.Context) (any, error) {
		tb, err := s.TrialBalance(ctx, companyID, periodID)
		if err != nil {
			return nil, err
		}
		out := BuildBalanceSheet(tb, s.policy)
		for _, w := range out.Warnings {
			s.logger.Warn("balance sheet classification", slog.Int64("company_id", companyID), slog.String("warning", w))
		}
		return out, nil
	})
	return bs, err
}

// ProfitAndLoss returns the income statement of the period.
func (s *Service) ProfitAndLoss(ctx context.Context, companyID, periodID int64) (ProfitAndLoss, error) {
	var pl ProfitAndLoss
	err := s.cached(ctx, companyID, "pl:"+strconv.FormatInt(periodID, 10), &pl, func(ctx context.Context) (any, error) {
		tb, err := s.TrialBalance(ctx, companyID, periodID)
		if err != nil {
			return nil, err
		}
		return BuildProfitAndLoss(tb), nil
	})
	return pl, err
}

// RollForward stores the closing balances of one period as the openings of
// the next. The target period must still accept writes.
func (s *Service) RollForward(ctx context.Context, companyID, fromPeriodID, toPeriodID int64) ([]OpeningBalance, error) {
	target, err := s.period(ctx, companyID, toPeriodID)
	if err != nil {
		return nil, err
	}
	if !periods.CanWrite(target) {
		return nil, shared.Wrapf(shared.ErrPeriodClosed, "period %s is %s", target.Name, target.Status)
	}
	tb, err := s.build(ctx, companyID, fromPeriodID)
	if err != nil {
		return nil, err
	}
	openings := CarryForward(tb, toPeriodID)
	if err := s.repo.SaveOpenings(ctx, toPeriodID, openings); err != nil {
		return nil, err
	}
	if err := s.Bump(ctx, companyID); err != nil {
		s.logger.Warn("invalidate report cache", slog.Int64("company_id", companyID), slog.Any("error", err))
	}
	return openings, nil
}

// Recompute builds the trial balance straight from the store, bypassing the cache.
func (s *Service) Recompute(ctx context.Context, companyID, periodID int64) (TrialBalance, error) {
	return s.build(ctx, companyID, periodID)
}

func (s *Service) build(ctx context.Context, companyID, periodID int64) (TrialBalance, error) {
	if _, err := s.period(ctx, companyID, periodID); err != nil {
		return TrialBalance{}, err
	}
	list, err := s.repo.ListAccounts(ctx, companyID)
	if err != nil {
		return TrialBalance{}, err
	}
	chart, err := accounts.NewChart(list)
	if err != nil {
		return TrialBalance{}, err
	}
	openings, err := s.repo.ListOpenings(ctx, companyID, periodID)
	if err != nil {
		return TrialBalance{}, err
	}
	lines, err := s.repo.ListPostedLines(ctx, companyID, periodID)
	if err != nil {
		return TrialBalance{}, err
	}
	return BuildTrialBalance(periodID, chart, openings, lines)
}

func (s *Service) period(ctx context.Context, companyID, periodID int64) (periods.Period, error) {
	if s.periods == nil {
		return periods.Period{ID: periodID, CompanyID: companyID, Status: periods.StatusOpen}, nil
	}
	p, err := s.periods.Get(ctx, periodID)
	if err != nil {
		return periods.Period{}, err
	}
	if p.CompanyID != companyID {
		return periods.Period{}, shared.Wrapf(shared.ErrPeriodNotFound, "period %d", periodID)
	}
	return p, nil
}

// cached serves dest from the versioned cache; concurrent misses for the
// same key share one build.
func (s *Service) cached(ctx context.Context, companyID int64, name string, dest any, build func(context.Context) (any, error)) error {
	key, err := s.cache.BuildKey(ctx, companyID, name)
	if err != nil {
		return err
	}
	resultChan := s.group.DoChan(key, func() (any, error) {
		var raw json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &raw, build); err != nil {
			return nil, err
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.(json.RawMessage), dest)
	}
}
