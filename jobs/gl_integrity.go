package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
	jobmetrics "github.com/odyssey-erp/odyssey-books/internal/jobs"
)

type periodLister interface {
	List(ctx context.Context, companyID int64) ([]periods.Period, error)
}

type trialBalanceSource interface {
	Recompute(ctx context.Context, companyID, periodID int64) (reports.TrialBalance, error)
}

// IntegrityJob recomputes every trial balance and reports periods whose
// debits and credits no longer agree.
type IntegrityJob struct {
	Companies companyLister
	Periods   periodLister
	Reports   trialBalanceSource
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// IntegrityResult summarises one run.
type IntegrityResult struct {
	Checked    int
	Imbalanced []IntegrityFinding
}

// IntegrityFinding identifies an out-of-balance period.
type IntegrityFinding struct {
	CompanyID int64
	PeriodID  int64
	Debit     string
	Credit    string
}

// NewIntegrityJob initialises the integrity handler.
func NewIntegrityJob(companies companyLister, periodSvc periodLister, reportSvc trialBalanceSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *IntegrityJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntegrityJob{Companies: companies, Periods: periodSvc, Reports: reportSvc, Logger: logger, Metrics: metrics}
}

// Handle runs the check for the scoped companies. Imbalances are logged and
// counted; only store failures fail the task.
func (j *IntegrityJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Companies == nil || j.Periods == nil || j.Reports == nil {
		return fmt.Errorf("gl integrity: handler not configured: %w", asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskGLIntegrity)
	defer func() { err = tracker.End(err) }()

	var scope ScopePayload
	if err := decodePayload(t, &scope); err != nil {
		return err
	}
	result, err := j.Run(ctx, scope)
	j.Logger.Info("gl integrity completed", slog.Int("periods", result.Checked), slog.Int("imbalanced", len(result.Imbalanced)))
	return err
}

// Run performs the check and returns the findings.
func (j *IntegrityJob) Run(ctx context.Context, scope ScopePayload) (IntegrityResult, error) {
	var result IntegrityResult
	ids, err := scopeCompanies(ctx, j.Companies, scope)
	if err != nil {
		return result, fmt.Errorf("gl integrity: list companies: %w", err)
	}
	var errs []error
	for _, companyID := range ids {
		list, err := j.Periods.List(ctx, companyID)
		if err != nil {
			errs = append(errs, fmt.Errorf("company %d: %w", companyID, err))
			continue
		}
		for _, p := range list {
			tb, err := j.Reports.Recompute(ctx, companyID, p.ID)
			if err != nil {
				j.Logger.Error("recompute trial balance", slog.Int64("company_id", companyID), slog.Int64("period_id", p.ID), slog.Any("error", err))
				errs = append(errs, fmt.Errorf("company %d period %d: %w", companyID, p.ID, err))
				continue
			}
			result.Checked++
			if tb.IsBalanced {
				continue
			}
			finding := IntegrityFinding{
				CompanyID: companyID,
				PeriodID:  p.ID,
				Debit:     tb.TotalClosingDebit.StringFixed(2),
				Credit:    tb.TotalClosingCredit.StringFixed(2),
			}
			result.Imbalanced = append(result.Imbalanced, finding)
			j.Metrics.AddImbalance(companyID, p.ID)
			j.Logger.Warn("trial balance out of balance",
				slog.Int64("company_id", companyID),
				slog.Int64("period_id", p.ID),
				slog.String("period", p.Name),
				slog.String("closing_debit", finding.Debit),
				slog.String("closing_credit", finding.Credit),
			)
		}
	}
	return result, errors.Join(errs...)
}
