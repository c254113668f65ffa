package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	jobmetrics "github.com/odyssey-erp/odyssey-books/internal/jobs"
)

type periodProvisioner interface {
	AutoProvision(ctx context.Context, companyID int64) ([]periods.Period, error)
}

// ProvisionJob makes sure every company has its monthly periods.
type ProvisionJob struct {
	Companies companyLister
	Periods   periodProvisioner
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewProvisionJob initialises the provisioning handler.
func NewProvisionJob(companies companyLister, provisioner periodProvisioner, logger *slog.Logger, metrics *jobmetrics.Metrics) *ProvisionJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProvisionJob{Companies: companies, Periods: provisioner, Logger: logger, Metrics: metrics}
}

// Handle provisions the scoped companies. A failure for one company does not
// stop the others; all failures are returned together so the task retries.
func (j *ProvisionJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Companies == nil || j.Periods == nil {
		return fmt.Errorf("periods provision: handler not configured: %w", asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskPeriodsProvision)
	defer func() { err = tracker.End(err) }()

	var scope ScopePayload
	if err := decodePayload(t, &scope); err != nil {
		return err
	}
	ids, err := scopeCompanies(ctx, j.Companies, scope)
	if err != nil {
		return fmt.Errorf("periods provision: list companies: %w", err)
	}

	var errs []error
	total := 0
	for _, companyID := range ids {
		created, err := j.Periods.AutoProvision(ctx, companyID)
		if err != nil {
			j.Logger.Error("provision periods", slog.Int64("company_id", companyID), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("company %d: %w", companyID, err))
			continue
		}
		total += len(created)
	}
	j.Metrics.AddProvisioned(total)
	j.Logger.Info("periods provision completed", slog.Int("companies", len(ids)), slog.Int("created", total))
	return errors.Join(errs...)
}
