package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

// defaultLockTTL bounds how long a crashed poster can block a period.
const defaultLockTTL = 30 * time.Second

// MappingReader loads a company's payroll account mappings.
type MappingReader interface {
	ListPayroll(ctx context.Context, companyID int64) ([]mappings.PayrollAccountMapping, error)
}

// JournalPoster creates and posts ledger entries.
type JournalPoster interface {
	PostJournal(ctx context.Context, input journals.PostingInput) (journals.Entry, error)
}

// Locker serialises payroll postings per period.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// PreviewInput identifies one employee month.
type PreviewInput struct {
	CompanyID     int64 `json:"companyId" validate:"required,gt=0"`
	EmployeeID    int64 `json:"employeeId" validate:"required,gt=0"`
	Year          int   `json:"year" validate:"gte=2000,lte=2100"`
	WorkedDays    int   `json:"workedDays" validate:"gte=0"`
	TotalWorkDays int   `json:"totalWorkDays" validate:"gt=0"`
}

// PostInput adds the ledger target to a preview.
type PostInput struct {
	PreviewInput
	PeriodID int64     `json:"periodId" validate:"required,gt=0"`
	Date     time.Time `json:"date" validate:"required"`
	ActorID  int64     `json:"-"`
}

// Preview is a calculation that has not touched the ledger.
type Preview struct {
	Employee    Employee        `json:"employee"`
	Gross       decimal.Decimal `json:"gross"`
	Calculation Calculation     `json:"calculation"`
}

// Service computes payroll and books it into the ledger.
type Service struct {
	repo     Repository
	mappings MappingReader
	journals JournalPoster
	locker   Locker
	logger   *slog.Logger
	now      func() time.Time
	newID    func() uuid.UUID
	lockTTL  time.Duration
}

func NewService(repo Repository, mappingReader MappingReader, poster JournalPoster, locker Locker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		mappings: mappingReader,
		journals: poster,
		locker:   locker,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.New,
		lockTTL:  defaultLockTTL,
	}
}

// WithLockTTL overrides how long the period posting lock is held at most.
func (s *Service) WithLockTTL(ttl time.Duration) {
	if ttl > 0 {
		s.lockTTL = ttl
	}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Preview calculates an employee month without posting.
func (s *Service) Preview(ctx context.Context, in PreviewInput) (Preview, error) {
	if err := validateStruct(in); err != nil {
		return Preview{}, err
	}
	employee, err := s.repo.GetEmployee(ctx, in.CompanyID, in.EmployeeID)
	if err != nil {
		return Preview{}, err
	}
	settings, err := s.repo.GetTaxSettings(ctx, in.Year)
	if err != nil {
		return Preview{}, err
	}
	gross, err := GrossFor(employee, in.WorkedDays, in.TotalWorkDays)
	if err != nil {
		return Preview{}, err
	}
	calc, err := Calculate(CalculationInput{
		Gross:         gross,
		IsTaxResident: employee.IsTaxResident,
		Flags:         employee.Flags,
		Settings:      settings,
	})
	if err != nil {
		return Preview{}, err
	}
	return Preview{Employee: employee, Gross: gross, Calculation: calc}, nil
}

// Post calculates, resolves account mappings and posts the payroll journal.
// Missing mappings block the posting entirely.
func (s *Service) Post(ctx context.Context, in PostInput) (Run, error) {
	if err := validateStruct(in); err != nil {
		return Run{}, err
	}
	if in.ActorID == 0 {
		return Run{}, shared.Wrapf(ErrInvalidInput, "actor required")
	}
	release, err := s.locker.Acquire(ctx, internalShared.FinanceLockKey(in.PeriodID), s.lockTTL)
	if errors.Is(err, internalShared.ErrLockHeld) {
		return Run{}, shared.Wrapf(shared.ErrPostingInProgress, "period %d", in.PeriodID)
	}
	if err != nil {
		return Run{}, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release payroll lock", slog.Int64("period_id", in.PeriodID), slog.Any("error", err))
		}
	}()

	preview, err := s.Preview(ctx, in.PreviewInput)
	if err != nil {
		return Run{}, err
	}
	list, err := s.mappings.ListPayroll(ctx, in.CompanyID)
	if err != nil {
		return Run{}, err
	}
	lines, errs := mappings.Resolve(preview.Calculation.Amounts(), list)
	if len(errs) > 0 {
		return Run{}, errors.Join(errs...)
	}

	runID := s.newID()
	entry, err := s.journals.PostJournal(ctx, journals.PostingInput{
		CompanyID:    in.CompanyID,
		PeriodID:     in.PeriodID,
		Date:         in.Date,
		SourceModule: SourceModule,
		SourceID:     runID,
		Memo:         fmt.Sprintf("Payroll %s %d/%d days", preview.Employee.FullName, in.WorkedDays, in.TotalWorkDays),
		PostedBy:     in.ActorID,
		Lines:        lines,
		AuditMeta:    map[string]any{
			"payroll_run_id": runID.String(),
			"employee_id":    in.EmployeeID,
			"net":            preview.Calculation.NetSalary.StringFixed(2),
		},
	})
	if err != nil {
		return Run{}, err
	}
	run := Run{
		ID:             runID,
		CompanyID:      in.CompanyID,
		EmployeeID:     in.EmployeeID,
		PeriodID:       in.PeriodID,
		JournalEntryID: entry.ID,
		JournalNumber:  entry.Number,
		WorkedDays:     in.WorkedDays,
		TotalWorkDays:  in.TotalWorkDays,
		Calculation:    preview.Calculation,
		CreatedBy:      in.ActorID,
		CreatedAt:      s.now(),
	}
	if err := s.repo.SaveRun(ctx, run); err != nil {
		return Run{}, fmt.Errorf("payroll: journal %s posted but run not stored: %w", entry.Number, err)
	}
	s.logger.Info("payroll posted", slog.String("run_id", runID.String()), slog.String("journal", entry.Number))
	return run, nil
}

// Runs lists the payroll runs posted into a period.
func (s *Service) Runs(ctx context.Context, companyID, periodID int64) ([]Run, error) {
	return s.repo.ListRuns(ctx, companyID, periodID)
}
