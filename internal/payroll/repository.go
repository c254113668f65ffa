package payroll

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Repository is the payroll store boundary.
type Repository interface {
	GetEmployee(ctx context.Context, companyID, employeeID int64) (Employee, error)
	GetTaxSettings(ctx context.Context, year int) (TaxSettings, error)
	SaveRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, companyID, periodID int64) ([]Run, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetEmployee(ctx context.Context, companyID, employeeID int64) (Employee, error) {
	var e Employee
	var employment, salary string
	err := r.db.QueryRow(ctx, `SELECT id, company_id, full_name, employment_type, salary_type, monthly_salary, hourly_rate,
is_tax_resident, apply_opv, apply_vosms_employee, apply_vosms_employer, apply_social_tax, apply_social_contributions,
apply_standard_deduction
FROM employees WHERE company_id=$1 AND id=$2`, companyID, employeeID).Scan(
		&e.ID, &e.CompanyID, &e.FullName, &employment, &salary, &e.MonthlySalary, &e.HourlyRate, &e.IsTaxResident,
		&e.Flags.ApplyOPV, &e.Flags.ApplyVOSMSEmployee, &e.Flags.ApplyVOSMSEmployer, &e.Flags.ApplySocialTax,
		&e.Flags.ApplySocialContributions, &e.Flags.ApplyStandardDeduction)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, shared.Wrapf(ErrEmployeeNotFound, "employee %d", employeeID)
	}
	if err != nil {
		return Employee{}, err
	}
	e.EmploymentType = EmploymentType(employment)
	e.SalaryType = SalaryType(salary)
	return e, nil
}

func (r *repository) GetTaxSettings(ctx context.Context, year int) (TaxSettings, error) {
	var s TaxSettings
	err := r.db.QueryRow(ctx, `SELECT year, mrp, mzp, opv_rate, opv_cap_mzp, vosms_employee_rate, vosms_employer_rate,
ipn_resident_rate, ipn_non_resident_rate, standard_deduction_mrp, social_tax_rate, social_contrib_rate,
social_contrib_min_mzp, social_contrib_max_mzp
FROM tax_settings WHERE year=$1`, year).Scan(
		&s.Year, &s.MRP, &s.MZP, &s.OPVRate, &s.OPVCapMZP, &s.VOSMSEmployeeRate, &s.VOSMSEmployerRate,
		&s.IPNResidentRate, &s.IPNNonResidentRate, &s.StandardDeductionMRP, &s.SocialTaxRate, &s.SocialContribRate,
		&s.SocialContribMinMZP, &s.SocialContribMaxMZP)
	if errors.Is(err, pgx.ErrNoRows) {
		return TaxSettings{}, shared.Wrapf(ErrTaxSettingsNotFound, "year %d", year)
	}
	return s, err
}

func (r *repository) SaveRun(ctx context.Context, run Run) error {
	calc, err := json.Marshal(run.Calculation)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO payroll_runs (id, company_id, employee_id, period_id, je_id, worked_days,
total_work_days, gross, net_salary, employer_cost, calculation, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		run.ID, run.CompanyID, run.EmployeeID, run.PeriodID, run.JournalEntryID, run.WorkedDays, run.TotalWorkDays,
		run.Calculation.Gross, run.Calculation.NetSalary, run.Calculation.TotalEmployerCost, calc, run.CreatedBy, run.CreatedAt)
	return err
}

func (r *repository) ListRuns(ctx context.Context, companyID, periodID int64) ([]Run, error) {
	rows, err := r.db.Query(ctx, `SELECT pr.id, pr.company_id, pr.employee_id, pr.period_id, pr.je_id, je.number, pr.worked_days,
pr.total_work_days, pr.calculation, pr.created_by, pr.created_at
FROM payroll_runs pr JOIN journal_entries je ON je.id = pr.je_id
WHERE pr.company_id=$1 AND pr.period_id=$2 ORDER BY pr.created_at`, companyID, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var run Run
		var calc []byte
		if err := rows.Scan(&run.ID, &run.CompanyID, &run.EmployeeID, &run.PeriodID, &run.JournalEntryID, &run.JournalNumber,
			&run.WorkedDays, &run.TotalWorkDays, &calc, &run.CreatedBy, &run.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(calc, &run.Calculation); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
