package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// SourceModule tags journal entries created by payroll.
const SourceModule = "PAYROLL"

// HoursPerDay converts worked days into hours for hourly staff.
const HoursPerDay = 8

var (
	// ErrInvalidInput indicates a payroll input failed validation.
	ErrInvalidInput = shared.NewValidation("payroll: invalid input")
	// ErrEmployeeNotFound indicates the employee does not exist for the company.
	ErrEmployeeNotFound = shared.NewValidation("payroll: employee not found")
	// ErrTaxSettingsNotFound indicates no tax settings are configured for the year.
	ErrTaxSettingsNotFound = shared.NewConfiguration("payroll: tax settings not configured")
)

// EmploymentType distinguishes staff from civil-contract workers.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full_time"
	EmploymentContractor EmploymentType = "contractor"
)

// SalaryType selects how gross pay is derived.
type SalaryType string

const (
	SalaryMonthly SalaryType = "monthly"
	SalaryHourly  SalaryType = "hourly"
)

// Flags switch individual deductions and contributions on or off.
type Flags struct {
	ApplyOPV                 bool `json:"applyOpv" yaml:"apply_opv"`
	ApplyVOSMSEmployee       bool `json:"applyVosmsEmployee" yaml:"apply_vosms_employee"`
	ApplyVOSMSEmployer       bool `json:"applyVosmsEmployer" yaml:"apply_vosms_employer"`
	ApplySocialTax           bool `json:"applySocialTax" yaml:"apply_social_tax"`
	ApplySocialContributions bool `json:"applySocialContributions" yaml:"apply_social_contributions"`
	ApplyStandardDeduction   bool `json:"applyStandardDeduction" yaml:"apply_standard_deduction"`
}

// DefaultFlags returns the usual flag set for an employment type.
func DefaultFlags(t EmploymentType) Flags {
	if t == EmploymentContractor {
		return Flags{ApplyOPV: true, ApplyVOSMSEmployee: true, ApplySocialContributions: true}
	}
	return Flags{
		ApplyOPV:                 true,
		ApplyVOSMSEmployee:       true,
		ApplyVOSMSEmployer:       true,
		ApplySocialTax:           true,
		ApplySocialContributions: true,
		ApplyStandardDeduction:   true,
	}
}

// Employee is the payroll view of a staff member.
type Employee struct {
	ID             int64           `json:"id"`
	CompanyID      int64           `json:"companyId"`
	FullName       string          `json:"fullName"`
	EmploymentType EmploymentType  `json:"employmentType" validate:"oneof=full_time contractor"`
	SalaryType     SalaryType      `json:"salaryType" validate:"oneof=monthly hourly"`
	MonthlySalary  decimal.Decimal `json:"monthlySalary" validate:"gte=0"`
	HourlyRate     decimal.Decimal `json:"hourlyRate" validate:"gte=0"`
	IsTaxResident  bool            `json:"isTaxResident"`
	Flags          Flags           `json:"flags"`
}

// TaxSettings holds one year's statutory amounts and rates.
type TaxSettings struct {
	Year                 int             `json:"year" yaml:"year" validate:"gte=2000,lte=2100"`
	MRP                  decimal.Decimal `json:"mrp" yaml:"mrp" validate:"gt=0"`
	MZP                  decimal.Decimal `json:"mzp" yaml:"mzp" validate:"gt=0"`
	OPVRate              decimal.Decimal `json:"opvRate" yaml:"opv_rate" validate:"gte=0,lte=1"`
	OPVCapMZP            decimal.Decimal `json:"opvCapMzp" yaml:"opv_cap_mzp" validate:"gte=0"`
	VOSMSEmployeeRate    decimal.Decimal `json:"vosmsEmployeeRate" yaml:"vosms_employee_rate" validate:"gte=0,lte=1"`
	VOSMSEmployerRate    decimal.Decimal `json:"vosmsEmployerRate" yaml:"vosms_employer_rate" validate:"gte=0,lte=1"`
	IPNResidentRate      decimal.Decimal `json:"ipnResidentRate" yaml:"ipn_resident_rate" validate:"gte=0,lte=1"`
	IPNNonResidentRate   decimal.Decimal `json:"ipnNonResidentRate" yaml:"ipn_non_resident_rate" validate:"gte=0,lte=1"`
	StandardDeductionMRP decimal.Decimal `json:"standardDeductionMrp" yaml:"standard_deduction_mrp" validate:"gte=0"`
	SocialTaxRate        decimal.Decimal `json:"socialTaxRate" yaml:"social_tax_rate" validate:"gte=0,lte=1"`
	SocialContribRate    decimal.Decimal `json:"socialContribRate" yaml:"social_contrib_rate" validate:"gte=0,lte=1"`
	SocialContribMinMZP  decimal.Decimal `json:"socialContribMinMzp" yaml:"social_contrib_min_mzp" validate:"gte=0"`
	SocialContribMaxMZP  decimal.Decimal `json:"socialContribMaxMzp" yaml:"social_contrib_max_mzp" validate:"gte=0"`
}

// RatesUsed echoes the settings that produced a calculation.
type RatesUsed struct {
	Year                 int             `json:"year"`
	MRP                  decimal.Decimal `json:"mrp"`
	MZP                  decimal.Decimal `json:"mzp"`
	OPVRate              decimal.Decimal `json:"opvRate"`
	OPVCap               decimal.Decimal `json:"opvCap"`
	VOSMSEmployeeRate    decimal.Decimal `json:"vosmsEmployeeRate"`
	VOSMSEmployerRate    decimal.Decimal `json:"vosmsEmployerRate"`
	IPNRate              decimal.Decimal `json:"ipnRate"`
	StandardDeductionMRP decimal.Decimal `json:"standardDeductionMrp"`
	SocialTaxRate        decimal.Decimal `json:"socialTaxRate"`
	SocialContribRate    decimal.Decimal `json:"socialContribRate"`
	SocialContribMin     decimal.Decimal `json:"socialContribMin"`
	SocialContribMax     decimal.Decimal `json:"socialContribMax"`
}

// Calculation is the gross-to-net and employer cost breakdown.
type Calculation struct {
	Gross                   decimal.Decimal `json:"gross"`
	OPV                     decimal.Decimal `json:"opv"`
	VOSMSEmployee           decimal.Decimal `json:"vosmsEmployee"`
	StandardDeduction       decimal.Decimal `json:"standardDeduction"`
	TaxableIncome           decimal.Decimal `json:"taxableIncome"`
	IPN                     decimal.Decimal `json:"ipn"`
	TotalEmployeeDeductions decimal.Decimal `json:"totalEmployeeDeductions"`
	NetSalary               decimal.Decimal `json:"netSalary"`
	SocialContribBase       decimal.Decimal `json:"socialContribBase"`
	SocialContributions     decimal.Decimal `json:"socialContributions"`
	SocialTax               decimal.Decimal `json:"socialTax"`
	VOSMSEmployer           decimal.Decimal `json:"vosmsEmployer"`
	TotalEmployerCost       decimal.Decimal `json:"totalEmployerCost"`
	RatesUsed               RatesUsed       `json:"ratesUsed"`
}

// Run records a posted payroll calculation.
type Run struct {
	ID             uuid.UUID   `json:"id"`
	CompanyID      int64       `json:"companyId"`
	EmployeeID     int64       `json:"employeeId"`
	PeriodID       int64       `json:"periodId"`
	JournalEntryID int64       `json:"journalEntryId"`
	JournalNumber  string      `json:"journalNumber"`
	WorkedDays     int         `json:"workedDays"`
	TotalWorkDays  int         `json:"totalWorkDays"`
	Calculation    Calculation `json:"calculation"`
	CreatedBy      int64       `json:"createdBy"`
	CreatedAt      time.Time   `json:"createdAt"`
}
