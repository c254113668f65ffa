package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// CalculationInput is everything the engine needs for one employee month.
type CalculationInput struct {
	Gross         decimal.Decimal `validate:"gte=0"`
	IsTaxResident bool
	Flags         Flags
	Settings      TaxSettings
}

// Calculate derives withholdings, net pay and employer cost from gross pay.
// Each component is rounded to cents before later steps use it, so
// Gross - TotalEmployeeDeductions equals NetSalary exactly.
func Calculate(in CalculationInput) (Calculation, error) {
	if err := validateStruct(in); err != nil {
		return Calculation{}, err
	}
	if err := in.Settings.Validate(); err != nil {
		return Calculation{}, err
	}
	s := in.Settings
	gross := shared.Round2(in.Gross)
	zero := decimal.Zero

	opvCap := s.OPVCapMZP.Mul(s.MZP)
	opv := zero
	if in.Flags.ApplyOPV {
		opv = shared.Round2(decimal.Min(gross, opvCap).Mul(s.OPVRate))
	}
	vosmsEmployee := zero
	if in.Flags.ApplyVOSMSEmployee {
		vosmsEmployee = shared.Round2(gross.Mul(s.VOSMSEmployeeRate))
	}
	standardDeduction := zero
	if in.Flags.ApplyStandardDeduction {
		standardDeduction = shared.Round2(s.StandardDeductionMRP.Mul(s.MRP))
	}
	taxable := decimal.Max(zero, gross.Sub(opv).Sub(standardDeduction))
	ipnRate := s.IPNNonResidentRate
	if in.IsTaxResident {
		ipnRate = s.IPNResidentRate
	}
	ipn := shared.Round2(taxable.Mul(ipnRate))
	totalEmployee := opv.Add(vosmsEmployee).Add(ipn)

	minBase := s.SocialContribMinMZP.Mul(s.MZP)
	maxBase := s.SocialContribMaxMZP.Mul(s.MZP)
	base := decimal.Min(decimal.Max(gross, minBase), maxBase)
	socialContributions := zero
	if in.Flags.ApplySocialContributions {
		socialContributions = shared.Round2(base.Mul(s.SocialContribRate))
	}
	socialTax := zero
	if in.Flags.ApplySocialTax {
		socialTax = shared.Round2(gross.Mul(s.SocialTaxRate))
	}
	vosmsEmployer := zero
	if in.Flags.ApplyVOSMSEmployer {
		vosmsEmployer = shared.Round2(gross.Mul(s.VOSMSEmployerRate))
	}

	return Calculation{
		Gross:                   gross,
		OPV:                     opv,
		VOSMSEmployee:           vosmsEmployee,
		StandardDeduction:       standardDeduction,
		TaxableIncome:           taxable,
		IPN:                     ipn,
		TotalEmployeeDeductions: totalEmployee,
		NetSalary:               gross.Sub(totalEmployee),
		SocialContribBase:       base,
		SocialContributions:     socialContributions,
		SocialTax:               socialTax,
		VOSMSEmployer:           vosmsEmployer,
		TotalEmployerCost:       gross.Add(socialTax).Add(socialContributions).Add(vosmsEmployer),
		RatesUsed: RatesUsed{
			Year:                 s.Year,
			MRP:                  s.MRP,
			MZP:                  s.MZP,
			OPVRate:              s.OPVRate,
			OPVCap:               opvCap,
			VOSMSEmployeeRate:    s.VOSMSEmployeeRate,
			VOSMSEmployerRate:    s.VOSMSEmployerRate,
			IPNRate:              ipnRate,
			StandardDeductionMRP: s.StandardDeductionMRP,
			SocialTaxRate:        s.SocialTaxRate,
			SocialContribRate:    s.SocialContribRate,
			SocialContribMin:     minBase,
			SocialContribMax:     maxBase,
		},
	}, nil
}

// GrossFor returns an employee's gross pay for the worked days of a month.
// Monthly salaries are prorated when fewer days than scheduled were worked.
func GrossFor(e Employee, workedDays, totalWorkDays int) (decimal.Decimal, error) {
	if err := validateStruct(e); err != nil {
		return decimal.Zero, err
	}
	if totalWorkDays <= 0 {
		return decimal.Zero, shared.Wrapf(ErrInvalidInput, "total work days must be positive")
	}
	if workedDays < 0 || workedDays > totalWorkDays {
		return decimal.Zero, shared.Wrapf(ErrInvalidInput, "worked days %d outside [0, %d]", workedDays, totalWorkDays)
	}
	days := decimal.NewFromInt(int64(workedDays))
	if e.SalaryType == SalaryHourly {
		return shared.Round2(e.HourlyRate.Mul(days).Mul(decimal.NewFromInt(HoursPerDay))), nil
	}
	if workedDays < totalWorkDays {
		return shared.Round2(e.MonthlySalary.Mul(days).Div(decimal.NewFromInt(int64(totalWorkDays)))), nil
	}
	return e.MonthlySalary, nil
}

// Amounts extracts the figures the account mapping resolver posts.
func (c Calculation) Amounts() mappings.PayrollAmounts {
	return mappings.PayrollAmounts{
		NetSalary:           c.NetSalary,
		OPV:                 c.OPV,
		VOSMSEmployee:       c.VOSMSEmployee,
		VOSMSEmployer:       c.VOSMSEmployer,
		IPN:                 c.IPN,
		SocialTax:           c.SocialTax,
		SocialContributions: c.SocialContributions,
		TotalEmployerCost:   c.TotalEmployerCost,
	}
}
