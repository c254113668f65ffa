package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func settings2024() TaxSettings {
	return TaxSettings{
		Year:                 2024,
		MRP:                  d("3692"),
		MZP:                  d("85000"),
		OPVRate:              d("0.10"),
		OPVCapMZP:            d("50"),
		VOSMSEmployeeRate:    d("0.02"),
		VOSMSEmployerRate:    d("0.03"),
		IPNResidentRate:      d("0.10"),
		IPNNonResidentRate:   d("0.10"),
		StandardDeductionMRP: d("14"),
		SocialTaxRate:        d("0.095"),
		SocialContribRate:    d("0.035"),
		SocialContribMinMZP:  d("1"),
		SocialContribMaxMZP:  d("7"),
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), "%s: want %s got %s", field, want, got)
}

func TestCalculateResidentAllFlags(t *testing.T) {
	calc, err := Calculate(CalculationInput{
		Gross:         d("200000"),
		IsTaxResident: true,
		Flags:         DefaultFlags(EmploymentFullTime),
		Settings:      settings2024(),
	})
	require.NoError(t, err)
	assertDec(t, "20000", calc.OPV, "opv")
	assertDec(t, "51688", calc.StandardDeduction, "standard deduction")
	assertDec(t, "128312", calc.TaxableIncome, "taxable")
	assertDec(t, "12831.2", calc.IPN, "ipn")
	assertDec(t, "4000", calc.VOSMSEmployee, "vosms employee")
	assertDec(t, "163168.8", calc.NetSalary, "net")
	assertDec(t, "7000", calc.SocialContributions, "social contributions")
	assertDec(t, "19000", calc.SocialTax, "social tax")
	assertDec(t, "6000", calc.VOSMSEmployer, "vosms employer")
	assertDec(t, "232000", calc.TotalEmployerCost, "employer cost")
	assert.True(t, calc.Gross.Sub(calc.TotalEmployeeDeductions).Equal(calc.NetSalary))
	assertDec(t, "4250000", calc.RatesUsed.OPVCap, "opv cap")
}

func TestCalculateIdentityHoldsAfterRounding(t *testing.T) {
	for _, gross := range []string{"0", "1", "99999.99", "123456.78", "85000.01", "5000000"} {
		calc, err := Calculate(CalculationInput{Gross: d(gross), IsTaxResident: true, Flags: DefaultFlags(EmploymentFullTime), Settings: settings2024()})
		require.NoError(t, err)
		assert.True(t, calc.Gross.Sub(calc.TotalEmployeeDeductions).Equal(calc.NetSalary), gross)
		for _, v := range []decimal.Decimal{calc.OPV, calc.VOSMSEmployee, calc.IPN, calc.SocialTax, calc.SocialContributions, calc.VOSMSEmployer} {
			assert.True(t, v.Equal(v.Round(2)), "component not rounded for %s", gross)
		}
	}
}

func TestCalculateCapsAndClamps(t *testing.T) {
	calc, err := Calculate(CalculationInput{Gross: d("5000000"), IsTaxResident: true, Flags: DefaultFlags(EmploymentFullTime), Settings: settings2024()})
	require.NoError(t, err)
	assertDec(t, "425000", calc.OPV, "opv capped at 50 MZP")
	assertDec(t, "595000", calc.SocialContribBase, "base capped at 7 MZP")

	low, err := Calculate(CalculationInput{Gross: d("40000"), IsTaxResident: true, Flags: DefaultFlags(EmploymentFullTime), Settings: settings2024()})
	require.NoError(t, err)
	assertDec(t, "85000", low.SocialContribBase, "base raised to 1 MZP")
	assertDec(t, "0", low.TaxableIncome, "taxable floors at zero")
	assertDec(t, "0", low.IPN, "ipn")
}

func TestCalculateNonResidentWithoutDeduction(t *testing.T) {
	s := settings2024()
	s.IPNNonResidentRate = d("0.15")
	calc, err := Calculate(CalculationInput{Gross: d("100000"), Flags: Flags{ApplyOPV: true}, Settings: s})
	require.NoError(t, err)
	assertDec(t, "10000", calc.OPV, "opv")
	assertDec(t, "0", calc.StandardDeduction, "deduction off")
	assertDec(t, "13500", calc.IPN, "non-resident ipn")
	assertDec(t, "0", calc.SocialTax, "social tax off")
	assertDec(t, "100000", calc.TotalEmployerCost, "employer cost")
	assert.True(t, calc.RatesUsed.IPNRate.Equal(d("0.15")))
}

func TestCalculateRejectsBadInput(t *testing.T) {
	_, err := Calculate(CalculationInput{Gross: d("-1"), Settings: settings2024()})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	s := settings2024()
	s.OPVRate = d("1.5")
	_, err = Calculate(CalculationInput{Gross: d("1"), Settings: s})
	require.ErrorIs(t, err, ErrInvalidInput)

	s = settings2024()
	s.MZP = decimal.Zero
	_, err = Calculate(CalculationInput{Gross: d("1"), Settings: s})
	require.ErrorIs(t, err, ErrInvalidInput)

	s = settings2024()
	s.SocialContribMaxMZP = d("0.5")
	_, err = Calculate(CalculationInput{Gross: d("1"), Settings: s})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGrossFor(t *testing.T) {
	monthly := Employee{EmploymentType: EmploymentFullTime, SalaryType: SalaryMonthly, MonthlySalary: d("210000")}
	gross, err := GrossFor(monthly, 21, 21)
	require.NoError(t, err)
	assertDec(t, "210000", gross, "full month")

	gross, err = GrossFor(monthly, 10, 21)
	require.NoError(t, err)
	assertDec(t, "100000", gross, "prorated")

	hourly := Employee{EmploymentType: EmploymentContractor, SalaryType: SalaryHourly, HourlyRate: d("1500")}
	gross, err = GrossFor(hourly, 5, 21)
	require.NoError(t, err)
	assertDec(t, "60000", gross, "hourly")

	_, err = GrossFor(monthly, 22, 21)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = GrossFor(monthly, -1, 21)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = GrossFor(monthly, 0, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = GrossFor(Employee{EmploymentType: "intern", SalaryType: SalaryMonthly}, 1, 1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculationFeedsResolver(t *testing.T) {
	calc, err := Calculate(CalculationInput{Gross: d("200000"), IsTaxResident: true, Flags: DefaultFlags(EmploymentFullTime), Settings: settings2024()})
	require.NoError(t, err)
	var list []mappings.PayrollAccountMapping
	for i, mt := range mappings.RequiredTypes {
		list = append(list, mappings.PayrollAccountMapping{MappingType: mt, AccountID: int64(100 + i)})
	}
	lines, errs := mappings.Resolve(calc.Amounts(), list)
	require.Empty(t, errs)
	assert.Len(t, lines, 7)

	lines, errs = mappings.Resolve(calc.Amounts(), list[1:])
	assert.Empty(t, lines)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], shared.ErrMappingNotFound)
}
