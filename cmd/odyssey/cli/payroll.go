package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/payroll"
)

// PayrollCalcOptions defines available flags for the payroll calc command.
type PayrollCalcOptions struct {
	Year          int
	Salary        string
	SalaryType    string
	WorkedDays    int
	TotalWorkDays int
	Employment    string
	NonResident   bool
	SettingsFile  string
	Currency      string
	JSONOutput    bool
	Stdout        io.Writer
	Stderr        io.Writer
}

// PayrollCalcSummary is the JSON output of payroll calc.
type PayrollCalcSummary struct {
	Currency    string              `json:"currency"`
	Gross       decimal.Decimal     `json:"gross"`
	Calculation payroll.Calculation `json:"calculation"`
}

// PayrollCalcCommand computes one employee month offline and prints the breakdown.
func PayrollCalcCommand(opts PayrollCalcOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Currency == "" {
		opts.Currency = "KZT"
	}
	summary, err := calculate(opts)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "payroll calc: %v\n", err)
		return 1
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "payroll calc: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	renderPayrollHuman(opts.Stdout, summary)
	return 0
}

func calculate(opts PayrollCalcOptions) (PayrollCalcSummary, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(opts.Salary))
	if err != nil {
		return PayrollCalcSummary{}, fmt.Errorf("invalid salary %q", opts.Salary)
	}
	file, err := loadSettings(opts.SettingsFile)
	if err != nil {
		return PayrollCalcSummary{}, err
	}
	settings, err := file.ForYear(opts.Year)
	if err != nil {
		return PayrollCalcSummary{}, err
	}
	employment := payroll.EmploymentType(opts.Employment)
	employee := payroll.Employee{
		FullName:       "offline",
		EmploymentType: employment,
		SalaryType:     payroll.SalaryType(opts.SalaryType),
		IsTaxResident:  !opts.NonResident,
		Flags:          payroll.DefaultFlags(employment),
	}
	if employee.SalaryType == payroll.SalaryHourly {
		employee.HourlyRate = amount
	} else {
		employee.MonthlySalary = amount
	}
	gross, err := payroll.GrossFor(employee, opts.WorkedDays, opts.TotalWorkDays)
	if err != nil {
		return PayrollCalcSummary{}, err
	}
	calc, err := payroll.Calculate(payroll.CalculationInput{
		Gross:         gross,
		IsTaxResident: employee.IsTaxResident,
		Flags:         employee.Flags,
		Settings:      settings,
	})
	if err != nil {
		return PayrollCalcSummary{}, err
	}
	return PayrollCalcSummary{Currency: strings.ToUpper(opts.Currency), Gross: gross, Calculation: calc}, nil
}

func loadSettings(path string) (payroll.SettingsFile, error) {
	if path == "" {
		return payroll.BuiltinTaxSettings()
	}
	f, err := os.Open(path)
	if err != nil {
		return payroll.SettingsFile{}, fmt.Errorf("open settings: %w", err)
	}
	defer f.Close()
	return payroll.LoadTaxSettingsYAML(f)
}

func renderPayrollHuman(w io.Writer, s PayrollCalcSummary) {
	c := s.Calculation
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	rows := []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Gross", c.Gross},
		{"OPV", c.OPV},
		{"VOSMS (employee)", c.VOSMSEmployee},
		{"Standard deduction", c.StandardDeduction},
		{"Taxable income", c.TaxableIncome},
		{"IPN", c.IPN},
		{"Net salary", c.NetSalary},
		{"Social contributions", c.SocialContributions},
		{"Social tax", c.SocialTax},
		{"VOSMS (employer)", c.VOSMSEmployer},
		{"Employer cost", c.TotalEmployerCost},
	}
	for _, row := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t\n", row.label, formatMoney(row.amount, s.Currency))
	}
	_ = tw.Flush()
}

// formatMoney renders amount in currency's minor units, falling back to a
// plain decimal for codes go-money does not know.
func formatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), cur.Code).Display()
}
