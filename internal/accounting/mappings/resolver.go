package mappings

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Resolve turns payroll amounts into balanced journal lines. Every missing
// mapping type is reported; when any is missing no lines are returned.
func Resolve(amounts PayrollAmounts, list []PayrollAccountMapping) ([]journals.PostingLineInput, []error) {
	byType := make(map[MappingType]int64, len(list))
	for _, m := range list {
		if m.AccountID != 0 {
			byType[m.MappingType] = m.AccountID
		}
	}
	var errs []error
	for _, t := range RequiredTypes {
		if _, ok := byType[t]; !ok {
			errs = append(errs, shared.MissingMappingError{Type: string(t)})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	var lines []journals.PostingLineInput
	debit := func(t MappingType, amount decimal.Decimal, memo string) {
		if !amount.IsZero() {
			lines = append(lines, journals.PostingLineInput{AccountID: byType[t], Debit: amount, Memo: memo})
		}
	}
	credit := func(t MappingType, amount decimal.Decimal, memo string) {
		if !amount.IsZero() {
			lines = append(lines, journals.PostingLineInput{AccountID: byType[t], Credit: amount, Memo: memo})
		}
	}
	debit(SalaryExpense, amounts.TotalEmployerCost, "Payroll expense")
	credit(NetSalaryPayable, amounts.NetSalary, "Net salary payable")
	credit(OPVPayable, amounts.OPV, "OPV payable")
	credit(VOSMSPayable, amounts.VOSMSEmployee.Add(amounts.VOSMSEmployer), "VOSMS payable")
	credit(IPNPayable, amounts.IPN, "IPN payable")
	credit(SocialTaxPayable, amounts.SocialTax, "Social tax payable")
	credit(SocialContributionPayable, amounts.SocialContributions, "Social contributions payable")

	if err := journals.CheckLines(lines); err != nil {
		return nil, []error{err}
	}
	return lines, nil
}
