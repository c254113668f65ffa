package journals

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Validate enforces the double-entry invariants, the period gate and, when a
// chart is supplied, that every line hits a postable account.
func Validate(entry Entry, period periods.Period, chart *accounts.Chart) error {
	lines := entry.PostingLines()
	if err := CheckLines(lines); err != nil {
		return err
	}
	if !periods.CanWrite(period) {
		return shared.Wrapf(shared.ErrPeriodClosed, "period %s is %s", period.Name, period.Status)
	}
	if !period.Contains(entry.Date) {
		return shared.Wrapf(shared.ErrDateOutOfRange, "%s not in %s", entry.Date.Format("2006-01-02"), period.Name)
	}
	if chart != nil {
		for _, l := range lines {
			if l.Debit.IsZero() && l.Credit.IsZero() {
				continue
			}
			if err := chart.EnsurePostable(l.AccountID); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckLines validates amounts, balance and line count. Lines with both
// sides zero are ignored.
func CheckLines(lines []PostingLineInput) error {
	if err := checkLineAmounts(lines); err != nil {
		return err
	}
	debit, credit := sumLines(lines)
	if !shared.NearlyEqual(debit, credit) {
		return shared.UnbalancedEntryError{Difference: debit.Sub(credit).Abs()}
	}
	nonZero := 0
	for _, l := range lines {
		if !l.Debit.IsZero() || !l.Credit.IsZero() {
			nonZero++
		}
	}
	if nonZero < 2 {
		return shared.ErrInsufficientLines
	}
	return nil
}

func checkLineAmounts(lines []PostingLineInput) error {
	for idx, l := range lines {
		if l.AccountID == 0 {
			return shared.Wrapf(shared.ErrInvalidAmount, "line %d missing account", idx+1)
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return shared.Wrapf(shared.ErrInvalidAmount, "line %d negative amount", idx+1)
		}
		if !l.Debit.IsZero() && !l.Credit.IsZero() {
			return shared.Wrapf(shared.ErrInvalidAmount, "line %d cannot be both debit and credit", idx+1)
		}
		if !fitsCents(l.Debit) || !fitsCents(l.Credit) {
			return shared.Wrapf(shared.ErrInvalidAmount, "line %d has more than 2 decimal places", idx+1)
		}
	}
	return nil
}

// fitsCents reports whether d carries no precision below one cent.
func fitsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func sumLines(lines []PostingLineInput) (debit, credit decimal.Decimal) {
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}
