package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// OpeningBalance is the carried-in balance of an account for a period.
type OpeningBalance struct {
	AccountID     int64           `json:"accountId"`
	PeriodID      int64           `json:"periodId"`
	OpeningDebit  decimal.Decimal `json:"openingDebit"`
	OpeningCredit decimal.Decimal `json:"openingCredit"`
}

// PostedLine is a journal line that belongs to a posted or reversed entry.
type PostedLine struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// TrialBalanceRow holds opening, turnover and closing amounts of one account.
type TrialBalanceRow struct {
	AccountID      int64                   `json:"accountId"`
	Code           string                  `json:"code"`
	Name           string                  `json:"name"`
	Class          accounts.Class          `json:"class"`
	Classification accounts.Classification `json:"classification,omitempty"`
	OpeningDebit   decimal.Decimal         `json:"openingDebit"`
	OpeningCredit  decimal.Decimal         `json:"openingCredit"`
	TurnoverDebit  decimal.Decimal         `json:"turnoverDebit"`
	TurnoverCredit decimal.Decimal         `json:"turnoverCredit"`
	ClosingDebit   decimal.Decimal         `json:"closingDebit"`
	ClosingCredit  decimal.Decimal         `json:"closingCredit"`
}

// GroupKey returns the two-digit chart section of the row.
func (r TrialBalanceRow) GroupKey() string {
	if len(r.Code) >= 2 {
		return r.Code[:2]
	}
	return r.Code
}

// TrialBalance is the per-period aggregation of the ledger.
type TrialBalance struct {
	PeriodID            int64             `json:"periodId"`
	Rows                []TrialBalanceRow `json:"rows"`
	TotalOpeningDebit   decimal.Decimal   `json:"totalOpeningDebit"`
	TotalOpeningCredit  decimal.Decimal   `json:"totalOpeningCredit"`
	TotalTurnoverDebit  decimal.Decimal   `json:"totalTurnoverDebit"`
	TotalTurnoverCredit decimal.Decimal   `json:"totalTurnoverCredit"`
	TotalClosingDebit   decimal.Decimal   `json:"totalClosingDebit"`
	TotalClosingCredit  decimal.Decimal   `json:"totalClosingCredit"`
	IsBalanced          bool              `json:"isBalanced"`
}

// TrialBalanceGroup subtotals rows sharing a chart section.
type TrialBalanceGroup struct {
	Key           string            `json:"key"`
	Rows          []TrialBalanceRow `json:"rows"`
	ClosingDebit  decimal.Decimal   `json:"closingDebit"`
	ClosingCredit decimal.Decimal   `json:"closingCredit"`
}

// Groups splits the rows by chart section for presentation.
func (tb TrialBalance) Groups() []TrialBalanceGroup {
	var out []TrialBalanceGroup
	for _, row := range tb.Rows {
		key := row.GroupKey()
		if len(out) == 0 || out[len(out)-1].Key != key {
			out = append(out, TrialBalanceGroup{Key: key})
		}
		grp := &out[len(out)-1]
		grp.Rows = append(grp.Rows, row)
		grp.ClosingDebit = grp.ClosingDebit.Add(row.ClosingDebit)
		grp.ClosingCredit = grp.ClosingCredit.Add(row.ClosingCredit)
	}
	return out
}

type accumulator struct {
	openingDebit, openingCredit   decimal.Decimal
	turnoverDebit, turnoverCredit decimal.Decimal
}

// BuildTrialBalance nets openings and posted turnovers per account. Lines or
// openings for accounts missing from the chart are rejected.
func BuildTrialBalance(periodID int64, chart *accounts.Chart, openings []OpeningBalance, lines []PostedLine) (TrialBalance, error) {
	acc := make(map[int64]*accumulator)
	get := func(id int64) (*accumulator, error) {
		if _, ok := chart.Get(id); !ok {
			return nil, shared.Wrapf(shared.ErrUnknownAccount, "account %d", id)
		}
		a, ok := acc[id]
		if !ok {
			a = &accumulator{}
			acc[id] = a
		}
		return a, nil
	}
	for _, ob := range openings {
		a, err := get(ob.AccountID)
		if err != nil {
			return TrialBalance{}, err
		}
		a.openingDebit = a.openingDebit.Add(ob.OpeningDebit)
		a.openingCredit = a.openingCredit.Add(ob.OpeningCredit)
	}
	for _, l := range lines {
		a, err := get(l.AccountID)
		if err != nil {
			return TrialBalance{}, err
		}
		a.turnoverDebit = a.turnoverDebit.Add(l.Debit)
		a.turnoverCredit = a.turnoverCredit.Add(l.Credit)
	}

	tb := TrialBalance{PeriodID: periodID}
	for id, a := range acc {
		if a.openingDebit.IsZero() && a.openingCredit.IsZero() && a.turnoverDebit.IsZero() && a.turnoverCredit.IsZero() {
			continue
		}
		account, _ := chart.Get(id)
		row := TrialBalanceRow{
			AccountID:      id,
			Code:           account.Code,
			Name:           account.Name,
			Class:          account.Class,
			Classification: account.Classification,
			OpeningDebit:   a.openingDebit,
			OpeningCredit:  a.openingCredit,
			TurnoverDebit:  a.turnoverDebit,
			TurnoverCredit: a.turnoverCredit,
		}
		row.ClosingDebit, row.ClosingCredit = closingSides(account.Class.NormalSide(),
			a.openingDebit.Add(a.turnoverDebit), a.openingCredit.Add(a.turnoverCredit))
		tb.Rows = append(tb.Rows, row)

		tb.TotalOpeningDebit = tb.TotalOpeningDebit.Add(row.OpeningDebit)
		tb.TotalOpeningCredit = tb.TotalOpeningCredit.Add(row.OpeningCredit)
		tb.TotalTurnoverDebit = tb.TotalTurnoverDebit.Add(row.TurnoverDebit)
		tb.TotalTurnoverCredit = tb.TotalTurnoverCredit.Add(row.TurnoverCredit)
		tb.TotalClosingDebit = tb.TotalClosingDebit.Add(row.ClosingDebit)
		tb.TotalClosingCredit = tb.TotalClosingCredit.Add(row.ClosingCredit)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	tb.IsBalanced = shared.NearlyEqual(tb.TotalOpeningDebit, tb.TotalOpeningCredit) &&
		shared.NearlyEqual(tb.TotalClosingDebit, tb.TotalClosingCredit)
	return tb, nil
}

// closingSides nets both sides; at most one result is non-zero.
func closingSides(normal accounts.Side, debitSide, creditSide decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if normal == accounts.SideDebit {
		if debitSide.GreaterThanOrEqual(creditSide) {
			return debitSide.Sub(creditSide), decimal.Zero
		}
		return decimal.Zero, creditSide.Sub(debitSide)
	}
	if creditSide.GreaterThanOrEqual(debitSide) {
		return decimal.Zero, creditSide.Sub(debitSide)
	}
	return debitSide.Sub(creditSide), decimal.Zero
}

// CarryForward turns closing balances into the next period's openings.
func CarryForward(tb TrialBalance, nextPeriodID int64) []OpeningBalance {
	out := make([]OpeningBalance, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		if row.ClosingDebit.IsZero() && row.ClosingCredit.IsZero() {
			continue
		}
		out = append(out, OpeningBalance{
			AccountID:     row.AccountID,
			PeriodID:      nextPeriodID,
			OpeningDebit:  row.ClosingDebit,
			OpeningCredit: row.ClosingCredit,
		})
	}
	return out
}
