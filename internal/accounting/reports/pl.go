package reports

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
)

// ProfitAndLossAccount represents a revenue or expense account summary.
type ProfitAndLossAccount struct {
	AccountID int64           `json:"accountId"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// ProfitAndLossSection groups accounts by nature.
type ProfitAndLossSection struct {
	Label    string                 `json:"label"`
	Accounts []ProfitAndLossAccount `json:"accounts"`
	Total    decimal.Decimal        `json:"total"`
}

// ProfitAndLoss contains the structured output for the report.
type ProfitAndLoss struct {
	PeriodID  int64                `json:"periodId"`
	Revenue   ProfitAndLossSection `json:"revenue"`
	Expense   ProfitAndLossSection `json:"expense"`
	NetIncome decimal.Decimal      `json:"netIncome"`
}

// BuildProfitAndLoss aggregates period turnovers into revenue and expense
// sections. Rows keep the trial balance ordering by code.
func BuildProfitAndLoss(tb TrialBalance) ProfitAndLoss {
	revenue := ProfitAndLossSection{Label: "Revenue"}
	expense := ProfitAndLossSection{Label: "Expense"}

	for _, row := range tb.Rows {
		line := ProfitAndLossAccount{AccountID: row.AccountID, Code: row.Code, Name: row.Name}
		switch row.Class {
		case accounts.ClassRevenue:
			line.Amount = row.TurnoverCredit.Sub(row.TurnoverDebit)
			revenue.Accounts = append(revenue.Accounts, line)
			revenue.Total = revenue.Total.Add(line.Amount)
		case accounts.ClassExpense:
			line.Amount = row.TurnoverDebit.Sub(row.TurnoverCredit)
			expense.Accounts = append(expense.Accounts, line)
			expense.Total = expense.Total.Add(line.Amount)
		}
	}

	return ProfitAndLoss{
		PeriodID:  tb.PeriodID,
		Revenue:   revenue,
		Expense:   expense,
		NetIncome: revenue.Total.Sub(expense.Total),
	}
}
