package reports

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// BalanceSheetPolicy configures current/non-current placement by account code.
type BalanceSheetPolicy struct {
	CurrentAssetsBelow      int
	CurrentLiabilitiesBelow int
	// Lexicographic compares codes as strings, matching older exports.
	Lexicographic bool
	// IncludeUnclosedResult adds revenue minus expense to equity until the
	// period's result is closed to retained earnings.
	IncludeUnclosedResult bool
}

// DefaultBalanceSheetPolicy follows the Kazakhstan chart of accounts layout.
func DefaultBalanceSheetPolicy() BalanceSheetPolicy {
	return BalanceSheetPolicy{CurrentAssetsBelow: 2000, CurrentLiabilitiesBelow: 4000, IncludeUnclosedResult: true}
}

// BalanceSheetAccount summarises an account for assets, liabilities, or equity.
type BalanceSheetAccount struct {
	AccountID int64           `json:"accountId,omitempty"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
}

// BalanceSheetSection contains the accounts and totals for a classification.
type BalanceSheetSection struct {
	Label    string                `json:"label"`
	Accounts []BalanceSheetAccount `json:"accounts"`
	Total    decimal.Decimal       `json:"total"`
}

func (s *BalanceSheetSection) add(row BalanceSheetAccount) {
	s.Accounts = append(s.Accounts, row)
	s.Total = s.Total.Add(row.Balance)
}

// BalanceSheet is the structured response for the balance sheet report.
type BalanceSheet struct {
	PeriodID                  int64               `json:"periodId"`
	CurrentAssets             BalanceSheetSection `json:"currentAssets"`
	NonCurrentAssets          BalanceSheetSection `json:"nonCurrentAssets"`
	CurrentLiabilities        BalanceSheetSection `json:"currentLiabilities"`
	NonCurrentLiabilities     BalanceSheetSection `json:"nonCurrentLiabilities"`
	Equity                    BalanceSheetSection `json:"equity"`
	TotalAssets               decimal.Decimal     `json:"totalAssets"`
	TotalLiabilities          decimal.Decimal     `json:"totalLiabilities"`
	TotalEquity               decimal.Decimal     `json:"totalEquity"`
	TotalLiabilitiesAndEquity decimal.Decimal     `json:"totalLiabilitiesAndEquity"`
	IsBalanced                bool                `json:"isBalanced"`
	Warnings                  []string            `json:"warnings,omitempty"`
}

// CurrentResultCode labels the synthetic equity row for the unclosed result.
const CurrentResultCode = "RESULT"

// BuildBalanceSheet places trial balance rows into balance sheet sections.
func BuildBalanceSheet(tb TrialBalance, policy BalanceSheetPolicy) BalanceSheet {
	bs := BalanceSheet{
		PeriodID:              tb.PeriodID,
		CurrentAssets:         BalanceSheetSection{Label: "Current assets"},
		NonCurrentAssets:      BalanceSheetSection{Label: "Non-current assets"},
		CurrentLiabilities:    BalanceSheetSection{Label: "Current liabilities"},
		NonCurrentLiabilities: BalanceSheetSection{Label: "Non-current liabilities"},
		Equity:                BalanceSheetSection{Label: "Equity"},
	}
	result := decimal.Zero
	for _, row := range tb.Rows {
		line := BalanceSheetAccount{AccountID: row.AccountID, Code: row.Code, Name: row.Name}
		switch row.Class {
		case accounts.ClassAsset:
			line.Balance = row.ClosingDebit.Sub(row.ClosingCredit)
			current, warn := policy.isCurrent(row, policy.CurrentAssetsBelow)
			bs.warn(warn)
			if current {
				bs.CurrentAssets.add(line)
			} else {
				bs.NonCurrentAssets.add(line)
			}
		case accounts.ClassLiability:
			line.Balance = row.ClosingCredit.Sub(row.ClosingDebit).Abs()
			current, warn := policy.isCurrent(row, policy.CurrentLiabilitiesBelow)
			bs.warn(warn)
			if current {
				bs.CurrentLiabilities.add(line)
			} else {
				bs.NonCurrentLiabilities.add(line)
			}
		case accounts.ClassEquity:
			line.Balance = row.ClosingCredit.Sub(row.ClosingDebit).Abs()
			bs.Equity.add(line)
		case accounts.ClassRevenue:
			result = result.Add(row.ClosingCredit.Sub(row.ClosingDebit))
		case accounts.ClassExpense:
			result = result.Sub(row.ClosingDebit.Sub(row.ClosingCredit))
		}
	}
	if policy.IncludeUnclosedResult && !result.IsZero() {
		bs.Equity.add(BalanceSheetAccount{Code: CurrentResultCode, Name: "Current period result", Balance: result})
	}
	bs.TotalAssets = bs.CurrentAssets.Total.Add(bs.NonCurrentAssets.Total)
	bs.TotalLiabilities = bs.CurrentLiabilities.Total.Add(bs.NonCurrentLiabilities.Total)
	bs.TotalEquity = bs.Equity.Total
	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities.Add(bs.TotalEquity)
	bs.IsBalanced = shared.NearlyEqual(bs.TotalAssets, bs.TotalLiabilitiesAndEquity)
	return bs
}

func (bs *BalanceSheet) warn(msg string) {
	if msg != "" {
		bs.Warnings = append(bs.Warnings, msg)
	}
}

// isCurrent applies the explicit classification first, then the code threshold.
func (p BalanceSheetPolicy) isCurrent(row TrialBalanceRow, below int) (bool, string) {
	switch row.Classification {
	case accounts.ClassificationCurrent:
		return true, ""
	case accounts.ClassificationNonCurrent:
		return false, ""
	}
	code := strings.TrimSpace(row.Code)
	if p.Lexicographic {
		return code < strconv.Itoa(below), ""
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return false, fmt.Sprintf("account %s: non-numeric code classified as non-current", row.Code)
	}
	return n < below, ""
}
