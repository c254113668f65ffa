package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Class enumerates CoA categories.
type Class string

const (
	ClassAsset     Class = "asset"
	ClassLiability Class = "liability"
	ClassEquity    Class = "equity"
	ClassRevenue   Class = "revenue"
	ClassExpense   Class = "expense"
)

// Side is the normal balance side of an account class.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Classification is an explicit balance sheet placement override.
type Classification string

const (
	ClassificationNone       Classification = ""
	ClassificationCurrent    Classification = "current"
	ClassificationNonCurrent Classification = "non_current"
)

// Account models a chart of accounts node.
type Account struct {
	ID               int64
	CompanyID        int64
	Code             string
	Name             string
	Class            Class
	ParentID         *int64
	AllowManualEntry bool
	IsActive         bool
	Classification   Classification
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ParseClass validates a raw class value from the store.
func ParseClass(raw string) (Class, error) {
	c := Class(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case ClassAsset, ClassLiability, ClassEquity, ClassRevenue, ClassExpense:
		return c, nil
	}
	return "", shared.Wrapf(shared.ErrInvalidStatusValue, "account class %q", raw)
}

// NormalSide returns the side on which the class normally carries its balance.
func (c Class) NormalSide() Side {
	switch c {
	case ClassAsset, ClassExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Postable reports whether journal lines may reference the account.
func (a Account) Postable() bool {
	return a.IsActive && a.AllowManualEntry
}

func (a Account) String() string {
	return fmt.Sprintf("%s %s", a.Code, a.Name)
}
