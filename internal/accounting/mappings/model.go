package mappings

import (
	"time"

	"github.com/shopspring/decimal"
)

// ModulePayroll scopes payroll mappings in account_mappings.
const ModulePayroll = "PAYROLL"

// MappingType names the ledger role an account plays in a payroll posting.
type MappingType string

const (
	SalaryExpense             MappingType = "salary_expense"
	NetSalaryPayable          MappingType = "net_salary_payable"
	OPVPayable                MappingType = "opv_payable"
	VOSMSPayable              MappingType = "vosms_payable"
	IPNPayable                MappingType = "ipn_payable"
	SocialTaxPayable          MappingType = "social_tax_payable"
	SocialContributionPayable MappingType = "social_contribution_payable"
)

// RequiredTypes lists every mapping a company needs before payroll can post.
var RequiredTypes = []MappingType{
	SalaryExpense,
	NetSalaryPayable,
	OPVPayable,
	VOSMSPayable,
	IPNPayable,
	SocialTaxPayable,
	SocialContributionPayable,
}

// PayrollAccountMapping links a payroll role to a ledger account.
type PayrollAccountMapping struct {
	CompanyID   int64       `json:"companyId"`
	MappingType MappingType `json:"mappingType"`
	AccountID   int64       `json:"accountId"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// PayrollAmounts is the slice of a payroll calculation the resolver posts.
type PayrollAmounts struct {
	NetSalary           decimal.Decimal
	OPV                 decimal.Decimal
	VOSMSEmployee       decimal.Decimal
	VOSMSEmployer       decimal.Decimal
	IPN                 decimal.Decimal
	SocialTax           decimal.Decimal
	SocialContributions decimal.Decimal
	TotalEmployerCost   decimal.Decimal
}
