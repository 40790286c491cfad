package accounts

import "time"

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// BalanceSide enumerates the side an account naturally increases on.
type BalanceSide string

const (
	BalanceSideDebit  BalanceSide = "DEBIT"
	BalanceSideCredit BalanceSide = "CREDIT"
)

// Account models a chart of accounts node scoped to an org.
// Type and normal balance side are immutable once referenced by a line.
type Account struct {
	ID                int64
	OrgID             int64
	Code              string
	Name              string
	Type              AccountType
	NormalBalanceSide BalanceSide
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
