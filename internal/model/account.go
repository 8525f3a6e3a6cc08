package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// DebitNormal reports whether balances of this type increase on the debit side.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// AccountCategory is the reporting bucket an account rolls up into.
type AccountCategory string

const (
	CategoryCurrentAsset      AccountCategory = "current_asset"
	CategoryFixedAsset        AccountCategory = "fixed_asset"
	CategoryCurrentLiability  AccountCategory = "current_liability"
	CategoryLongTermLiability AccountCategory = "long_term_liability"
	CategoryOwnerEquity       AccountCategory = "owner_equity"
	CategoryOperatingRevenue  AccountCategory = "operating_revenue"
	CategoryCostOfGoodsSold   AccountCategory = "cost_of_goods_sold"
	CategoryOperatingExpense  AccountCategory = "operating_expense"
)

// Account is one row of the chart of accounts.
type Account struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Type        AccountType     `json:"type"`
	Category    AccountCategory `json:"category"`
	Contra      bool            `json:"contra,omitempty"` // carries a balance opposite to its type
	Description string          `json:"description,omitempty"`
}
