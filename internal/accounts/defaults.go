package accounts

import "github.com/ponmo-books/ponmo/internal/model"

// Account codes referenced by the transaction recorders.
const (
	CodeCash                    = "1000"
	CodeBank                    = "1100"
	CodeAccountsReceivable      = "1200"
	CodeRawMaterials            = "1300"
	CodeWorkInProcess           = "1310"
	CodeFinishedGoods           = "1320"
	CodeEquipment               = "1400"
	CodeAccumulatedDepreciation = "1500"
	CodeAccountsPayable         = "2000"
	CodeAccruedExpenses         = "2100"
	CodeCustomerDeposits        = "2200"
	CodeOwnersCapital           = "3000"
	CodeRetainedEarnings        = "3100"
	CodeCurrentYearProfit       = "3200"
	CodeSalesRevenue            = "4000"
	CodeServiceRevenue          = "4100"
	CodeCOGS                    = "5000"
	CodeRawMaterialsPurchased   = "5100"
	CodeDirectLabor             = "5200"
	CodeManufacturingOverhead   = "5300"
	CodeProcessingExpense       = "5400"
	CodeAdministrativeExpense   = "5500"
	CodeSellingExpense          = "5600"
	CodeFinancingExpense        = "5700"
)

// DefaultChart returns the fixed chart of accounts. Codes and types are
// append-only: entries already reference them.
func DefaultChart() []model.Account {
	return []model.Account{
		{Code: CodeCash, Name: "Cash on Hand", Type: model.AccountTypeAsset, Category: model.CategoryCurrentAsset},
		{Code: CodeBank, Name: "Bank Accounts", Type: model.AccountTypeAsset, Category: model.CategoryCurrentAsset},
		{Code: CodeAccountsReceivable, Name: "Accounts Receivable", Type: model.AccountTypeAsset, Category: model.CategoryCurrentAsset, Description: "Amounts owed by customers"},
		{Code: CodeRawMaterials, Name: "Raw Materials Inventory", Type: model.AccountTypeAsset, Category: model.CategoryCurrentAsset},
		{Code: CodeWorkInProcess, Name: "Work in Process", Type: model.AccountTypeAsset, Category: model.CategoryCurrentAsset, Description: "Materials and processing cost in production"},
		{Code: CodeFinishedGoods, Name: "Finished Goods Inventory", Type: model.AccountTypeAsset, Category: model.CategoryCurrentAsset},
		{Code: CodeEquipment, Name: "Equipment", Type: model.AccountTypeAsset, Category: model.CategoryFixedAsset},
		{Code: CodeAccumulatedDepreciation, Name: "Accumulated Depreciation", Type: model.AccountTypeAsset, Category: model.CategoryFixedAsset, Contra: true, Description: "Contra asset against equipment"},
		{Code: CodeAccountsPayable, Name: "Accounts Payable", Type: model.AccountTypeLiability, Category: model.CategoryCurrentLiability, Description: "Amounts owed to vendors and card issuers"},
		{Code: CodeAccruedExpenses, Name: "Accrued Expenses", Type: model.AccountTypeLiability, Category: model.CategoryCurrentLiability},
		{Code: CodeCustomerDeposits, Name: "Customer Deposits", Type: model.AccountTypeLiability, Category: model.CategoryCurrentLiability, Description: "Prepayments not yet applied to sales"},
		{Code: CodeOwnersCapital, Name: "Owner's Capital", Type: model.AccountTypeEquity, Category: model.CategoryOwnerEquity},
		{Code: CodeRetainedEarnings, Name: "Retained Earnings", Type: model.AccountTypeEquity, Category: model.CategoryOwnerEquity},
		{Code: CodeCurrentYearProfit, Name: "Current Year Profit/Loss", Type: model.AccountTypeEquity, Category: model.CategoryOwnerEquity},
		{Code: CodeSalesRevenue, Name: "Sales Revenue", Type: model.AccountTypeRevenue, Category: model.CategoryOperatingRevenue},
		{Code: CodeServiceRevenue, Name: "Service Revenue", Type: model.AccountTypeRevenue, Category: model.CategoryOperatingRevenue},
		{Code: CodeCOGS, Name: "Cost of Goods Sold", Type: model.AccountTypeExpense, Category: model.CategoryCostOfGoodsSold},
		{Code: CodeRawMaterialsPurchased, Name: "Raw Materials Purchased", Type: model.AccountTypeExpense, Category: model.CategoryCostOfGoodsSold},
		{Code: CodeDirectLabor, Name: "Direct Labor", Type: model.AccountTypeExpense, Category: model.CategoryCostOfGoodsSold},
		{Code: CodeManufacturingOverhead, Name: "Manufacturing Overhead", Type: model.AccountTypeExpense, Category: model.CategoryCostOfGoodsSold},
		{Code: CodeProcessingExpense, Name: "Processing Expense", Type: model.AccountTypeExpense, Category: model.CategoryOperatingExpense},
		{Code: CodeAdministrativeExpense, Name: "Administrative Expenses", Type: model.AccountTypeExpense, Category: model.CategoryOperatingExpense},
		{Code: CodeSellingExpense, Name: "Selling Expenses", Type: model.AccountTypeExpense, Category: model.CategoryOperatingExpense},
		{Code: CodeFinancingExpense, Name: "Financing Expenses", Type: model.AccountTypeExpense, Category: model.CategoryOperatingExpense},
	}
}
