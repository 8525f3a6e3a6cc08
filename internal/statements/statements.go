package statements

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ponmo-books/ponmo/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Balances supplies per-account normal-side balances over a date window.
type Balances interface {
	PeriodBalances(ctx context.Context, scope model.Scope, from, to time.Time) (map[string]decimal.Decimal, error)
}

// Chart lists the accounts statements are grouped by.
type Chart interface {
	All() []model.Account
}

// Generator derives financial statements from journal balances. It only
// reads; inconsistencies are reported, never corrected.
type Generator struct {
	ledger    Balances
	chart     Chart
	tolerance decimal.Decimal
}

// NewGenerator creates a Generator. tolerance bounds the difference still
// reported as balanced.
func NewGenerator(ledger Balances, chart Chart, tolerance decimal.Decimal) *Generator {
	return &Generator{ledger: ledger, chart: chart, tolerance: tolerance}
}

// Line is one account on a statement.
type Line struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// TrialBalanceRow is one account in a trial balance. Exactly one of Debit
// and Credit is non-zero.
type TrialBalanceRow struct {
	Code   string            `json:"code"`
	Name   string            `json:"name"`
	Type   model.AccountType `json:"type"`
	Debit  decimal.Decimal   `json:"debit_balance"`
	Credit decimal.Decimal   `json:"credit_balance"`
	Net    decimal.Decimal   `json:"net_balance"`
}

// TrialBalance lists every account with a balance.
type TrialBalance struct {
	AsOf         time.Time         `json:"as_of"`
	Rows         []TrialBalanceRow `json:"accounts"`
	TotalDebits  decimal.Decimal   `json:"total_debits"`
	TotalCredits decimal.Decimal   `json:"total_credits"`
	IsBalanced   bool              `json:"is_balanced"`
}

// ProfitLoss is an income statement over a period.
type ProfitLoss struct {
	Start                  time.Time       `json:"start_date"`
	End                    time.Time       `json:"end_date"`
	Revenue                []Line          `json:"revenue"`
	TotalRevenue           decimal.Decimal `json:"total_revenue"`
	CostOfGoodsSold        []Line          `json:"cost_of_goods_sold"`
	TotalCOGS              decimal.Decimal `json:"total_cogs"`
	GrossProfit            decimal.Decimal `json:"gross_profit"`
	GrossMargin            decimal.Decimal `json:"gross_margin"`
	OperatingExpenses      []Line          `json:"operating_expenses"`
	TotalOperatingExpenses decimal.Decimal `json:"total_operating_expenses"`
	NetProfit              decimal.Decimal `json:"net_profit"`
	NetMargin              decimal.Decimal `json:"net_margin"`
}

// BalanceSheet is the financial position at a date. CurrentEarnings is
// cumulative revenue less expenses not yet closed into retained earnings.
type BalanceSheet struct {
	AsOf                      time.Time       `json:"as_of"`
	CurrentAssets             []Line          `json:"current_assets"`
	FixedAssets               []Line          `json:"fixed_assets"`
	TotalCurrentAssets        decimal.Decimal `json:"total_current_assets"`
	TotalFixedAssets          decimal.Decimal `json:"total_fixed_assets"`
	TotalAssets               decimal.Decimal `json:"total_assets"`
	CurrentLiabilities        []Line          `json:"current_liabilities"`
	LongTermLiabilities       []Line          `json:"long_term_liabilities"`
	TotalLiabilities          decimal.Decimal `json:"total_liabilities"`
	Equity                    []Line          `json:"equity"`
	CurrentEarnings           decimal.Decimal `json:"current_earnings"`
	TotalEquity               decimal.Decimal `json:"total_equity"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
	IsBalanced                bool            `json:"is_balanced"`
	BalancingDifference       decimal.Decimal `json:"balancing_difference"`
}

// Summary bundles the three statements.
type Summary struct {
	TrialBalance TrialBalance `json:"trial_balance"`
	ProfitLoss   ProfitLoss   `json:"profit_loss"`
	BalanceSheet BalanceSheet `json:"balance_sheet"`
}

// TrialBalance lists each non-zero account in a debit or credit column.
func (g *Generator) TrialBalance(ctx context.Context, scope model.Scope, asOf time.Time) (TrialBalance, error) {
	balances, err := g.ledger.PeriodBalances(ctx, scope, time.Time{}, asOf)
	if err != nil {
		return TrialBalance{}, fmt.Errorf("trial balance: %w", err)
	}

	tb := TrialBalance{AsOf: model.Day(asOf), TotalDebits: decimal.Zero, TotalCredits: decimal.Zero}
	for _, a := range g.chart.All() {
		net := balances[a.Code]
		if net.IsZero() {
			continue
		}
		row := TrialBalanceRow{Code: a.Code, Name: a.Name, Type: a.Type, Net: net, Debit: decimal.Zero, Credit: decimal.Zero}
		// A negative normal-side balance sits in the opposite column.
		if a.Type.DebitNormal() == net.IsPositive() {
			row.Debit = net.Abs()
		} else {
			row.Credit = net.Abs()
		}
		tb.TotalDebits = tb.TotalDebits.Add(row.Debit)
		tb.TotalCredits = tb.TotalCredits.Add(row.Credit)
		tb.Rows = append(tb.Rows, row)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	tb.IsBalanced = tb.TotalDebits.Sub(tb.TotalCredits).Abs().LessThan(g.tolerance)
	return tb, nil
}

// ProfitLoss reports revenue, cost of goods sold and operating expenses
// booked between start and end inclusive.
func (g *Generator) ProfitLoss(ctx context.Context, scope model.Scope, start, end time.Time) (ProfitLoss, error) {
	balances, err := g.ledger.PeriodBalances(ctx, scope, start, end)
	if err != nil {
		return ProfitLoss{}, fmt.Errorf("profit and loss: %w", err)
	}

	pl := ProfitLoss{Start: model.Day(start), End: model.Day(end)}
	for _, a := range g.chart.All() {
		amount := balances[a.Code]
		switch {
		case a.Type == model.AccountTypeRevenue:
			pl.Revenue = appendLine(pl.Revenue, a, amount)
		case a.Category == model.CategoryCostOfGoodsSold:
			pl.CostOfGoodsSold = appendLine(pl.CostOfGoodsSold, a, amount)
		case a.Type == model.AccountTypeExpense:
			pl.OperatingExpenses = appendLine(pl.OperatingExpenses, a, amount)
		}
	}

	pl.TotalRevenue = total(pl.Revenue)
	pl.TotalCOGS = total(pl.CostOfGoodsSold)
	pl.TotalOperatingExpenses = total(pl.OperatingExpenses)
	pl.GrossProfit = pl.TotalRevenue.Sub(pl.TotalCOGS)
	pl.NetProfit = pl.GrossProfit.Sub(pl.TotalOperatingExpenses)
	pl.GrossMargin = margin(pl.GrossProfit, pl.TotalRevenue)
	pl.NetMargin = margin(pl.NetProfit, pl.TotalRevenue)
	return pl, nil
}

// BalanceSheet reports assets, liabilities and equity as of asOf. Contra
// accounts appear as negative lines in their section.
func (g *Generator) BalanceSheet(ctx context.Context, scope model.Scope, asOf time.Time) (BalanceSheet, error) {
	balances, err := g.ledger.PeriodBalances(ctx, scope, time.Time{}, asOf)
	if err != nil {
		return BalanceSheet{}, fmt.Errorf("balance sheet: %w", err)
	}

	bs := BalanceSheet{AsOf: model.Day(asOf), CurrentEarnings: decimal.Zero}
	for _, a := range g.chart.All() {
		amount := balances[a.Code]
		switch a.Type {
		case model.AccountTypeAsset:
			if a.Category == model.CategoryFixedAsset {
				bs.FixedAssets = appendLine(bs.FixedAssets, a, amount)
			} else {
				bs.CurrentAssets = appendLine(bs.CurrentAssets, a, amount)
			}
		case model.AccountTypeLiability:
			if a.Category == model.CategoryLongTermLiability {
				bs.LongTermLiabilities = appendLine(bs.LongTermLiabilities, a, amount)
			} else {
				bs.CurrentLiabilities = appendLine(bs.CurrentLiabilities, a, amount)
			}
		case model.AccountTypeEquity:
			bs.Equity = appendLine(bs.Equity, a, amount)
		case model.AccountTypeRevenue:
			bs.CurrentEarnings = bs.CurrentEarnings.Add(amount)
		case model.AccountTypeExpense:
			bs.CurrentEarnings = bs.CurrentEarnings.Sub(amount)
		}
	}

	bs.TotalCurrentAssets = total(bs.CurrentAssets)
	bs.TotalFixedAssets = total(bs.FixedAssets)
	bs.TotalAssets = bs.TotalCurrentAssets.Add(bs.TotalFixedAssets)
	bs.TotalLiabilities = total(bs.CurrentLiabilities).Add(total(bs.LongTermLiabilities))
	bs.TotalEquity = total(bs.Equity).Add(bs.CurrentEarnings)
	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities.Add(bs.TotalEquity)
	bs.BalancingDifference = bs.TotalAssets.Sub(bs.TotalLiabilitiesAndEquity)
	bs.IsBalanced = bs.BalancingDifference.Abs().LessThan(g.tolerance)
	return bs, nil
}

// FinancialSummary returns the trial balance and balance sheet at end and
// the profit and loss for [start, end].
func (g *Generator) FinancialSummary(ctx context.Context, scope model.Scope, start, end time.Time) (Summary, error) {
	tb, err := g.TrialBalance(ctx, scope, end)
	if err != nil {
		return Summary{}, err
	}
	pl, err := g.ProfitLoss(ctx, scope, start, end)
	if err != nil {
		return Summary{}, err
	}
	bs, err := g.BalanceSheet(ctx, scope, end)
	if err != nil {
		return Summary{}, err
	}
	return Summary{TrialBalance: tb, ProfitLoss: pl, BalanceSheet: bs}, nil
}

func appendLine(lines []Line, a model.Account, amount decimal.Decimal) []Line {
	if amount.IsZero() {
		return lines
	}
	return append(lines, Line{Code: a.Code, Name: a.Name, Amount: amount})
}

func total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount)
	}
	return sum
}

// margin is part as a percentage of whole, 0 when whole is 0.
func margin(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}
