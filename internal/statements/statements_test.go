package statements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponmo-books/ponmo/internal/accounts"
	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/journal"
	"github.com/ponmo-books/ponmo/internal/model"
)

const scope model.Scope = "biz-1"

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	journal *journal.Service
	gen     *Generator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	chart := accounts.Default()
	j := journal.NewService(docstore.NewMemory(), chart)
	return fixture{journal: j, gen: NewGenerator(j, chart, journal.DefaultTolerance)}
}

func (f fixture) post(t *testing.T, d time.Time, desc string, lines ...model.JournalLine) {
	t.Helper()
	_, err := f.journal.CreateEntry(context.Background(), scope, journal.NewEntry{Date: d, Description: desc, Lines: lines})
	require.NoError(t, err)
}

// seed books a small manufacturing cycle.
func (f fixture) seed(t *testing.T) {
	t.Helper()
	f.post(t, date(2025, 1, 1), "capital", model.Debit("1100", dec("20000")), model.Credit("3000", dec("20000")))
	f.post(t, date(2025, 1, 2), "equipment", model.Debit("1400", dec("5000")), model.Credit("1100", dec("5000")))
	f.post(t, date(2025, 1, 3), "depreciation", model.Debit("5500", dec("100")), model.Credit("1500", dec("100")))
	f.post(t, date(2025, 1, 5), "materials", model.Debit("1300", dec("1000")), model.Credit("2000", dec("1000")))
	f.post(t, date(2025, 1, 6), "to production",
		model.Debit("1310", dec("1000")), model.Credit("1300", dec("1000")),
		model.Debit("1310", dec("150")), model.Credit("5400", dec("150")))
	f.post(t, date(2025, 1, 7), "complete", model.Debit("1320", dec("1150")), model.Credit("1310", dec("1150")))
	f.post(t, date(2025, 2, 1), "sale",
		model.Debit("1000", dec("1500")), model.Debit("1200", dec("500")), model.Credit("4000", dec("2000")),
		model.Debit("5000", dec("1150")), model.Credit("1320", dec("1150")))
	f.post(t, date(2025, 2, 3), "deposit", model.Debit("1000", dec("300")), model.Credit("2200", dec("300")))
	f.post(t, date(2025, 2, 10), "rent", model.Debit("5500", dec("400")), model.Credit("1100", dec("400")))
}

func TestTrialBalance(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	tb, err := f.gen.TrialBalance(context.Background(), scope, time.Time{})
	require.NoError(t, err)
	assert.True(t, tb.IsBalanced)
	assert.True(t, tb.TotalDebits.Equal(tb.TotalCredits), "%s != %s", tb.TotalDebits, tb.TotalCredits)

	byCode := make(map[string]TrialBalanceRow)
	for i, r := range tb.Rows {
		byCode[r.Code] = r
		if i > 0 {
			assert.Less(t, tb.Rows[i-1].Code, r.Code)
		}
		assert.True(t, r.Debit.IsZero() != r.Credit.IsZero(), "row %s must use one column", r.Code)
	}
	assert.NotContains(t, byCode, "1310", "zero balances are omitted")
	assert.True(t, byCode["1100"].Debit.Equal(dec("14600")))
	assert.True(t, byCode["1500"].Credit.Equal(dec("100")), "contra asset sits in the credit column")
	assert.True(t, byCode["1500"].Net.Equal(dec("-100")))
	assert.True(t, byCode["5400"].Credit.Equal(dec("150")))
	assert.True(t, byCode["4000"].Credit.Equal(dec("2000")))
}

func TestTrialBalance_AsOf(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	tb, err := f.gen.TrialBalance(context.Background(), scope, date(2025, 1, 1))
	require.NoError(t, err)
	require.Len(t, tb.Rows, 2)
	assert.Equal(t, date(2025, 1, 1), tb.AsOf)
	assert.True(t, tb.TotalDebits.Equal(dec("20000")))
}

func TestProfitLoss(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	pl, err := f.gen.ProfitLoss(context.Background(), scope, date(2025, 1, 1), date(2025, 12, 31))
	require.NoError(t, err)
	assert.True(t, pl.TotalRevenue.Equal(dec("2000")))
	assert.True(t, pl.TotalCOGS.Equal(dec("1150")))
	assert.True(t, pl.GrossProfit.Equal(dec("850")))
	// 100 depreciation + 400 rent - 150 processing capitalized into WIP.
	assert.True(t, pl.TotalOperatingExpenses.Equal(dec("350")))
	assert.True(t, pl.NetProfit.Equal(dec("500")))
	assert.True(t, pl.GrossMargin.Equal(dec("42.5")))
	assert.True(t, pl.NetMargin.Equal(dec("25")))
	require.Len(t, pl.Revenue, 1)
	assert.Equal(t, "Sales Revenue", pl.Revenue[0].Name)
}

func TestProfitLoss_Period(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	pl, err := f.gen.ProfitLoss(context.Background(), scope, date(2025, 2, 5), date(2025, 2, 28))
	require.NoError(t, err)
	assert.True(t, pl.TotalRevenue.IsZero())
	assert.True(t, pl.NetProfit.Equal(dec("-400")))
	assert.True(t, pl.GrossMargin.IsZero(), "no revenue means no margin")
	assert.True(t, pl.NetMargin.IsZero())
}

func TestBalanceSheet(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	bs, err := f.gen.BalanceSheet(context.Background(), scope, time.Time{})
	require.NoError(t, err)
	assert.True(t, bs.IsBalanced, "difference %s", bs.BalancingDifference)
	assert.True(t, bs.BalancingDifference.IsZero())
	assert.True(t, bs.TotalFixedAssets.Equal(dec("4900")), "equipment net of depreciation")
	assert.True(t, bs.TotalLiabilities.Equal(dec("1300")))
	assert.True(t, bs.CurrentEarnings.Equal(dec("500")))
	assert.True(t, bs.TotalEquity.Equal(dec("20500")))
	assert.True(t, bs.TotalAssets.Equal(bs.TotalLiabilitiesAndEquity))
	assert.Empty(t, bs.LongTermLiabilities)
}

func TestFinancialSummary(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	s, err := f.gen.FinancialSummary(context.Background(), scope, date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)
	assert.True(t, s.TrialBalance.IsBalanced)
	assert.True(t, s.BalanceSheet.IsBalanced)
	assert.True(t, s.ProfitLoss.TotalRevenue.IsZero())
	assert.Equal(t, date(2025, 1, 31), s.BalanceSheet.AsOf)
}

// skewed reports hand-made balances to exercise inconsistency detection.
type skewed map[string]decimal.Decimal

func (s skewed) PeriodBalances(context.Context, model.Scope, time.Time, time.Time) (map[string]decimal.Decimal, error) {
	return s, nil
}

type failing struct{}

func (failing) PeriodBalances(context.Context, model.Scope, time.Time, time.Time) (map[string]decimal.Decimal, error) {
	return nil, errors.New("store offline")
}

func TestInconsistencyIsReportedNotCorrected(t *testing.T) {
	gen := NewGenerator(skewed{"1000": dec("100"), "3000": dec("90")}, accounts.Default(), journal.DefaultTolerance)

	tb, err := gen.TrialBalance(context.Background(), scope, time.Time{})
	require.NoError(t, err)
	assert.False(t, tb.IsBalanced)

	bs, err := gen.BalanceSheet(context.Background(), scope, time.Time{})
	require.NoError(t, err)
	assert.False(t, bs.IsBalanced)
	assert.True(t, bs.BalancingDifference.Equal(dec("10")))
}

func TestErrorsPropagate(t *testing.T) {
	gen := NewGenerator(failing{}, accounts.Default(), journal.DefaultTolerance)
	_, err := gen.TrialBalance(context.Background(), scope, time.Time{})
	assert.ErrorContains(t, err, "store offline")
	_, err = gen.FinancialSummary(context.Background(), scope, time.Time{}, time.Time{})
	assert.Error(t, err)
}
