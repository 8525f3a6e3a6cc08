package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponmo-books/ponmo/internal/accounting"
	"github.com/ponmo-books/ponmo/internal/accounts"
	"github.com/ponmo-books/ponmo/internal/customers"
	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/journal"
	"github.com/ponmo-books/ponmo/internal/model"
	"github.com/ponmo-books/ponmo/internal/statements"
)

const scope model.Scope = "biz-1"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	journal   *journal.Service
	recorder  *accounting.Service
	customers *customers.Service
	reports   *statements.Generator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	docs := docstore.NewMemory()
	chart := accounts.Default()
	j := journal.NewService(docs, chart)
	rec := accounting.NewService(j, nil)
	return fixture{
		journal:   j,
		recorder:  rec,
		customers: customers.NewService(docs, rec, j),
		reports:   statements.NewGenerator(j, chart, dec("0.01")),
	}
}

func (f fixture) service(now time.Time, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewService(f.journal, f.customers, f.reports, opts...)
}

func ids(alerts []Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.ID
	}
	return out
}

func TestGenerate_EmptyBooks(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	day := now.UTC().Format("20060102")

	got, err := f.service(now).Generate(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, []string{"cash_low_" + day, "no_recent_activity_" + day}, ids(got))
	assert.Equal(t, SeverityHigh, got[0].Severity)
	assert.Equal(t, TypeCashFlow, got[0].Type)
	assert.Equal(t, SeverityLow, got[1].Severity)
}

func TestGenerate_TroubledBooks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	day := now.UTC().Format("20060102")

	_, err := f.recorder.RecordPurchase(ctx, scope, accounting.Purchase{Amount: dec("10000"), Method: model.PaymentCash})
	require.NoError(t, err)
	c, err := f.customers.CreateCustomer(ctx, scope, customers.NewParty{Name: "Slow Payer"})
	require.NoError(t, err)
	_, err = f.customers.RecordSale(ctx, scope, accounting.Sale{CustomerID: c.ID, InvoiceNumber: "INV-1", Amount: dec("5000")})
	require.NoError(t, err)
	_, err = f.recorder.RecordExpense(ctx, scope, accounting.Expense{
		AccountCode: accounts.CodeAdministrativeExpense, Amount: dec("4500"), Method: model.PaymentCash,
	})
	require.NoError(t, err)

	th := DefaultThresholds()
	th.CustomerDebt = dec("1000")
	got, err := f.service(now, WithThresholds(th)).Generate(ctx, scope)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"cash_negative_" + day,
		"cash_low_" + day,
		"high_expense_ratio_" + day,
		"high_ar_" + day,
		"high_customer_balance_" + day,
	}, ids(got))
	assert.Equal(t, SeverityCritical, got[0].Severity)
	assert.Contains(t, got[0].Message, "-14500.00")
	assert.Contains(t, got[2].Message, "90.0%")
	assert.Equal(t, "1 customer(s) owe more than 1000.00.", got[4].Message)

	counts := CountBySeverity(got)
	assert.Equal(t, map[Severity]int{SeverityCritical: 1, SeverityHigh: 2, SeverityMedium: 2, SeverityLow: 0}, counts)
}

func TestGenerate_HealthyThenQuiet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	_, err := f.recorder.RecordSale(ctx, scope, accounting.Sale{
		CustomerID: "walk-in", InvoiceNumber: "INV-1", Amount: dec("20000"),
		PaymentReceived: dec("20000"), Method: model.PaymentCash,
	})
	require.NoError(t, err)

	got, err := f.service(now).Generate(ctx, scope)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	later := now.AddDate(0, 0, 30)
	got, err = f.service(later).Generate(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, []string{"no_recent_activity_" + later.UTC().Format("20060102")}, ids(got))
	assert.Equal(t, "No transactions recorded in the last 7 days.", got[0].Message)
}

type brokenLedger struct{ Ledger }

func (brokenLedger) GetAccountBalance(context.Context, model.Scope, string, time.Time) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("store offline")
}

func TestGenerate_PropagatesErrors(t *testing.T) {
	f := newFixture(t)
	svc := NewService(brokenLedger{Ledger: f.journal}, f.customers, f.reports)

	_, err := svc.Generate(context.Background(), scope)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cash flow alerts: store offline")
}

func TestCountBySeverity_Empty(t *testing.T) {
	counts := CountBySeverity(nil)
	assert.Len(t, counts, 4)
	for _, sev := range Severities {
		assert.Zero(t, counts[sev])
	}
}
