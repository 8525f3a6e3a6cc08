package accounting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponmo-books/ponmo/internal/accounts"
	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/journal"
	"github.com/ponmo-books/ponmo/internal/metrics"
	"github.com/ponmo-books/ponmo/internal/model"
	"github.com/ponmo-books/ponmo/internal/statements"
)

const scope model.Scope = "biz-1"

var clock = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	journal *journal.Service
	svc     *Service
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	chart := accounts.Default()
	j := journal.NewService(docstore.NewMemory(), chart)
	gen := statements.NewGenerator(j, chart, journal.DefaultTolerance)
	opts = append([]Option{WithClock(func() time.Time { return clock })}, opts...)
	return fixture{journal: j, svc: NewService(j, gen, opts...)}
}

func (f fixture) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	b, err := f.svc.GetAccountBalance(context.Background(), scope, code, time.Time{})
	require.NoError(t, err)
	return b
}

func (f fixture) assertBalance(t *testing.T, code, want string) {
	t.Helper()
	got := f.balance(t, code)
	assert.True(t, got.Equal(dec(want)), "account %s: got %s, want %s", code, got, want)
}

func (f fixture) entry(t *testing.T, entryID string) model.JournalEntry {
	t.Helper()
	e, err := f.journal.GetByID(context.Background(), scope, entryID)
	require.NoError(t, err)
	return e
}

func TestRecordPurchase_Cash(t *testing.T) {
	f := newFixture(t)
	entryID, err := f.svc.RecordPurchase(context.Background(), scope, Purchase{
		Date:   date(2025, 1, 10),
		Amount: dec("10000"),
		Method: model.PaymentCash,
	})
	require.NoError(t, err)

	f.assertBalance(t, accounts.CodeRawMaterials, "10000")
	f.assertBalance(t, accounts.CodeCash, "-10000")

	e := f.entry(t, entryID)
	assert.Equal(t, model.KindPurchase, e.Kind)
	assert.Equal(t, "Purchase of raw materials", e.Description)
}

func TestRecordPurchase_CreditAccount(t *testing.T) {
	tests := []struct {
		method model.PaymentMethod
		want   string
	}{
		{model.PaymentCash, accounts.CodeCash},
		{model.PaymentBankTransfer, accounts.CodeBank},
		{model.PaymentCheck, accounts.CodeBank},
		{model.PaymentOnAccount, accounts.CodeAccountsPayable},
		{"", accounts.CodeAccountsPayable},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			f := newFixture(t)
			entryID, err := f.svc.RecordPurchase(context.Background(), scope, Purchase{
				Date: date(2025, 1, 10), Amount: dec("250"), Method: tt.method, VendorID: "V1",
			})
			require.NoError(t, err)

			e := f.entry(t, entryID)
			require.Len(t, e.Lines, 2)
			assert.Equal(t, tt.want, e.Lines[1].AccountCode)
			assert.Equal(t, "V1", e.VendorID)
		})
	}
}

func TestRecordPurchaseFromBatch(t *testing.T) {
	f := newFixture(t)
	entryID, err := f.svc.RecordPurchaseFromBatch(context.Background(), scope, Batch{
		ID: "B-7", Supplier: "Acme Hides", Date: date(2025, 1, 11), TotalCost: dec("1200"), Pieces: 40,
	})
	require.NoError(t, err)

	e := f.entry(t, entryID)
	assert.Equal(t, "B-7", e.Reference)
	assert.Equal(t, "Purchase of raw materials - batch B-7 (40 pieces) from Acme Hides", e.Description)
	f.assertBalance(t, accounts.CodeAccountsPayable, "1200")
}

func TestRecordProduction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.RecordPurchase(ctx, scope, Purchase{Date: date(2025, 1, 1), Amount: dec("1000"), Method: model.PaymentCash})
	require.NoError(t, err)

	res, err := f.svc.RecordProduction(ctx, scope, Production{
		Date:           date(2025, 1, 2),
		Reference:      "RUN-1",
		Pieces:         50,
		RawCost:        dec("200"),
		ProcessingCost: dec("30"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.TransferEntryID)
	require.NotEmpty(t, res.CompletionEntryID)

	f.assertBalance(t, accounts.CodeRawMaterials, "800")
	f.assertBalance(t, accounts.CodeWorkInProcess, "0")
	f.assertBalance(t, accounts.CodeFinishedGoods, "230")
	f.assertBalance(t, accounts.CodeProcessingExpense, "-30")

	transfer := f.entry(t, res.TransferEntryID)
	assert.Equal(t, "PROD-RUN-1", transfer.Reference)
	assert.Equal(t, "Transfer raw materials to production - RUN-1 (50 pieces)", transfer.Description)
	assert.Len(t, transfer.Lines, 4)

	complete := f.entry(t, res.CompletionEntryID)
	assert.Equal(t, "COMP-RUN-1", complete.Reference)
	assert.True(t, complete.TotalDebits.Equal(dec("230")))
}

func TestRecordProduction_NoProcessingCost(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.RecordProduction(context.Background(), scope, Production{
		Date: date(2025, 1, 2), Reference: "RUN-2", Pieces: 10, RawCost: dec("80"),
	})
	require.NoError(t, err)

	assert.Len(t, f.entry(t, res.TransferEntryID).Lines, 2)
	f.assertBalance(t, accounts.CodeFinishedGoods, "80")
}

// failingLedger posts a fixed number of entries, then fails.
type failingLedger struct {
	Ledger
	remaining int
}

func (l *failingLedger) CreateEntry(ctx context.Context, s model.Scope, e journal.NewEntry) (string, error) {
	if l.remaining == 0 {
		return "", errors.New("disk full")
	}
	l.remaining--
	return l.Ledger.CreateEntry(ctx, s, e)
}

func TestRecordProduction_Partial(t *testing.T) {
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	m := metrics.NewLedger(reg)
	svc := NewService(&failingLedger{Ledger: f.journal, remaining: 1}, nil, WithMetrics(m))

	res, err := svc.RecordProduction(context.Background(), scope, Production{
		Date: date(2025, 1, 2), Reference: "RUN-3", Pieces: 5, RawCost: dec("50"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartial)

	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{res.TransferEntryID}, partial.Posted)
	assert.Empty(t, res.CompletionEntryID)
	assert.Contains(t, err.Error(), "disk full")

	f.assertBalance(t, accounts.CodeWorkInProcess, "50")
	expected := `
# HELP ponmo_accounting_partial_recordings_total Multi-entry recordings that stopped after posting some entries, by operation.
# TYPE ponmo_accounting_partial_recordings_total counter
ponmo_accounting_partial_recordings_total{operation="production"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "ponmo_accounting_partial_recordings_total"))
}

func TestRecordProduction_FirstEntryFails(t *testing.T) {
	f := newFixture(t)
	svc := NewService(&failingLedger{Ledger: f.journal}, nil)

	_, err := svc.RecordProduction(context.Background(), scope, Production{
		Date: date(2025, 1, 2), Reference: "RUN-4", Pieces: 5, RawCost: dec("50"),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPartial)
}

func TestRecordSale(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		paid     string
		method   model.PaymentMethod
		balances map[string]string
	}{
		{
			name: "paid in full", amount: "5000", paid: "5000", method: model.PaymentCash,
			balances: map[string]string{"1000": "5000", "4000": "5000", "1200": "0", "2200": "0"},
		},
		{
			name: "partial payment", amount: "5000", paid: "2000", method: model.PaymentCash,
			balances: map[string]string{"1000": "2000", "4000": "5000", "1200": "3000"},
		},
		{
			name: "on credit", amount: "5000", paid: "0",
			balances: map[string]string{"1000": "0", "1200": "5000"},
		},
		{
			name: "overpayment held as deposit", amount: "5000", paid: "5600", method: model.PaymentBankTransfer,
			balances: map[string]string{"1100": "5600", "4000": "5000", "2200": "600", "1200": "0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.RecordSale(context.Background(), scope, Sale{
				Date:            date(2025, 2, 1),
				CustomerID:      "C1",
				InvoiceNumber:   "INV-1",
				Amount:          dec(tt.amount),
				PaymentReceived: dec(tt.paid),
				Method:          tt.method,
			})
			require.NoError(t, err)
			for code, want := range tt.balances {
				f.assertBalance(t, code, want)
			}
		})
	}
}

func TestRecordSale_WithCOGS(t *testing.T) {
	f := newFixture(t)
	entryID, err := f.svc.RecordSale(context.Background(), scope, Sale{
		Date:            date(2025, 2, 1),
		CustomerID:      "C1",
		CustomerName:    "Jane Doe",
		InvoiceNumber:   "INV-9",
		Amount:          dec("900"),
		PaymentReceived: dec("900"),
		Method:          model.PaymentCash,
		COGS:            dec("400"),
	})
	require.NoError(t, err)

	e := f.entry(t, entryID)
	assert.Equal(t, "Sale to customer Jane Doe - Invoice INV-9", e.Description)
	assert.Equal(t, "INV-9", e.Reference)
	assert.Equal(t, "C1", e.CustomerID)
	assert.Equal(t, model.KindSale, e.Kind)
	f.assertBalance(t, accounts.CodeCOGS, "400")
	f.assertBalance(t, accounts.CodeFinishedGoods, "-400")
}

func TestRecordCustomerDeposit_DefaultReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	depID, err := f.svc.RecordCustomerDeposit(ctx, scope, CustomerPayment{
		Date: date(2025, 3, 1), CustomerID: "C1", Amount: dec("400"), Method: model.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "DEP-20250314093000", f.entry(t, depID).Reference)
	f.assertBalance(t, accounts.CodeCustomerDeposits, "400")

	useID, err := f.svc.RecordCustomerDepositUsage(ctx, scope, DepositUsage{
		Date: date(2025, 3, 2), CustomerID: "C1", Amount: dec("150"),
	})
	require.NoError(t, err)
	assert.Equal(t, "DEP-USE-20250314093000", f.entry(t, useID).Reference)
	f.assertBalance(t, accounts.CodeCustomerDeposits, "250")
	f.assertBalance(t, accounts.CodeAccountsReceivable, "-150")
}

func TestRecordPaymentReceived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.RecordSale(ctx, scope, Sale{
		Date: date(2025, 2, 1), CustomerID: "C1", InvoiceNumber: "INV-2", Amount: dec("700"),
	})
	require.NoError(t, err)

	pmtID, err := f.svc.RecordPaymentReceived(ctx, scope, CustomerPayment{
		Date: date(2025, 2, 20), CustomerID: "C1", Amount: dec("700"), Method: model.PaymentCheck,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(f.entry(t, pmtID).Reference, "PMT-"))
	f.assertBalance(t, accounts.CodeAccountsReceivable, "0")
	f.assertBalance(t, accounts.CodeBank, "700")
}

func TestRecordVendorPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.RecordPurchase(ctx, scope, Purchase{Date: date(2025, 1, 1), Amount: dec("800"), VendorID: "V1"})
	require.NoError(t, err)

	payID, err := f.svc.RecordVendorPayment(ctx, scope, VendorPayment{
		Date: date(2025, 1, 15), VendorID: "V1", Amount: dec("500"), Method: model.PaymentBankTransfer,
	})
	require.NoError(t, err)

	e := f.entry(t, payID)
	assert.Equal(t, "PAY-20250314093000", e.Reference)
	assert.Equal(t, "V1", e.VendorID)
	f.assertBalance(t, accounts.CodeAccountsPayable, "300")
	f.assertBalance(t, accounts.CodeBank, "-500")
}

func TestRecordExpense(t *testing.T) {
	tests := []struct {
		method model.PaymentMethod
		credit string
	}{
		{model.PaymentCash, accounts.CodeCash},
		{model.PaymentBankTransfer, accounts.CodeBank},
		{model.PaymentCreditCard, accounts.CodeAccountsPayable},
		{"", accounts.CodeCash},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			f := newFixture(t)
			entryID, err := f.svc.RecordExpense(context.Background(), scope, Expense{
				Date: date(2025, 1, 20), AccountCode: accounts.CodeSellingExpense, Amount: dec("75"),
				Method: tt.method, Description: "Market stall fee",
			})
			require.NoError(t, err)

			e := f.entry(t, entryID)
			assert.Equal(t, "Market stall fee", e.Description)
			assert.Equal(t, tt.credit, e.Lines[1].AccountCode)
			f.assertBalance(t, accounts.CodeSellingExpense, "75")
		})
	}
}

func TestRecordExpense_UnknownAccount(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RecordExpense(context.Background(), scope, Expense{
		Date: date(2025, 1, 20), AccountCode: "9999", Amount: dec("75"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, journal.ErrValidation)
}

func TestRecordOpeningBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	custID, err := f.svc.RecordCustomerOpeningBalance(ctx, scope, OpeningBalance{
		Date: date(2025, 1, 1), PartyID: "C1", Name: "Jane", Type: model.OpeningDebt, Amount: dec("1000"),
	})
	require.NoError(t, err)
	e := f.entry(t, custID)
	assert.Equal(t, "open-C1", e.Reference)
	assert.Equal(t, model.KindOpeningBalance, e.Kind)
	assert.Equal(t, "C1", e.CustomerID)
	f.assertBalance(t, accounts.CodeAccountsReceivable, "1000")

	vendID, err := f.svc.RecordVendorOpeningBalance(ctx, scope, OpeningBalance{
		Date: date(2025, 1, 1), PartyID: "V1", Type: model.OpeningDebt, Amount: dec("300"),
	})
	require.NoError(t, err)
	assert.Equal(t, "V1", f.entry(t, vendID).VendorID)
	f.assertBalance(t, accounts.CodeAccountsPayable, "300")
	f.assertBalance(t, accounts.CodeOwnersCapital, "700")

	_, err = f.svc.RecordCustomerOpeningBalance(ctx, scope, OpeningBalance{
		Date: date(2025, 1, 1), PartyID: "C2", Type: model.OpeningCredit, Amount: dec("50"),
	})
	require.NoError(t, err)
	f.assertBalance(t, accounts.CodeAccountsReceivable, "950")

	none, err := f.svc.RecordCustomerOpeningBalance(ctx, scope, OpeningBalance{PartyID: "C3", Type: model.OpeningNone, Amount: dec("10")})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReports_BalanceSheetIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.journal.CreateEntry(ctx, scope, journal.NewEntry{
		Date: date(2025, 1, 1), Description: "Owner investment",
		Lines: []model.JournalLine{
			model.Debit(accounts.CodeBank, dec("15000")),
			model.Credit(accounts.CodeOwnersCapital, dec("15000")),
		},
	})
	require.NoError(t, err)
	_, err = f.svc.RecordPurchase(ctx, scope, Purchase{Date: date(2025, 1, 2), Amount: dec("2000"), Method: model.PaymentBankTransfer})
	require.NoError(t, err)
	_, err = f.svc.RecordProduction(ctx, scope, Production{
		Date: date(2025, 1, 3), Reference: "R1", Pieces: 20, RawCost: dec("1500"), ProcessingCost: dec("100"),
	})
	require.NoError(t, err)
	_, err = f.svc.RecordSale(ctx, scope, Sale{
		Date: date(2025, 1, 10), CustomerID: "C1", InvoiceNumber: "I1",
		Amount: dec("3000"), PaymentReceived: dec("3500"), Method: model.PaymentCash, COGS: dec("1600"),
	})
	require.NoError(t, err)
	_, err = f.svc.RecordExpense(ctx, scope, Expense{
		Date: date(2025, 1, 12), AccountCode: accounts.CodeAdministrativeExpense, Amount: dec("250"), Method: model.PaymentCreditCard,
	})
	require.NoError(t, err)

	bs, err := f.svc.GenerateBalanceSheet(ctx, scope, date(2025, 12, 31))
	require.NoError(t, err)
	assert.True(t, bs.IsBalanced)
	assert.True(t, bs.TotalAssets.Equal(bs.TotalLiabilities.Add(bs.TotalEquity)))
	assert.True(t, bs.TotalLiabilities.Equal(dec("750")), "liabilities = %s", bs.TotalLiabilities)

	pl, err := f.svc.GenerateProfitLoss(ctx, scope, date(2025, 1, 1), date(2025, 12, 31))
	require.NoError(t, err)
	// revenue 3000, COGS 1600, admin 250, processing absorbed -100
	assert.True(t, pl.NetProfit.Equal(dec("1250")), "net profit = %s", pl.NetProfit)

	tb, err := f.svc.GetTrialBalance(ctx, scope, time.Time{})
	require.NoError(t, err)
	var debits, credits decimal.Decimal
	chart := accounts.Default()
	for code, bal := range tb {
		a, ok := chart.Get(code)
		require.True(t, ok, code)
		if a.Type.DebitNormal() == bal.IsPositive() {
			debits = debits.Add(bal.Abs())
		} else {
			credits = credits.Add(bal.Abs())
		}
	}
	assert.True(t, debits.Equal(credits), "%s != %s", debits, credits)
}
