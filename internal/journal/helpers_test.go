package journal

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ponmo-books/ponmo/internal/accounts"
	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/model"
)

const scope model.Scope = "biz-1"

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// mockAccounts implements AccountChecker for testing.
type mockAccounts struct {
	codes map[string]bool
}

func (m *mockAccounts) Exists(code string) bool {
	return m.codes[code]
}

func newMockAccounts(codes ...string) *mockAccounts {
	m := &mockAccounts{codes: make(map[string]bool)}
	for _, c := range codes {
		m.codes[c] = true
	}
	return m
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	clock := date(2025, 6, 30)
	opts = append([]Option{WithClock(func() time.Time { return clock })}, opts...)
	return NewService(docstore.NewMemory(), accounts.Default(), opts...)
}

func simple(d time.Time, desc, debitCode, creditCode, amount string) NewEntry {
	return NewEntry{
		Date:        d,
		Description: desc,
		Lines: []model.JournalLine{
			model.Debit(debitCode, dec(amount)),
			model.Credit(creditCode, dec(amount)),
		},
	}
}

func mustCreate(t *testing.T, svc *Service, e NewEntry) string {
	t.Helper()
	entryID, err := svc.CreateEntry(context.Background(), scope, e)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	return entryID
}
