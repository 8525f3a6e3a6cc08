package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scope identifies the business (user) that owns a set of documents.
// Every read and write is made on behalf of exactly one scope.
type Scope string

// EntryStatus represents the lifecycle state of a journal entry.
type EntryStatus string

const (
	StatusPosted   EntryStatus = "posted"
	StatusDraft    EntryStatus = "draft"
	StatusReversed EntryStatus = "reversed"
)

// Counted reports whether entries in this status contribute to balances.
// A reversed entry still counts: its compensating entry cancels it.
func (s EntryStatus) Counted() bool {
	return s == StatusPosted || s == StatusReversed
}

// EntryKind tags an entry with the business event that produced it.
type EntryKind string

const (
	KindManual             EntryKind = "manual"
	KindPurchase           EntryKind = "purchase"
	KindProductionTransfer EntryKind = "production_transfer"
	KindProductionComplete EntryKind = "production_complete"
	KindSale               EntryKind = "sale"
	KindDeposit            EntryKind = "deposit"
	KindDepositUsage       EntryKind = "deposit_usage"
	KindVendorPayment      EntryKind = "vendor_payment"
	KindExpense            EntryKind = "expense"
	KindPaymentReceived    EntryKind = "payment_received"
	KindOpeningBalance     EntryKind = "opening_balance"
	KindReversal           EntryKind = "reversal"
)

// JournalLine is one side of a double-entry posting.
type JournalLine struct {
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`  // zero if credit side
	Credit      decimal.Decimal `json:"credit"` // zero if debit side
	Memo        string          `json:"memo,omitempty"`
}

// JournalEntry is a balanced set of lines recorded on one date.
type JournalEntry struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Date              time.Time       `json:"date"`
	Description       string          `json:"description"`
	Reference         string          `json:"reference"`
	Kind              EntryKind       `json:"kind"`
	CustomerID        string          `json:"customer_id,omitempty"`
	VendorID          string          `json:"vendor_id,omitempty"`
	Lines             []JournalLine   `json:"entries"`
	TotalDebits       decimal.Decimal `json:"total_debits"`
	TotalCredits      decimal.Decimal `json:"total_credits"`
	Status            EntryStatus     `json:"status"`
	ReversesEntryID   string          `json:"reverses_entry_id,omitempty"`
	ReversedByEntryID string          `json:"reversed_by_entry_id,omitempty"`
	ReversedAt        *time.Time      `json:"reversed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Totals sums the debit and credit sides of a set of lines.
func Totals(lines []JournalLine) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return debits, credits
}

// Debit returns a debit line.
func Debit(code string, amount decimal.Decimal) JournalLine {
	return JournalLine{AccountCode: code, Debit: amount}
}

// Credit returns a credit line.
func Credit(code string, amount decimal.Decimal) JournalLine {
	return JournalLine{AccountCode: code, Credit: amount}
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
