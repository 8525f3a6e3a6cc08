package customers

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ponmo-books/ponmo/internal/accounts"
	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/model"
)

// SaleLine is one sale booked to a customer.
type SaleLine struct {
	EntryID       string          `json:"entry_id"`
	Date          time.Time       `json:"date"`
	Invoice       string          `json:"invoice"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentAtSale decimal.Decimal `json:"payment_at_sale"`
}

// BalanceSummary breaks down how a customer's balance is derived.
//
//	CurrentBalance = OpeningBalance + TotalDeposits + PaymentsAtSale +
//	                 PaymentsReceived + DepositsApplied - TotalSales
//
// PaymentsReceived and DepositsApplied extend the plain
// opening + deposits + payments-at-sale - sales rule. A payment received
// after the sale settles receivable the rule would otherwise leave owing.
// An applied deposit appears once as a negative movement in TotalDeposits
// and once here, so applying a deposit leaves the balance unchanged.
//
// TotalDeposits is derived from the customer's standing deposit and
// deposit-usage entries. Deposits lists only rows whose entry still stands.
type BalanceSummary struct {
	CustomerID         string                   `json:"customer_id"`
	CustomerName       string                   `json:"customer_name"`
	OpeningBalanceType model.OpeningBalanceType `json:"opening_balance_type"`
	OpeningBalance     decimal.Decimal          `json:"opening_balance"`
	TotalDeposits      decimal.Decimal          `json:"total_deposits"`
	TotalSales         decimal.Decimal          `json:"total_sales"`
	PaymentsAtSale     decimal.Decimal          `json:"payments_at_sale"`
	PaymentsReceived   decimal.Decimal          `json:"payments_received"`
	DepositsApplied    decimal.Decimal          `json:"deposits_applied"`
	CurrentBalance     decimal.Decimal          `json:"current_balance"`
	Deposits           []model.CustomerDeposit  `json:"deposits"`
	Sales              []SaleLine               `json:"sales"`
}

// customerEntries returns the customer's entries that still stand.
func (s *Service) customerEntries(ctx context.Context, scope model.Scope, customerID string) ([]model.JournalEntry, error) {
	all, err := s.entries.GetAll(ctx, scope, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("customer_id", customerID)},
	})
	if err != nil {
		return nil, fmt.Errorf("reading entries for customer %s: %w", customerID, err)
	}
	return standing(all), nil
}

// standing resolves reversal chains. A reversal stands unless a standing
// reversal is against it; an original stands unless a standing reversal is
// against it. Only originals are returned: a standing reversal has already
// cancelled its target, and reversing that reversal restores the target.
// Drafts never stand.
func standing(entries []model.JournalEntry) []model.JournalEntry {
	reversedBy := make(map[string]string)
	for _, e := range entries {
		if e.ReversesEntryID != "" && e.Status.Counted() {
			reversedBy[e.ReversesEntryID] = e.ID
		}
	}

	memo := make(map[string]bool)
	var stands func(entryID string) bool
	stands = func(entryID string) bool {
		if v, ok := memo[entryID]; ok {
			return v
		}
		rev, ok := reversedBy[entryID]
		v := !ok || !stands(rev)
		memo[entryID] = v
		return v
	}

	var out []model.JournalEntry
	for _, e := range entries {
		if !e.Status.Counted() || e.Kind == model.KindReversal || !stands(e.ID) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// depositBalance is what the customer holds on 2200 from deposits less
// applications. Overpayments at sale are not counted here.
func depositBalance(entries []model.JournalEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		switch e.Kind {
		case model.KindDeposit:
			total = total.Add(lineSum(e, accounts.CodeCustomerDeposits, credit))
		case model.KindDepositUsage:
			total = total.Sub(lineSum(e, accounts.CodeCustomerDeposits, debit))
		}
	}
	return total
}

// standingRows keeps deposit rows whose journal entry is in entries.
func standingRows(rows []model.CustomerDeposit, entries []model.JournalEntry) []model.CustomerDeposit {
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		ids[e.ID] = true
	}
	out := []model.CustomerDeposit{}
	for _, r := range rows {
		if r.JournalEntryID == "" || ids[r.JournalEntryID] {
			out = append(out, r)
		}
	}
	return out
}

func lineSum(e model.JournalEntry, code string, side func(model.JournalLine) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		if l.AccountCode == code {
			total = total.Add(side(l))
		}
	}
	return total
}

func debit(l model.JournalLine) decimal.Decimal  { return l.Debit }
func credit(l model.JournalLine) decimal.Decimal { return l.Credit }

// GetCustomerBalanceSummary derives a customer's balance from the journal
// and the deposit ledger. This is the only place the formula lives.
func (s *Service) GetCustomerBalanceSummary(ctx context.Context, scope model.Scope, customerID string) (BalanceSummary, error) {
	cust, err := s.GetCustomer(ctx, scope, customerID)
	if err != nil {
		return BalanceSummary{}, err
	}
	deposits, err := s.ListDeposits(ctx, scope, customerID)
	if err != nil {
		return BalanceSummary{}, err
	}
	entries, err := s.customerEntries(ctx, scope, customerID)
	if err != nil {
		return BalanceSummary{}, err
	}

	sum := BalanceSummary{
		CustomerID:         cust.ID,
		CustomerName:       cust.Name,
		OpeningBalanceType: cust.OpeningBalanceType,
		OpeningBalance:     decimal.Zero,
		TotalDeposits:      depositBalance(entries),
		TotalSales:         decimal.Zero,
		PaymentsAtSale:     decimal.Zero,
		PaymentsReceived:   decimal.Zero,
		DepositsApplied:    decimal.Zero,
		Deposits:           standingRows(deposits, entries),
		Sales:              []SaleLine{},
	}

	for _, e := range entries {
		switch e.Kind {
		case model.KindOpeningBalance:
			sum.OpeningBalance = sum.OpeningBalance.
				Add(lineSum(e, accounts.CodeAccountsReceivable, debit)).
				Sub(lineSum(e, accounts.CodeAccountsReceivable, credit))
		case model.KindSale:
			line := SaleLine{
				EntryID: e.ID,
				Date:    e.Date,
				Invoice: e.Reference,
				Amount:  lineSum(e, accounts.CodeSalesRevenue, credit),
				PaymentAtSale: lineSum(e, accounts.CodeCash, debit).
					Add(lineSum(e, accounts.CodeBank, debit)),
			}
			sum.TotalSales = sum.TotalSales.Add(line.Amount)
			sum.PaymentsAtSale = sum.PaymentsAtSale.Add(line.PaymentAtSale)
			sum.Sales = append(sum.Sales, line)
		case model.KindPaymentReceived:
			sum.PaymentsReceived = sum.PaymentsReceived.Add(lineSum(e, accounts.CodeAccountsReceivable, credit))
		case model.KindDepositUsage:
			sum.DepositsApplied = sum.DepositsApplied.Add(lineSum(e, accounts.CodeAccountsReceivable, credit))
		}
	}

	sum.CurrentBalance = sum.OpeningBalance.
		Add(sum.TotalDeposits).
		Add(sum.PaymentsAtSale).
		Add(sum.PaymentsReceived).
		Add(sum.DepositsApplied).
		Sub(sum.TotalSales)
	return sum, nil
}

// GetCustomerBalance returns the customer's current balance.
func (s *Service) GetCustomerBalance(ctx context.Context, scope model.Scope, customerID string) (decimal.Decimal, error) {
	sum, err := s.GetCustomerBalanceSummary(ctx, scope, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	return sum.CurrentBalance, nil
}

// AllCustomersBalance returns a balance summary for every customer.
func (s *Service) AllCustomersBalance(ctx context.Context, scope model.Scope) ([]BalanceSummary, error) {
	custs, err := s.ListCustomers(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]BalanceSummary, 0, len(custs))
	for _, c := range custs {
		sum, err := s.GetCustomerBalanceSummary(ctx, scope, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// GetVendorBalance returns what is owed to a vendor: credits less debits
// to accounts payable on the vendor's entries.
func (s *Service) GetVendorBalance(ctx context.Context, scope model.Scope, vendorID string) (decimal.Decimal, error) {
	if _, err := s.GetVendor(ctx, scope, vendorID); err != nil {
		return decimal.Zero, err
	}
	all, err := s.entries.GetAll(ctx, scope, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("vendor_id", vendorID)},
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading entries for vendor %s: %w", vendorID, err)
	}
	total := decimal.Zero
	for _, e := range all {
		if !e.Status.Counted() {
			continue
		}
		total = total.
			Add(lineSum(e, accounts.CodeAccountsPayable, credit)).
			Sub(lineSum(e, accounts.CodeAccountsPayable, debit))
	}
	return total, nil
}
