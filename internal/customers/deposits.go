package customers

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ponmo-books/ponmo/internal/accounting"
	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/model"
)

// Deposit is money a customer pays ahead of a sale.
type Deposit struct {
	CustomerID string
	Amount     decimal.Decimal
	Date       time.Time // defaults to today
	Method     model.PaymentMethod
	Reference  string
	Notes      string
}

// ReceiveDeposit books the deposit entry and appends a positive row to
// the customer's deposit ledger.
func (s *Service) ReceiveDeposit(ctx context.Context, scope model.Scope, d Deposit) (model.CustomerDeposit, error) {
	if _, err := s.GetCustomer(ctx, scope, d.CustomerID); err != nil {
		return model.CustomerDeposit{}, err
	}
	day := s.today(d.Date)
	entryID, err := s.recorder.RecordCustomerDeposit(ctx, scope, accounting.CustomerPayment{
		Date:       day,
		CustomerID: d.CustomerID,
		Amount:     d.Amount,
		Method:     d.Method,
		Reference:  d.Reference,
		Notes:      d.Notes,
	})
	if err != nil {
		return model.CustomerDeposit{}, err
	}
	return s.appendDeposit(ctx, scope, model.CustomerDeposit{
		CustomerID:     d.CustomerID,
		Amount:         d.Amount,
		DepositDate:    day,
		PaymentMethod:  d.Method,
		Reference:      d.Reference,
		Notes:          d.Notes,
		JournalEntryID: entryID,
	})
}

// ApplyDeposit consumes part of a customer's held deposit against their
// receivable. It fails with ErrInsufficientDeposit when the customer holds
// less than amount.
func (s *Service) ApplyDeposit(ctx context.Context, scope model.Scope, customerID string, amount decimal.Decimal, date time.Time, reference string) (model.CustomerDeposit, error) {
	available, err := s.AvailableDeposit(ctx, scope, customerID)
	if err != nil {
		return model.CustomerDeposit{}, err
	}
	if available.LessThan(amount) {
		return model.CustomerDeposit{}, fmt.Errorf("applying %s to customer %s with %s held: %w",
			amount.StringFixed(2), customerID, available.StringFixed(2), ErrInsufficientDeposit)
	}

	day := s.today(date)
	entryID, err := s.recorder.RecordCustomerDepositUsage(ctx, scope, accounting.DepositUsage{
		Date:       day,
		CustomerID: customerID,
		Amount:     amount,
		Reference:  reference,
	})
	if err != nil {
		return model.CustomerDeposit{}, err
	}
	return s.appendDeposit(ctx, scope, model.CustomerDeposit{
		CustomerID:     customerID,
		Amount:         amount.Neg(),
		DepositDate:    day,
		Reference:      reference,
		Notes:          "applied",
		JournalEntryID: entryID,
	})
}

func (s *Service) appendDeposit(ctx context.Context, scope model.Scope, row model.CustomerDeposit) (model.CustomerDeposit, error) {
	c := s.docs.Collection(scope, DepositsCollection)
	rowID, err := c.Create(ctx, row)
	if err != nil {
		// The journal entry stands; the row can be re-added from it.
		s.log.Error("deposit row not stored",
			zap.String("scope", string(scope)),
			zap.String("customer_id", row.CustomerID),
			zap.String("entry_id", row.JournalEntryID),
			zap.Error(err))
		return model.CustomerDeposit{}, fmt.Errorf("storing deposit row for entry %s: %w", row.JournalEntryID, err)
	}
	return getDoc[model.CustomerDeposit](ctx, c, "deposit", rowID)
}

// ListDeposits returns every deposit row for a customer in date order,
// including rows whose journal entry was later reversed.
func (s *Service) ListDeposits(ctx context.Context, scope model.Scope, customerID string) ([]model.CustomerDeposit, error) {
	rows, err := listDocs[model.CustomerDeposit](ctx, s.docs.Collection(scope, DepositsCollection), docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("customer_id", customerID)},
		OrderBy: "deposit_date",
	})
	if err != nil {
		return nil, fmt.Errorf("listing deposits for %s: %w", customerID, err)
	}
	return rows, nil
}

// AvailableDeposit is the deposit a customer holds: standing deposits less
// standing applications. A reversed deposit or application drops out, so
// the figure follows account 2200 rather than the stored rows.
func (s *Service) AvailableDeposit(ctx context.Context, scope model.Scope, customerID string) (decimal.Decimal, error) {
	entries, err := s.customerEntries(ctx, scope, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	return depositBalance(entries), nil
}

// SaleResult holds the entries booked by RecordSale.
type SaleResult struct {
	SaleEntryID    string          `json:"sale_entry_id"`
	DepositApplied decimal.Decimal `json:"deposit_applied"`
	DepositRowID   string          `json:"deposit_row_id,omitempty"`
}

// RecordSale books a sale to a known customer, then applies as much of the
// customer's held deposit as the unpaid part needs. The sale stays posted
// when the deposit application fails; a *accounting.PartialError carries
// its id.
func (s *Service) RecordSale(ctx context.Context, scope model.Scope, sale accounting.Sale) (SaleResult, error) {
	cust, err := s.GetCustomer(ctx, scope, sale.CustomerID)
	if err != nil {
		return SaleResult{}, err
	}
	if sale.CustomerName == "" {
		sale.CustomerName = cust.Name
	}
	sale.Date = s.today(sale.Date)

	saleID, err := s.recorder.RecordSale(ctx, scope, sale)
	if err != nil {
		return SaleResult{}, err
	}
	res := SaleResult{SaleEntryID: saleID, DepositApplied: decimal.Zero}

	unpaid := sale.Amount.Sub(sale.PaymentReceived)
	if !unpaid.IsPositive() {
		return res, nil
	}
	available, err := s.AvailableDeposit(ctx, scope, sale.CustomerID)
	if err != nil {
		return res, &accounting.PartialError{Operation: "sale", Posted: []string{saleID}, Err: err}
	}
	apply := decimal.Min(available, unpaid)
	if !apply.IsPositive() {
		return res, nil
	}

	row, err := s.ApplyDeposit(ctx, scope, sale.CustomerID, apply, sale.Date, sale.InvoiceNumber)
	if err != nil {
		s.log.Error("deposit not applied to sale",
			zap.String("scope", string(scope)),
			zap.String("customer_id", sale.CustomerID),
			zap.String("sale_entry_id", saleID),
			zap.Error(err))
		return res, &accounting.PartialError{Operation: "sale", Posted: []string{saleID}, Err: err}
	}
	res.DepositApplied = apply
	res.DepositRowID = row.ID
	return res, nil
}
