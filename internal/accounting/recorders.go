package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ponmo-books/ponmo/internal/accounts"
	"github.com/ponmo-books/ponmo/internal/id"
	"github.com/ponmo-books/ponmo/internal/journal"
	"github.com/ponmo-books/ponmo/internal/model"
)

// Purchase is a raw-material purchase.
type Purchase struct {
	Date        time.Time
	Description string
	Reference   string
	Amount      decimal.Decimal
	Method      model.PaymentMethod // empty means on account
	VendorID    string
}

// RecordPurchase books Dr raw materials, Cr cash, bank or accounts payable.
func (s *Service) RecordPurchase(ctx context.Context, scope model.Scope, p Purchase) (string, error) {
	return s.post(ctx, scope, journal.NewEntry{
		Date:        p.Date,
		Description: orDefault(p.Description, "Purchase of raw materials"),
		Reference:   p.Reference,
		Kind:        model.KindPurchase,
		VendorID:    p.VendorID,
		Lines: []model.JournalLine{
			model.Debit(accounts.CodeRawMaterials, p.Amount),
			model.Credit(purchaseCreditAccount(p.Method), p.Amount),
		},
	})
}

// Batch is an inventory batch purchase as reported by the inventory service.
type Batch struct {
	ID        string
	Supplier  string
	Date      time.Time
	TotalCost decimal.Decimal
	Pieces    int
	Method    model.PaymentMethod
	VendorID  string
}

// RecordPurchaseFromBatch books a batch purchase with the batch id as reference.
func (s *Service) RecordPurchaseFromBatch(ctx context.Context, scope model.Scope, b Batch) (string, error) {
	desc := fmt.Sprintf("Purchase of raw materials - batch %s (%d pieces)", b.ID, b.Pieces)
	if b.Supplier != "" {
		desc += " from " + b.Supplier
	}
	return s.RecordPurchase(ctx, scope, Purchase{
		Date:        b.Date,
		Description: desc,
		Reference:   b.ID,
		Amount:      b.TotalCost,
		Method:      b.Method,
		VendorID:    b.VendorID,
	})
}

// Production moves materials through work in process into finished goods.
type Production struct {
	Date           time.Time
	Reference      string
	Pieces         int
	RawCost        decimal.Decimal
	ProcessingCost decimal.Decimal // optional
}

// ProductionResult holds the ids of both production entries.
type ProductionResult struct {
	TransferEntryID   string
	CompletionEntryID string
}

// RecordProduction books production as two entries so each stage can be
// reversed and reported on its own:
//
//  1. Dr WIP, Cr raw materials (and Dr WIP, Cr processing expense)
//  2. Dr finished goods, Cr WIP for the sum of entry 1
//
// If the second entry fails the first stays posted and a *PartialError is
// returned alongside the result.
func (s *Service) RecordProduction(ctx context.Context, scope model.Scope, p Production) (ProductionResult, error) {
	var res ProductionResult
	pieces := fmt.Sprintf("(%d pieces)", p.Pieces)

	lines := []model.JournalLine{
		model.Debit(accounts.CodeWorkInProcess, p.RawCost),
		model.Credit(accounts.CodeRawMaterials, p.RawCost),
	}
	total := p.RawCost
	if p.ProcessingCost.IsPositive() {
		lines = append(lines,
			model.Debit(accounts.CodeWorkInProcess, p.ProcessingCost),
			model.Credit(accounts.CodeProcessingExpense, p.ProcessingCost))
		total = total.Add(p.ProcessingCost)
	}

	transferID, err := s.post(ctx, scope, journal.NewEntry{
		Date:        p.Date,
		Description: fmt.Sprintf("Transfer raw materials to production - %s %s", p.Reference, pieces),
		Reference:   id.ProductionTransfer(p.Reference),
		Kind:        model.KindProductionTransfer,
		Lines:       lines,
	})
	if err != nil {
		return res, err
	}
	res.TransferEntryID = transferID

	completeID, err := s.post(ctx, scope, journal.NewEntry{
		Date:        p.Date,
		Description: fmt.Sprintf("Complete production - %s %s", p.Reference, pieces),
		Reference:   id.ProductionComplete(p.Reference),
		Kind:        model.KindProductionComplete,
		Lines: []model.JournalLine{
			model.Debit(accounts.CodeFinishedGoods, total),
			model.Credit(accounts.CodeWorkInProcess, total),
		},
	})
	if err != nil {
		s.metrics.PartialRecording("production")
		s.log.Error("production left in process",
			zap.String("scope", string(scope)),
			zap.String("transfer_entry_id", transferID),
			zap.Error(err))
		return res, &PartialError{Operation: "production", Posted: []string{transferID}, Err: err}
	}
	res.CompletionEntryID = completeID
	return res, nil
}

// Sale is a sale of finished goods.
type Sale struct {
	Date            time.Time
	CustomerID      string
	CustomerName    string // shown in the description; defaults to CustomerID
	InvoiceNumber   string
	Amount          decimal.Decimal
	PaymentReceived decimal.Decimal
	Method          model.PaymentMethod
	COGS            decimal.Decimal // optional
}

// RecordSale books a sale. Payment at or above the price is debited to
// cash or bank with any excess credited to customer deposits; a partial
// payment leaves the rest in accounts receivable. A positive COGS adds
// Dr cost of goods sold, Cr finished goods.
func (s *Service) RecordSale(ctx context.Context, scope model.Scope, sale Sale) (string, error) {
	money := moneyAccount(sale.Method)
	var lines []model.JournalLine

	if sale.PaymentReceived.GreaterThanOrEqual(sale.Amount) {
		lines = append(lines,
			model.Debit(money, sale.PaymentReceived),
			model.Credit(accounts.CodeSalesRevenue, sale.Amount))
		if excess := sale.PaymentReceived.Sub(sale.Amount); excess.IsPositive() {
			lines = append(lines, model.Credit(accounts.CodeCustomerDeposits, excess))
		}
	} else {
		if sale.PaymentReceived.IsPositive() {
			lines = append(lines, model.Debit(money, sale.PaymentReceived))
		}
		lines = append(lines,
			model.Debit(accounts.CodeAccountsReceivable, sale.Amount.Sub(sale.PaymentReceived)),
			model.Credit(accounts.CodeSalesRevenue, sale.Amount))
	}

	if sale.COGS.IsPositive() {
		lines = append(lines,
			model.Debit(accounts.CodeCOGS, sale.COGS),
			model.Credit(accounts.CodeFinishedGoods, sale.COGS))
	}

	return s.post(ctx, scope, journal.NewEntry{
		Date:        sale.Date,
		Description: fmt.Sprintf("Sale to customer %s - Invoice %s", orDefault(sale.CustomerName, sale.CustomerID), sale.InvoiceNumber),
		Reference:   sale.InvoiceNumber,
		Kind:        model.KindSale,
		CustomerID:  sale.CustomerID,
		Lines:       lines,
	})
}

// CustomerPayment is money received from a customer, either as a deposit
// ahead of a sale or against an open receivable.
type CustomerPayment struct {
	Date       time.Time
	CustomerID string
	Amount     decimal.Decimal
	Method     model.PaymentMethod
	Reference  string
	Notes      string
}

// RecordCustomerDeposit books Dr cash or bank, Cr customer deposits.
func (s *Service) RecordCustomerDeposit(ctx context.Context, scope model.Scope, p CustomerPayment) (string, error) {
	desc := "Customer deposit - " + p.CustomerID
	if p.Notes != "" {
		desc += " - " + p.Notes
	}
	return s.post(ctx, scope, journal.NewEntry{
		Date:        p.Date,
		Description: desc,
		Reference:   orDefault(p.Reference, id.Deposit(s.now())),
		Kind:        model.KindDeposit,
		CustomerID:  p.CustomerID,
		Lines: []model.JournalLine{
			model.Debit(moneyAccount(p.Method), p.Amount),
			model.Credit(accounts.CodeCustomerDeposits, p.Amount),
		},
	})
}

// DepositUsage applies a held deposit against a customer's receivable.
type DepositUsage struct {
	Date       time.Time
	CustomerID string
	Amount     decimal.Decimal
	Reference  string // usually the invoice the deposit pays
}

// RecordCustomerDepositUsage books Dr customer deposits, Cr accounts receivable.
func (s *Service) RecordCustomerDepositUsage(ctx context.Context, scope model.Scope, u DepositUsage) (string, error) {
	desc := "Customer deposit applied - " + u.CustomerID
	if u.Reference != "" {
		desc += " - " + u.Reference
	}
	return s.post(ctx, scope, journal.NewEntry{
		Date:        u.Date,
		Description: desc,
		Reference:   orDefault(u.Reference, id.DepositUsage(s.now())),
		Kind:        model.KindDepositUsage,
		CustomerID:  u.CustomerID,
		Lines: []model.JournalLine{
			model.Debit(accounts.CodeCustomerDeposits, u.Amount),
			model.Credit(accounts.CodeAccountsReceivable, u.Amount),
		},
	})
}

// RecordPaymentReceived books Dr cash or bank, Cr accounts receivable.
func (s *Service) RecordPaymentReceived(ctx context.Context, scope model.Scope, p CustomerPayment) (string, error) {
	return s.post(ctx, scope, journal.NewEntry{
		Date:        p.Date,
		Description: "Payment received - " + p.CustomerID,
		Reference:   orDefault(p.Reference, id.PaymentReceived(s.now())),
		Kind:        model.KindPaymentReceived,
		CustomerID:  p.CustomerID,
		Lines: []model.JournalLine{
			model.Debit(moneyAccount(p.Method), p.Amount),
			model.Credit(accounts.CodeAccountsReceivable, p.Amount),
		},
	})
}

// VendorPayment settles an amount owed to a vendor.
type VendorPayment struct {
	Date        time.Time
	VendorID    string
	Amount      decimal.Decimal
	Method      model.PaymentMethod
	Reference   string
	Description string
}

// RecordVendorPayment books Dr accounts payable, Cr cash or bank.
func (s *Service) RecordVendorPayment(ctx context.Context, scope model.Scope, p VendorPayment) (string, error) {
	return s.post(ctx, scope, journal.NewEntry{
		Date:        p.Date,
		Description: orDefault(p.Description, "Payment to vendor - "+p.VendorID),
		Reference:   orDefault(p.Reference, id.Payment(s.now())),
		Kind:        model.KindVendorPayment,
		VendorID:    p.VendorID,
		Lines: []model.JournalLine{
			model.Debit(accounts.CodeAccountsPayable, p.Amount),
			model.Credit(moneyAccount(p.Method), p.Amount),
		},
	})
}

// Expense is an operating or production cost.
type Expense struct {
	Date        time.Time
	AccountCode string
	Amount      decimal.Decimal
	Method      model.PaymentMethod
	Description string
	Reference   string
	VendorID    string
}

// RecordExpense books Dr the expense account, Cr cash, bank or accounts payable.
func (s *Service) RecordExpense(ctx context.Context, scope model.Scope, e Expense) (string, error) {
	return s.post(ctx, scope, journal.NewEntry{
		Date:        e.Date,
		Description: orDefault(e.Description, "Expense"),
		Reference:   e.Reference,
		Kind:        model.KindExpense,
		VendorID:    e.VendorID,
		Lines: []model.JournalLine{
			model.Debit(e.AccountCode, e.Amount),
			model.Credit(expenseCreditAccount(e.Method), e.Amount),
		},
	})
}

// OpeningBalance is a party's balance before tracked activity.
type OpeningBalance struct {
	Date    time.Time
	PartyID string
	Name    string
	Type    model.OpeningBalanceType
	Amount  decimal.Decimal
}

func (o OpeningBalance) empty() bool {
	return o.Type == "" || o.Type == model.OpeningNone || !o.Amount.IsPositive()
}

// RecordCustomerOpeningBalance books a customer's opening balance against
// owner's capital. A debt debits receivables, a credit credits them. It
// returns "" when there is nothing to book.
func (s *Service) RecordCustomerOpeningBalance(ctx context.Context, scope model.Scope, o OpeningBalance) (string, error) {
	if o.empty() {
		return "", nil
	}
	lines := []model.JournalLine{
		model.Debit(accounts.CodeAccountsReceivable, o.Amount),
		model.Credit(accounts.CodeOwnersCapital, o.Amount),
	}
	if o.Type == model.OpeningCredit {
		lines = []model.JournalLine{
			model.Debit(accounts.CodeOwnersCapital, o.Amount),
			model.Credit(accounts.CodeAccountsReceivable, o.Amount),
		}
	}
	return s.post(ctx, scope, journal.NewEntry{
		Date:        o.Date,
		Description: fmt.Sprintf("Opening balance (%s) - customer %s", o.Type, orDefault(o.Name, o.PartyID)),
		Reference:   id.Opening(o.PartyID),
		Kind:        model.KindOpeningBalance,
		CustomerID:  o.PartyID,
		Lines:       lines,
	})
}

// RecordVendorOpeningBalance books a vendor's opening balance against
// owner's capital. A debt (we owe the vendor) credits payables.
func (s *Service) RecordVendorOpeningBalance(ctx context.Context, scope model.Scope, o OpeningBalance) (string, error) {
	if o.empty() {
		return "", nil
	}
	lines := []model.JournalLine{
		model.Debit(accounts.CodeOwnersCapital, o.Amount),
		model.Credit(accounts.CodeAccountsPayable, o.Amount),
	}
	if o.Type == model.OpeningCredit {
		lines = []model.JournalLine{
			model.Debit(accounts.CodeAccountsPayable, o.Amount),
			model.Credit(accounts.CodeOwnersCapital, o.Amount),
		}
	}
	return s.post(ctx, scope, journal.NewEntry{
		Date:        o.Date,
		Description: fmt.Sprintf("Opening balance (%s) - vendor %s", o.Type, orDefault(o.Name, o.PartyID)),
		Reference:   id.Opening(o.PartyID),
		Kind:        model.KindOpeningBalance,
		VendorID:    o.PartyID,
		Lines:       lines,
	})
}
