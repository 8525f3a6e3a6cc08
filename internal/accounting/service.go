package accounting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ponmo-books/ponmo/internal/accounts"
	"github.com/ponmo-books/ponmo/internal/journal"
	"github.com/ponmo-books/ponmo/internal/metrics"
	"github.com/ponmo-books/ponmo/internal/model"
	"github.com/ponmo-books/ponmo/internal/statements"
)

// ErrPartial matches a PartialError.
var ErrPartial = errors.New("recording partially applied")

// PartialError reports a multi-entry recording that stopped after some of
// its entries were posted. Posted entries are not rolled back.
type PartialError struct {
	Operation string
	Posted    []string
	Err       error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s: posted %s before failing: %v", e.Operation, strings.Join(e.Posted, ", "), e.Err)
}

func (e *PartialError) Unwrap() []error {
	return []error{ErrPartial, e.Err}
}

// Ledger is the journal surface the recorders write to and read from.
type Ledger interface {
	CreateEntry(ctx context.Context, scope model.Scope, e journal.NewEntry) (string, error)
	GetAccountBalance(ctx context.Context, scope model.Scope, code string, asOf time.Time) (decimal.Decimal, error)
	GetTrialBalance(ctx context.Context, scope model.Scope, asOf time.Time) (map[string]decimal.Decimal, error)
}

// Reports generates financial statements.
type Reports interface {
	ProfitLoss(ctx context.Context, scope model.Scope, start, end time.Time) (statements.ProfitLoss, error)
	BalanceSheet(ctx context.Context, scope model.Scope, asOf time.Time) (statements.BalanceSheet, error)
}

// Service translates business events into balanced journal entries. It
// does not validate business inputs; amounts are expected to be positive.
type Service struct {
	ledger  Ledger
	reports Reports
	log     *zap.Logger
	metrics *metrics.Ledger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l.Named("accounting")
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Ledger) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source used for generated references.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an accounting Service.
func NewService(ledger Ledger, reports Reports, opts ...Option) *Service {
	s := &Service{
		ledger:  ledger,
		reports: reports,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAccountBalance returns one account's normal-side balance as of asOf.
func (s *Service) GetAccountBalance(ctx context.Context, scope model.Scope, code string, asOf time.Time) (decimal.Decimal, error) {
	return s.ledger.GetAccountBalance(ctx, scope, code, asOf)
}

// GetTrialBalance returns every non-zero account balance as of asOf.
func (s *Service) GetTrialBalance(ctx context.Context, scope model.Scope, asOf time.Time) (map[string]decimal.Decimal, error) {
	return s.ledger.GetTrialBalance(ctx, scope, asOf)
}

// GenerateProfitLoss returns the income statement for [start, end].
func (s *Service) GenerateProfitLoss(ctx context.Context, scope model.Scope, start, end time.Time) (statements.ProfitLoss, error) {
	return s.reports.ProfitLoss(ctx, scope, start, end)
}

// GenerateBalanceSheet returns the balance sheet as of asOf.
func (s *Service) GenerateBalanceSheet(ctx context.Context, scope model.Scope, asOf time.Time) (statements.BalanceSheet, error) {
	return s.reports.BalanceSheet(ctx, scope, asOf)
}

// moneyAccount maps a payment method to the cash or bank account. Methods
// that are neither default to cash.
func moneyAccount(method model.PaymentMethod) string {
	switch method {
	case model.PaymentBankTransfer, model.PaymentCheck:
		return accounts.CodeBank
	default:
		return accounts.CodeCash
	}
}

// purchaseCreditAccount maps a purchase payment method. Anything that is
// not paid now goes to accounts payable.
func purchaseCreditAccount(method model.PaymentMethod) string {
	switch method {
	case model.PaymentCash:
		return accounts.CodeCash
	case model.PaymentBankTransfer, model.PaymentCheck:
		return accounts.CodeBank
	default:
		return accounts.CodeAccountsPayable
	}
}

// expenseCreditAccount maps an expense payment method. Card and on-account
// expenses are owed, unknown methods are cash.
func expenseCreditAccount(method model.PaymentMethod) string {
	switch method {
	case model.PaymentCreditCard, model.PaymentOnAccount:
		return accounts.CodeAccountsPayable
	default:
		return moneyAccount(method)
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func (s *Service) post(ctx context.Context, scope model.Scope, e journal.NewEntry) (string, error) {
	entryID, err := s.ledger.CreateEntry(ctx, scope, e)
	if err != nil {
		return "", fmt.Errorf("recording %s: %w", e.Kind, err)
	}
	return entryID, nil
}
