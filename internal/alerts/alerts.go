// Package alerts derives business warnings from ledger balances and the
// customer reconciler. Alerts are computed on demand and never stored.
package alerts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ponmo-books/ponmo/internal/accounts"
	"github.com/ponmo-books/ponmo/internal/customers"
	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/model"
	"github.com/ponmo-books/ponmo/internal/statements"
)

// Type groups alerts by the area of the business they concern.
type Type string

const (
	TypeCashFlow    Type = "cash_flow"
	TypeCustomer    Type = "customer"
	TypeFinancial   Type = "financial"
	TypeOperational Type = "operational"
)

// Severity orders alerts by urgency.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every level, most urgent first.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	}
	return 0
}

// Alert is one warning. ID is stable for a given rule and day.
type Alert struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Severity  Severity  `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Action    string    `json:"action_required"`
	CreatedAt time.Time `json:"created_at"`
}

// Thresholds tune when alerts fire.
type Thresholds struct {
	LowCash      decimal.Decimal // cash + bank below this is low
	CriticalCash decimal.Decimal // below this a low-cash alert is high severity
	ARCashRatio  decimal.Decimal // receivables above ratio x cash
	CustomerDebt decimal.Decimal // a customer owing more than this
	ExpenseRatio decimal.Decimal // operating expenses / revenue above this
	QuietDays    int             // no entries created for this many days
}

// DefaultThresholds returns the stock settings.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowCash:      decimal.NewFromInt(10000),
		CriticalCash: decimal.NewFromInt(5000),
		ARCashRatio:  decimal.NewFromInt(2),
		CustomerDebt: decimal.NewFromInt(50000),
		ExpenseRatio: decimal.RequireFromString("0.8"),
		QuietDays:    7,
	}
}

// Ledger reads balances and entries.
type Ledger interface {
	GetAccountBalance(ctx context.Context, scope model.Scope, code string, asOf time.Time) (decimal.Decimal, error)
	GetAll(ctx context.Context, scope model.Scope, q docstore.Query) ([]model.JournalEntry, error)
}

// Customers reports every customer's reconciled balance.
type Customers interface {
	AllCustomersBalance(ctx context.Context, scope model.Scope) ([]customers.BalanceSummary, error)
}

// Reports produces the profit and loss statement.
type Reports interface {
	ProfitLoss(ctx context.Context, scope model.Scope, start, end time.Time) (statements.ProfitLoss, error)
}

// Service evaluates alert rules.
type Service struct {
	ledger     Ledger
	customers  Customers
	reports    Reports
	thresholds Thresholds
	log        *zap.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithThresholds replaces the default thresholds.
func WithThresholds(t Thresholds) Option {
	return func(s *Service) { s.thresholds = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l.Named("alerts")
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(ledger Ledger, custs Customers, reports Reports, opts ...Option) *Service {
	s := &Service{
		ledger:     ledger,
		customers:  custs,
		reports:    reports,
		thresholds: DefaultThresholds(),
		log:        zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type rule func(ctx context.Context, scope model.Scope, now time.Time) ([]Alert, error)

// Generate evaluates every rule for scope and returns the alerts that
// fire, most severe first.
func (s *Service) Generate(ctx context.Context, scope model.Scope) ([]Alert, error) {
	now := s.now().UTC()
	rules := []struct {
		name string
		fn   rule
	}{
		{"cash flow", s.cashFlow},
		{"customer", s.customerBalances},
		{"financial", s.expenseRatio},
		{"operational", s.recentActivity},
	}

	out := []Alert{}
	for _, r := range rules {
		found, err := r.fn(ctx, scope, now)
		if err != nil {
			return nil, fmt.Errorf("%s alerts: %w", r.name, err)
		}
		out = append(out, found...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].Severity.rank(), out[j].Severity.rank(); ri != rj {
			return ri > rj
		}
		return out[i].ID < out[j].ID
	})

	s.log.Debug("alerts generated", zap.String("scope", string(scope)), zap.Int("count", len(out)))
	return out, nil
}

// CountBySeverity tallies alerts per level. Every level is present.
func CountBySeverity(alerts []Alert) map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, sev := range Severities {
		counts[sev] = 0
	}
	for _, a := range alerts {
		counts[a.Severity]++
	}
	return counts
}

func alertID(prefix string, now time.Time) string {
	return prefix + "_" + now.Format("20060102")
}

func (s *Service) balance(ctx context.Context, scope model.Scope, code string) (decimal.Decimal, error) {
	return s.ledger.GetAccountBalance(ctx, scope, code, time.Time{})
}

func (s *Service) cashFlow(ctx context.Context, scope model.Scope, now time.Time) ([]Alert, error) {
	cash, err := s.balance(ctx, scope, accounts.CodeCash)
	if err != nil {
		return nil, err
	}
	bank, err := s.balance(ctx, scope, accounts.CodeBank)
	if err != nil {
		return nil, err
	}
	ar, err := s.balance(ctx, scope, accounts.CodeAccountsReceivable)
	if err != nil {
		return nil, err
	}
	total := cash.Add(bank)
	t := s.thresholds

	var out []Alert
	if total.LessThan(t.LowCash) {
		sev := SeverityMedium
		if total.LessThan(t.CriticalCash) {
			sev = SeverityHigh
		}
		out = append(out, Alert{
			ID:        alertID("cash_low", now),
			Type:      TypeCashFlow,
			Severity:  sev,
			Title:     "Low Cash Balance",
			Message:   fmt.Sprintf("Total cash balance is %s. Consider collecting receivables or reducing expenses.", total.StringFixed(2)),
			Action:    "Review cash flow and consider immediate actions",
			CreatedAt: now,
		})
	}
	if total.IsNegative() {
		out = append(out, Alert{
			ID:        alertID("cash_negative", now),
			Type:      TypeCashFlow,
			Severity:  SeverityCritical,
			Title:     "Negative Cash Balance",
			Message:   fmt.Sprintf("Cash balance is negative: %s.", total.StringFixed(2)),
			Action:    "Deposit funds or collect outstanding receivables",
			CreatedAt: now,
		})
	}
	if ar.IsPositive() && ar.GreaterThan(total.Mul(t.ARCashRatio)) {
		out = append(out, Alert{
			ID:        alertID("high_ar", now),
			Type:      TypeCashFlow,
			Severity:  SeverityMedium,
			Title:     "High Accounts Receivable",
			Message:   fmt.Sprintf("Accounts receivable (%s) is more than %s times the cash balance (%s).", ar.StringFixed(2), t.ARCashRatio, total.StringFixed(2)),
			Action:    "Focus on collecting outstanding customer payments",
			CreatedAt: now,
		})
	}
	return out, nil
}

func (s *Service) customerBalances(ctx context.Context, scope model.Scope, now time.Time) ([]Alert, error) {
	all, err := s.customers.AllCustomersBalance(ctx, scope)
	if err != nil {
		return nil, err
	}
	// A negative balance means the customer owes.
	limit := s.thresholds.CustomerDebt.Neg()
	owing := 0
	for _, c := range all {
		if c.CurrentBalance.LessThan(limit) {
			owing++
		}
	}
	if owing == 0 {
		return nil, nil
	}
	return []Alert{{
		ID:        alertID("high_customer_balance", now),
		Type:      TypeCustomer,
		Severity:  SeverityMedium,
		Title:     "High Customer Outstanding Balances",
		Message:   fmt.Sprintf("%d customer(s) owe more than %s.", owing, s.thresholds.CustomerDebt.StringFixed(2)),
		Action:    "Follow up with customers for payment collection",
		CreatedAt: now,
	}}, nil
}

func (s *Service) expenseRatio(ctx context.Context, scope model.Scope, now time.Time) ([]Alert, error) {
	pl, err := s.reports.ProfitLoss(ctx, scope, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	if !pl.TotalRevenue.IsPositive() {
		return nil, nil
	}
	ratio := pl.TotalOperatingExpenses.Div(pl.TotalRevenue)
	if !ratio.GreaterThan(s.thresholds.ExpenseRatio) {
		return nil, nil
	}
	return []Alert{{
		ID:        alertID("high_expense_ratio", now),
		Type:      TypeFinancial,
		Severity:  SeverityHigh,
		Title:     "High Expense Ratio",
		Message:   fmt.Sprintf("Operating expenses are %s%% of revenue.", ratio.Mul(decimal.NewFromInt(100)).StringFixed(1)),
		Action:    "Review and reduce operating expenses",
		CreatedAt: now,
	}}, nil
}

func (s *Service) recentActivity(ctx context.Context, scope model.Scope, now time.Time) ([]Alert, error) {
	since := now.AddDate(0, 0, -s.thresholds.QuietDays)
	recent, err := s.ledger.GetAll(ctx, scope, docstore.Query{
		Filters: []docstore.Filter{docstore.Gte("created_at", since)},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(recent) > 0 {
		return nil, nil
	}
	return []Alert{{
		ID:        alertID("no_recent_activity", now),
		Type:      TypeOperational,
		Severity:  SeverityLow,
		Title:     "No Recent Activity",
		Message:   fmt.Sprintf("No transactions recorded in the last %d days.", s.thresholds.QuietDays),
		Action:    "Make sure day-to-day business is being recorded",
		CreatedAt: now,
	}}, nil
}
