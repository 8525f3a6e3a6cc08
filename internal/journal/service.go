package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/id"
	"github.com/ponmo-books/ponmo/internal/metrics"
	"github.com/ponmo-books/ponmo/internal/model"
)

// Collection is the document collection holding journal entries.
const Collection = "journal_entries"

// Chart is the chart-of-accounts view the journal needs.
type Chart interface {
	AccountChecker
	Get(code string) (model.Account, bool)
	All() []model.Account
}

// Service is the append-only journal entry store. Entries are validated on
// write and never edited in place; the only state change after posting is
// the transition to reversed.
type Service struct {
	docs      *docstore.Store
	chart     Chart
	tolerance decimal.Decimal
	log       *zap.Logger
	metrics   *metrics.Ledger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTolerance sets the absolute balance tolerance.
func WithTolerance(t decimal.Decimal) Option {
	return func(s *Service) { s.tolerance = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l.Named("journal")
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Ledger) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source used for reversals.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a journal Service.
func NewService(docs *docstore.Store, chart Chart, opts ...Option) *Service {
	s := &Service{
		docs:      docs,
		chart:     chart,
		tolerance: DefaultTolerance,
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tolerance returns the configured balance tolerance.
func (s *Service) Tolerance() decimal.Decimal {
	return s.tolerance
}

// Chart returns the chart of accounts entries are validated against.
func (s *Service) Chart() Chart {
	return s.chart
}

// NewEntry holds the parameters of an entry to create.
type NewEntry struct {
	Date        time.Time
	Description string
	Reference   string
	Kind        model.EntryKind // defaults to manual
	CustomerID  string
	VendorID    string
	Lines       []model.JournalLine
	Draft       bool // store as draft; drafts do not affect balances
}

func (s *Service) entries(scope model.Scope) *docstore.Collection {
	return s.docs.Collection(scope, Collection)
}

// CreateEntry validates and stores a new entry, returning its id. Nothing
// is written when validation fails.
func (s *Service) CreateEntry(ctx context.Context, scope model.Scope, e NewEntry) (string, error) {
	return s.create(ctx, scope, e, "")
}

func (s *Service) create(ctx context.Context, scope model.Scope, e NewEntry, reverses string) (string, error) {
	if verrs := ValidateEntry(e.Date, e.Description, e.Lines, s.chart, s.tolerance); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			s.metrics.ValidationFailed(string(ve.Rule))
			errs[i] = ve
		}
		s.log.Warn("entry rejected",
			zap.String("scope", string(scope)),
			zap.String("reference", e.Reference),
			zap.Errors("violations", errs))
		return "", joinValidation(verrs)
	}

	kind := e.Kind
	if kind == "" {
		kind = model.KindManual
	}
	status := model.StatusPosted
	if e.Draft {
		status = model.StatusDraft
	}

	debits, credits := model.Totals(e.Lines)
	entry := model.JournalEntry{
		Date:            model.Day(e.Date),
		Description:     e.Description,
		Reference:       e.Reference,
		Kind:            kind,
		CustomerID:      e.CustomerID,
		VendorID:        e.VendorID,
		Lines:           e.Lines,
		TotalDebits:     debits,
		TotalCredits:    credits,
		Status:          status,
		ReversesEntryID: reverses,
	}

	entryID, err := s.entries(scope).Create(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("storing journal entry: %w", err)
	}

	if status == model.StatusPosted {
		s.metrics.EntryPosted(kind)
	}
	s.log.Info("entry created",
		zap.String("scope", string(scope)),
		zap.String("entry_id", entryID),
		zap.String("kind", string(kind)),
		zap.String("status", string(status)),
		zap.String("reference", e.Reference),
		zap.String("total", debits.StringFixed(2)))
	return entryID, nil
}

// GetByID returns one entry.
func (s *Service) GetByID(ctx context.Context, scope model.Scope, entryID string) (model.JournalEntry, error) {
	var entry model.JournalEntry
	err := s.entries(scope).Get(ctx, entryID, &entry)
	if errors.Is(err, docstore.ErrNotFound) {
		return entry, fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	if err != nil {
		return entry, fmt.Errorf("reading entry %s: %w", entryID, err)
	}
	return entry, nil
}

// GetAll returns entries matching q. Without an explicit order, entries
// are sorted by date and then creation order. No limit is applied unless
// q sets one.
func (s *Service) GetAll(ctx context.Context, scope model.Scope, q docstore.Query) ([]model.JournalEntry, error) {
	if q.OrderBy == "" {
		q.OrderBy = "date"
	}
	docs, err := s.entries(scope).GetAll(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return docstore.DecodeAll[model.JournalEntry](docs)
}

// PostDraft promotes a draft entry to posted.
func (s *Service) PostDraft(ctx context.Context, scope model.Scope, entryID string) error {
	var entry model.JournalEntry
	err := s.entries(scope).Modify(ctx, entryID, func(doc docstore.Document) error {
		if err := doc.Decode(&entry); err != nil {
			return err
		}
		if entry.Status != model.StatusDraft {
			return fmt.Errorf("entry %s is %s, not draft", entryID, entry.Status)
		}
		doc["status"] = model.StatusPosted
		return nil
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	s.metrics.EntryPosted(entry.Kind)
	return nil
}

// ReverseEntry undoes a posted entry by writing a compensating entry with
// every line's sides swapped, and marks the original reversed. It returns
// the id of the compensating entry.
func (s *Service) ReverseEntry(ctx context.Context, scope model.Scope, entryID, reason string) (string, error) {
	coll := s.entries(scope)
	now := s.now().UTC()

	// Claim the original first so two reversals cannot both succeed.
	var original model.JournalEntry
	err := coll.Modify(ctx, entryID, func(doc docstore.Document) error {
		if err := doc.Decode(&original); err != nil {
			return err
		}
		switch original.Status {
		case model.StatusReversed:
			return ErrAlreadyReversed
		case model.StatusDraft:
			return ErrNotPosted
		}
		doc["status"] = model.StatusReversed
		doc["reversed_at"] = now
		return nil
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return "", fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reversing entry %s: %w", entryID, err)
	}

	lines := make([]model.JournalLine, len(original.Lines))
	for i, l := range original.Lines {
		lines[i] = model.JournalLine{AccountCode: l.AccountCode, Debit: l.Credit, Credit: l.Debit, Memo: l.Memo}
	}
	description := "Reversal of " + original.Description
	if reason != "" {
		description += " - " + reason
	}

	reversalID, err := s.create(ctx, scope, NewEntry{
		Date:        now,
		Description: description,
		Reference:   id.Reversal(original.Reference, original.ID),
		Kind:        model.KindReversal,
		CustomerID:  original.CustomerID,
		VendorID:    original.VendorID,
		Lines:       lines,
	}, original.ID)
	if err != nil {
		restoreErr := coll.Modify(ctx, entryID, func(doc docstore.Document) error {
			doc["status"] = model.StatusPosted
			delete(doc, "reversed_at")
			return nil
		})
		if restoreErr != nil {
			s.log.Error("restoring entry after failed reversal",
				zap.String("scope", string(scope)),
				zap.String("entry_id", entryID),
				zap.Error(restoreErr))
		}
		return "", fmt.Errorf("creating reversal of %s: %w", entryID, err)
	}

	if _, err := coll.Update(ctx, entryID, map[string]any{"reversed_by_entry_id": reversalID}); err != nil {
		s.log.Warn("linking reversal", zap.String("entry_id", entryID), zap.Error(err))
	}

	s.metrics.EntryReversed()
	s.log.Info("entry reversed",
		zap.String("scope", string(scope)),
		zap.String("entry_id", entryID),
		zap.String("reversal_id", reversalID),
		zap.String("reason", reason))
	return reversalID, nil
}

// countedEntries returns entries that affect balances, dated within
// [from, to]. Zero bounds are open.
func (s *Service) countedEntries(ctx context.Context, scope model.Scope, from, to time.Time) ([]model.JournalEntry, error) {
	filters := []docstore.Filter{docstore.In("status", model.StatusPosted, model.StatusReversed)}
	if !from.IsZero() {
		filters = append(filters, docstore.Gte("date", model.Day(from)))
	}
	if !to.IsZero() {
		filters = append(filters, docstore.Lte("date", model.Day(to)))
	}
	return s.GetAll(ctx, scope, docstore.Query{Filters: filters})
}

// GetAccountBalance returns the balance of one account on its normal side,
// counting entries dated on or before asOf (zero means no cutoff).
func (s *Service) GetAccountBalance(ctx context.Context, scope model.Scope, code string, asOf time.Time) (decimal.Decimal, error) {
	acct, ok := s.chart.Get(code)
	if !ok {
		return decimal.Zero, fmt.Errorf("account %s: %w", code, ErrNotFound)
	}
	entries, err := s.countedEntries(ctx, scope, time.Time{}, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return AccountBalance(entries, acct), nil
}

// GetTrialBalance returns every non-zero account balance as of asOf.
func (s *Service) GetTrialBalance(ctx context.Context, scope model.Scope, asOf time.Time) (map[string]decimal.Decimal, error) {
	balances, err := s.PeriodBalances(ctx, scope, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}
	return NonZero(balances), nil
}

// PeriodBalances returns the movement of every account over [from, to],
// zeros included. Zero bounds are open.
func (s *Service) PeriodBalances(ctx context.Context, scope model.Scope, from, to time.Time) (map[string]decimal.Decimal, error) {
	entries, err := s.countedEntries(ctx, scope, from, to)
	if err != nil {
		return nil, err
	}
	return Balances(entries, s.chart.All()), nil
}
