// Package customers keeps the customer and vendor registries, the
// customer deposit ledger and the balance reconciler.
package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ponmo-books/ponmo/internal/accounting"
	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/model"
)

// Collection names.
const (
	CustomersCollection = "customers"
	VendorsCollection   = "vendors"
	DepositsCollection  = "customer_deposits"
)

var (
	// ErrNotFound is returned for an unknown customer or vendor.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientDeposit is returned when a customer does not hold
	// enough deposit for an application.
	ErrInsufficientDeposit = errors.New("insufficient deposit")
)

// Recorder books the journal entries behind customer and vendor activity.
type Recorder interface {
	RecordSale(ctx context.Context, scope model.Scope, sale accounting.Sale) (string, error)
	RecordCustomerDeposit(ctx context.Context, scope model.Scope, p accounting.CustomerPayment) (string, error)
	RecordCustomerDepositUsage(ctx context.Context, scope model.Scope, u accounting.DepositUsage) (string, error)
	RecordCustomerOpeningBalance(ctx context.Context, scope model.Scope, o accounting.OpeningBalance) (string, error)
	RecordVendorOpeningBalance(ctx context.Context, scope model.Scope, o accounting.OpeningBalance) (string, error)
}

// Entries reads journal entries.
type Entries interface {
	GetAll(ctx context.Context, scope model.Scope, q docstore.Query) ([]model.JournalEntry, error)
}

// Service manages customers, vendors and deposits.
type Service struct {
	docs     *docstore.Store
	recorder Recorder
	entries  Entries
	log      *zap.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l.Named("customers")
		}
	}
}

// WithClock overrides the time source used for default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(docs *docstore.Store, recorder Recorder, entries Entries, opts ...Option) *Service {
	s := &Service{
		docs:     docs,
		recorder: recorder,
		entries:  entries,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today(t time.Time) time.Time {
	if t.IsZero() {
		return model.Day(s.now())
	}
	return model.Day(t)
}

func getDoc[T any](ctx context.Context, c *docstore.Collection, kind, docID string) (T, error) {
	var v T
	err := c.Get(ctx, docID, &v)
	if errors.Is(err, docstore.ErrNotFound) {
		return v, fmt.Errorf("%s %s: %w", kind, docID, ErrNotFound)
	}
	if err != nil {
		return v, fmt.Errorf("reading %s %s: %w", kind, docID, err)
	}
	return v, nil
}

func listDocs[T any](ctx context.Context, c *docstore.Collection, q docstore.Query) ([]T, error) {
	docs, err := c.GetAll(ctx, q)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[T](docs)
}
