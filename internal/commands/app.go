package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ponmo-books/ponmo/internal/accounting"
	"github.com/ponmo-books/ponmo/internal/accounts"
	"github.com/ponmo-books/ponmo/internal/alerts"
	"github.com/ponmo-books/ponmo/internal/config"
	"github.com/ponmo-books/ponmo/internal/customers"
	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/journal"
	"github.com/ponmo-books/ponmo/internal/logging"
	"github.com/ponmo-books/ponmo/internal/metrics"
	"github.com/ponmo-books/ponmo/internal/model"
	"github.com/ponmo-books/ponmo/internal/statements"
)

const dateLayout = "2006-01-02"

// app is the wired set of services behind a command.
type app struct {
	cfg        *config.Config
	scope      model.Scope
	log        *zap.Logger
	registry   *prometheus.Registry
	docs       *docstore.Store
	chart      *accounts.Service
	journal    *journal.Service
	reports    *statements.Generator
	accounting *accounting.Service
	customers  *customers.Service
	alerts     *alerts.Service
}

// openApp loads the project config and opens its store.
func openApp(g *globalFlags) (*app, error) {
	cfg, err := config.LoadEnv(filepath.Join(g.dir, config.FileName))
	if err != nil {
		return nil, err
	}
	scope := cfg.Scope
	if g.scope != "" {
		scope = g.scope
	}
	tol, err := cfg.Tolerance()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	path := cfg.Storage.Path
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(g.dir, path)
	}
	if cfg.Storage.Backend != config.BackendMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	backend, err := docstore.Open(cfg.Storage.Backend, path)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewLedger(reg)

	docs := docstore.New(backend)
	chart := accounts.Default()
	j := journal.NewService(docs, chart,
		journal.WithTolerance(tol),
		journal.WithLogger(log),
		journal.WithMetrics(m))
	gen := statements.NewGenerator(j, chart, tol)
	rec := accounting.NewService(j, gen, accounting.WithLogger(log), accounting.WithMetrics(m))
	parties := customers.NewService(docs, rec, j, customers.WithLogger(log))

	return &app{
		cfg:        cfg,
		scope:      model.Scope(scope),
		log:        log,
		registry:   reg,
		docs:       docs,
		chart:      chart,
		journal:    j,
		reports:    gen,
		accounting: rec,
		customers:  parties,
		alerts:     alerts.NewService(j, parties, gen, alerts.WithLogger(log)),
	}, nil
}

func (a *app) Close() error {
	_ = a.log.Sync()
	return a.docs.Close()
}

// withApp runs fn against an opened app and closes it afterwards.
func withApp(g *globalFlags, fn func(a *app) error) error {
	a, err := openApp(g)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func parseAmount(flag, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", flag, s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("--%s must not be negative", flag)
	}
	return d, nil
}

func requireAmount(flag, s string) (decimal.Decimal, error) {
	d, err := parseAmount(flag, s)
	if err != nil {
		return d, err
	}
	if !d.IsPositive() {
		return d, fmt.Errorf("--%s must be positive", flag)
	}
	return d, nil
}

// parseDate parses an optional YYYY-MM-DD flag value. Empty means zero.
func parseDate(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q, want YYYY-MM-DD", flag, s)
	}
	return t, nil
}

// dateOrToday parses a date flag, defaulting to today.
func dateOrToday(flag, s string) (time.Time, error) {
	t, err := parseDate(flag, s)
	if err != nil || !t.IsZero() {
		return t, err
	}
	return model.Day(time.Now()), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
