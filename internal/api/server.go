// Package api serves read-only ledger queries over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ponmo-books/ponmo/internal/alerts"
	"github.com/ponmo-books/ponmo/internal/customers"
	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/model"
	"github.com/ponmo-books/ponmo/internal/statements"
)

// Ledger answers balance and journal queries.
type Ledger interface {
	GetAccountBalance(ctx context.Context, scope model.Scope, code string, asOf time.Time) (decimal.Decimal, error)
	GetAll(ctx context.Context, scope model.Scope, q docstore.Query) ([]model.JournalEntry, error)
}

// Reports generates financial statements.
type Reports interface {
	TrialBalance(ctx context.Context, scope model.Scope, asOf time.Time) (statements.TrialBalance, error)
	ProfitLoss(ctx context.Context, scope model.Scope, start, end time.Time) (statements.ProfitLoss, error)
	BalanceSheet(ctx context.Context, scope model.Scope, asOf time.Time) (statements.BalanceSheet, error)
}

// Parties answers customer and vendor queries.
type Parties interface {
	ListCustomers(ctx context.Context, scope model.Scope) ([]model.Customer, error)
	GetCustomerBalanceSummary(ctx context.Context, scope model.Scope, customerID string) (customers.BalanceSummary, error)
	GetVendorBalance(ctx context.Context, scope model.Scope, vendorID string) (decimal.Decimal, error)
}

// Alerts evaluates business alerts.
type Alerts interface {
	Generate(ctx context.Context, scope model.Scope) ([]alerts.Alert, error)
}

// Deps are the services behind the router.
type Deps struct {
	Ledger   Ledger
	Reports  Reports
	Parties  Parties
	Alerts   Alerts              // nil leaves /alerts unrouted
	Gatherer prometheus.Gatherer // nil serves the default registry
	Logger   *zap.Logger
}

// NewRouter builds the HTTP handler.
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{ledger: d.Ledger, reports: d.Reports, parties: d.Parties, alerts: d.Alerts, log: log.Named("api")}

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/{scope}", func(r chi.Router) {
		r.Get("/accounts/{code}/balance", h.accountBalance)
		r.Get("/trial-balance", h.trialBalance)
		r.Get("/profit-loss", h.profitLoss)
		r.Get("/balance-sheet", h.balanceSheet)
		r.Get("/journal", h.journal)
		r.Get("/customers", h.listCustomers)
		r.Get("/customers/{id}/balance", h.customerBalance)
		r.Get("/vendors/{id}/balance", h.vendorBalance)
		if h.alerts != nil {
			r.Get("/alerts", h.listAlerts)
		}
	})
	return r
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unknown"
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", ww.Status()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int("bytes_out", ww.BytesWritten()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			switch {
			case ww.Status() >= 500:
				log.Error("request", fields...)
			case ww.Status() >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
		})
	}
}
