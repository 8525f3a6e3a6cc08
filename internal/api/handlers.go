package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ponmo-books/ponmo/internal/accounts"
	"github.com/ponmo-books/ponmo/internal/alerts"
	"github.com/ponmo-books/ponmo/internal/customers"
	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/journal"
	"github.com/ponmo-books/ponmo/internal/model"
)

// DateLayout is the format of date query parameters.
const DateLayout = "2006-01-02"

type handler struct {
	ledger  Ledger
	reports Reports
	parties Parties
	alerts  Alerts
	log     *zap.Logger
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

// fail maps a service error to a response.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, journal.ErrNotFound),
		errors.Is(err, customers.ErrNotFound),
		errors.Is(err, accounts.ErrNotFound),
		errors.Is(err, docstore.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, docstore.ErrInvalidScope):
		writeJSONError(w, http.StatusBadRequest, "invalid_scope", err.Error())
	default:
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func scopeOf(r *http.Request) model.Scope {
	return model.Scope(chi.URLParam(r, "scope"))
}

// dateParam parses an optional YYYY-MM-DD query parameter.
func dateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q, want YYYY-MM-DD", name, v)
	}
	return t, nil
}

func (h *handler) accountBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "as_of")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	code := chi.URLParam(r, "code")
	bal, err := h.ledger.GetAccountBalance(r.Context(), scopeOf(r), code, asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account_code": code, "balance": bal})
}

func (h *handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "as_of")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	tb, err := h.reports.TrialBalance(r.Context(), scopeOf(r), asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

func (h *handler) profitLoss(w http.ResponseWriter, r *http.Request) {
	start, err := dateParam(r, "start")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	end, err := dateParam(r, "end")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	pl, err := h.reports.ProfitLoss(r.Context(), scopeOf(r), start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

func (h *handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "as_of")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	bs, err := h.reports.BalanceSheet(r.Context(), scopeOf(r), asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

// journal handles GET /api/{scope}/journal with optional from, to, kind,
// customer_id, vendor_id, status and limit filters.
func (h *handler) journal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var query docstore.Query

	from, err := dateParam(r, "from")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	to, err := dateParam(r, "to")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	if !from.IsZero() {
		query.Filters = append(query.Filters, docstore.Gte("date", from))
	}
	if !to.IsZero() {
		query.Filters = append(query.Filters, docstore.Lte("date", to))
	}
	for _, field := range []string{"kind", "customer_id", "vendor_id", "status"} {
		if v := q.Get(field); v != "" {
			query.Filters = append(query.Filters, docstore.Eq(field, v))
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit")
			return
		}
		query.Limit = n
	}

	entries, err := h.ledger.GetAll(r.Context(), scopeOf(r), query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	custs, err := h.parties.ListCustomers(r.Context(), scopeOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if custs == nil {
		custs = []model.Customer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": custs})
}

func (h *handler) customerBalance(w http.ResponseWriter, r *http.Request) {
	sum, err := h.parties.GetCustomerBalanceSummary(r.Context(), scopeOf(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *handler) vendorBalance(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "id")
	bal, err := h.parties.GetVendorBalance(r.Context(), scopeOf(r), vendorID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vendor_id": vendorID, "balance": bal})
}

// AlertsResponse lists active alerts with a tally per severity.
type AlertsResponse struct {
	Alerts []alerts.Alert          `json:"alerts"`
	Counts map[alerts.Severity]int `json:"counts"`
}

func (h *handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	found, err := h.alerts.Generate(r.Context(), scopeOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AlertsResponse{Alerts: found, Counts: alerts.CountBySeverity(found)})
}
