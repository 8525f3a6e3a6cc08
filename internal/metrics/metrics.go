package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ponmo-books/ponmo/internal/model"
)

const namespace = "ponmo"

// Ledger counts journal activity. A nil *Ledger is valid and records nothing.
type Ledger struct {
	entriesPosted      *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	reversals          prometheus.Counter
	partialRecordings  *prometheus.CounterVec
}

// NewLedger creates the ledger collectors and registers them with reg.
func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		entriesPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "entries_posted_total",
			Help:      "Journal entries written, by entry kind.",
		}, []string{"kind"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "validation_failures_total",
			Help:      "Journal entry validation failures, by rule.",
		}, []string{"rule"}),
		reversals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "reversals_total",
			Help:      "Journal entries reversed.",
		}),
		partialRecordings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accounting",
			Name:      "partial_recordings_total",
			Help:      "Multi-entry recordings that stopped after posting some entries, by operation.",
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.entriesPosted, m.validationFailures, m.reversals, m.partialRecordings)
	}
	return m
}

// EntryPosted counts one written entry.
func (m *Ledger) EntryPosted(kind model.EntryKind) {
	if m == nil {
		return
	}
	m.entriesPosted.WithLabelValues(string(kind)).Inc()
}

// ValidationFailed counts one violated rule.
func (m *Ledger) ValidationFailed(rule string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(rule).Inc()
}

// EntryReversed counts one reversal.
func (m *Ledger) EntryReversed() {
	if m == nil {
		return
	}
	m.reversals.Inc()
}

// PartialRecording counts a multi-entry recording that did not finish.
func (m *Ledger) PartialRecording(operation string) {
	if m == nil {
		return
	}
	m.partialRecordings.WithLabelValues(operation).Inc()
}
