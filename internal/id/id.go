package id

import (
	"time"

	"github.com/google/uuid"
)

// stampLayout is the timestamp suffix of generated references.
const stampLayout = "20060102150405"

// Reference prefixes.
const (
	PrefixDeposit            = "DEP-"
	PrefixDepositUsage       = "DEP-USE-"
	PrefixPayment            = "PAY-"
	PrefixPaymentReceived    = "PMT-"
	PrefixProductionTransfer = "PROD-"
	PrefixProductionComplete = "COMP-"
	PrefixReversal           = "REV-"
	PrefixOpening            = "open-"
)

// NewDocumentID returns a time-ordered unique id for a stored document.
// Ids sort in creation order.
func NewDocumentID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Deposit returns a default customer deposit reference like "DEP-20250115093000".
func Deposit(t time.Time) string {
	return PrefixDeposit + t.UTC().Format(stampLayout)
}

// DepositUsage returns a default deposit application reference.
func DepositUsage(t time.Time) string {
	return PrefixDepositUsage + t.UTC().Format(stampLayout)
}

// Payment returns a default vendor payment reference.
func Payment(t time.Time) string {
	return PrefixPayment + t.UTC().Format(stampLayout)
}

// PaymentReceived returns a default customer payment reference.
func PaymentReceived(t time.Time) string {
	return PrefixPaymentReceived + t.UTC().Format(stampLayout)
}

// ProductionTransfer returns the reference of the materials-to-WIP entry.
func ProductionTransfer(ref string) string {
	return PrefixProductionTransfer + ref
}

// ProductionComplete returns the reference of the WIP-to-finished entry.
func ProductionComplete(ref string) string {
	return PrefixProductionComplete + ref
}

// Reversal returns the reference of a compensating entry. Entries without
// a reference fall back to the entry id.
func Reversal(ref, entryID string) string {
	if ref == "" {
		ref = entryID
	}
	return PrefixReversal + ref
}

// Opening returns the reference of a customer or vendor opening-balance entry.
func Opening(partyID string) string {
	return PrefixOpening + partyID
}
