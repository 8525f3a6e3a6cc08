package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how money moved for a recorded event.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCheck        PaymentMethod = "check"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentOnAccount    PaymentMethod = "on_account"
)

// OpeningBalanceType says which side a party's starting balance is on.
type OpeningBalanceType string

const (
	OpeningNone   OpeningBalanceType = "none"
	OpeningDebt   OpeningBalanceType = "debt"   // the party owes us (customer) or we owe them (vendor)
	OpeningCredit OpeningBalanceType = "credit" // the reverse of debt
)

// Customer buys finished goods. Its balance is always derived from the journal.
type Customer struct {
	ID                   string             `json:"id"`
	UserID               string             `json:"user_id"`
	Name                 string             `json:"name"`
	Email                string             `json:"email,omitempty"`
	Phone                string             `json:"phone,omitempty"`
	Address              string             `json:"address,omitempty"`
	OpeningBalanceType   OpeningBalanceType `json:"opening_balance_type"`
	OpeningBalanceAmount decimal.Decimal    `json:"opening_balance_amount"`
	OpeningEntryID       string             `json:"opening_entry_id,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// Vendor supplies raw materials or services.
type Vendor struct {
	ID                   string             `json:"id"`
	UserID               string             `json:"user_id"`
	Name                 string             `json:"name"`
	Email                string             `json:"email,omitempty"`
	Phone                string             `json:"phone,omitempty"`
	Address              string             `json:"address,omitempty"`
	OpeningBalanceType   OpeningBalanceType `json:"opening_balance_type"`
	OpeningBalanceAmount decimal.Decimal    `json:"opening_balance_amount"`
	OpeningEntryID       string             `json:"opening_entry_id,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// CustomerDeposit is one movement in a customer's deposit ledger.
// Positive amounts are deposits received, negative amounts are deposits consumed.
type CustomerDeposit struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	CustomerID     string          `json:"customer_id"`
	Amount         decimal.Decimal `json:"amount"`
	DepositDate    time.Time       `json:"deposit_date"`
	PaymentMethod  PaymentMethod   `json:"payment_method,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	JournalEntryID string          `json:"journal_entry_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
