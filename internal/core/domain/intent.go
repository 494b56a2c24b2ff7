package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IntentState tracks how far a settlement attempt got.
type IntentState string

const (
	// IntentStateDebited: the wallet has been debited but the provider
	// call has not resolved yet. Intents stuck here are orphaned debits.
	IntentStateDebited IntentState = "debited"
	// IntentStatePlaced: the provider accepted the order.
	IntentStatePlaced IntentState = "placed"
	// IntentStateRefunded: the provider call failed and the debit was
	// reversed in-line.
	IntentStateRefunded IntentState = "refunded"
	// IntentStateReconciled: the sweep found the intent orphaned and
	// issued the refund.
	IntentStateReconciled IntentState = "reconciled"
)

// SettlementIntent is the durable record written in the same database
// transaction as the wallet debit. If the process dies between the debit and
// the provider call's resolution, the reconciliation sweep finds the intent
// still in the debited state and refunds it.
type SettlementIntent struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	ReferenceID string          `json:"reference_id"`
	Provider    string          `json:"provider"`
	ServiceID   string          `json:"service_id"`
	Link        string          `json:"link"`
	Quantity    int             `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	State       IntentState     `json:"state"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
