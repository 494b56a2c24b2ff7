package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositStatus is the lifecycle state of a funding request.
type DepositStatus string

const (
	DepositStatusPending  DepositStatus = "pending"
	DepositStatusApproved DepositStatus = "approved"
	DepositStatusRejected DepositStatus = "rejected"
)

// Deposit is a user's request to fund the wallet. The amount is credited
// only when an admin approves the deposit after verifying the on-chain
// payment against the stored reference.
type Deposit struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	// Amount is what the wallet will be credited with; GasFee is the
	// processing surcharge the user pays on top.
	Amount    decimal.Decimal `json:"amount"`
	GasFee    decimal.Decimal `json:"gas_fee"`
	Method    string          `json:"method"` // e.g. "btc", "usdt"
	Address   string          `json:"address"`
	TxRef     string          `json:"tx_ref"`
	Status    DepositStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
