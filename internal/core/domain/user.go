package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a platform account with a stored wallet balance.
// Balance is kept in the local retail currency and never goes negative:
// debits are conditional updates rejected when funds are insufficient.
type User struct {
	ID           uuid.UUID       `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"`
	IsAdmin      bool            `json:"is_admin"`
	Banned       bool            `json:"banned"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
