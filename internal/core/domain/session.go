package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session is the server-side record behind a session token. Deleting it
// revokes the token immediately regardless of the token's own expiry.
// Balance is a display cache refreshed on introspection; money operations
// always read the persisted balance.
type Session struct {
	TokenID   string          `json:"token_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Email     string          `json:"email"`
	IsAdmin   bool            `json:"is_admin"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}
