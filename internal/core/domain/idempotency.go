package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog is a cached settlement result keyed by the client-supplied
// order reference, preventing a retried submission from debiting twice.
type IdempotencyLog struct {
	Key          string    `json:"key"` // "<user_id>:<reference_id>"
	OrderID      uuid.UUID `json:"order_id"`
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuildOrderKey constructs the idempotency key for an order placement.
func BuildOrderKey(userID uuid.UUID, referenceID string) string {
	return userID.String() + ":" + referenceID
}
