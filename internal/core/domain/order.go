package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a placed order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusPartial    OrderStatus = "partial"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// Order is a user's accepted request against one catalog service. Status is
// the only mutable field after creation; it moves via explicit refill/cancel
// actions or by syncing live status from the provider.
type Order struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Provider    string    `json:"provider"`
	ServiceID   string    `json:"service_id"`
	ServiceName string    `json:"service_name"`
	Link        string    `json:"link"`
	Quantity    int       `json:"quantity"`
	// Charge is the retail amount actually debited from the wallet.
	Charge          decimal.Decimal `json:"charge"`
	Status          OrderStatus     `json:"status"`
	ProviderOrderID string          `json:"provider_order_id"`
	// Capability flags captured from the service at placement time, so
	// refill/cancel can be pre-checked without refetching the catalog.
	Refillable bool      `json:"refillable"`
	Cancelable bool      `json:"cancelable"`
	StartCount int       `json:"start_count"`
	Remains    int       `json:"remains"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsTerminal reports whether the order can no longer change upstream.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted ||
		o.Status == OrderStatusCancelled ||
		o.Status == OrderStatusRefunded
}
