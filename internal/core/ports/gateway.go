package ports

import (
	"context"
	"errors"
	"fmt"

	"boostgate/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Gateway errors. ErrProviderUnavailable covers transport and HTTP-level
// failure; OrderRejectedError carries the provider's error payload when the
// panel answered but refused the request.
var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrUnknownProvider     = errors.New("unknown provider")
)

// OrderRejectedError is returned when a provider responds with an error
// payload instead of accepting the request.
type OrderRejectedError struct {
	Provider string
	Reason   string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("provider %s rejected request: %s", e.Provider, e.Reason)
}

// PlaceOrderRequest carries everything a panel needs to accept an order.
type PlaceOrderRequest struct {
	ServiceID string
	Link      string
	Quantity  int
	// Dripfeed, when set, asks the panel to deliver in Runs batches spaced
	// Interval minutes apart.
	Dripfeed *DripfeedParams
}

// DripfeedParams configures staggered delivery.
type DripfeedParams struct {
	Runs     int
	Interval int // minutes
}

// PlaceOrderResult is the panel's acceptance of an order.
type PlaceOrderResult struct {
	ProviderOrderID string
	// ProviderCharge is the wholesale amount the panel billed us, in the
	// provider's own currency. Zero when the panel omits it from the add
	// response; the status call reports it authoritatively.
	ProviderCharge decimal.Decimal
}

// OrderStatusResult is the panel's live view of an order.
type OrderStatusResult struct {
	Status     domain.OrderStatus
	StartCount int
	Remains    int
	// ProviderCharge is the wholesale amount in the provider's currency.
	ProviderCharge decimal.Decimal
}

// ProviderBalance is our stored credit at one upstream panel.
type ProviderBalance struct {
	Provider string
	Balance  decimal.Decimal
	Currency string
}

// ProviderGateway is a uniform interface over the configured upstream SMM
// panels. It strictly translates: no retries, no caching, every call
// independently fallible.
type ProviderGateway interface {
	// Providers returns configured provider names in configuration order.
	Providers() []string
	// Currency returns the wholesale rate currency of a provider.
	Currency(provider string) (string, error)
	// Services lists the provider's catalog. A provider with no API key
	// configured yields an empty list, not an error.
	Services(ctx context.Context, provider string) ([]domain.Service, error)
	PlaceOrder(ctx context.Context, provider string, req PlaceOrderRequest) (*PlaceOrderResult, error)
	OrderStatus(ctx context.Context, provider, providerOrderID string) (*OrderStatusResult, error)
	// Refill requests a refill and returns the provider's refill ID.
	Refill(ctx context.Context, provider, providerOrderID string) (string, error)
	Cancel(ctx context.Context, provider, providerOrderID string) (bool, error)
	Balance(ctx context.Context, provider string) (*ProviderBalance, error)
}
