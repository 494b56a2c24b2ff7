package domain

import "github.com/shopspring/decimal"

// Service is a catalog entry fetched live from an upstream provider.
// It is never persisted; it exists only for the lifetime of the request
// that fetched it.
type Service struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Type     string `json:"type"`
	// WholesaleRate is the provider's price per 1000 units, expressed in
	// Currency (which may differ from the retail currency).
	WholesaleRate decimal.Decimal `json:"wholesale_rate"`
	Currency      string          `json:"currency"`
	Min           int             `json:"min"`
	Max           int             `json:"max"`
	Refill        bool            `json:"refill"`
	Dripfeed      bool            `json:"dripfeed"`
	Cancel        bool            `json:"cancel"`
}
