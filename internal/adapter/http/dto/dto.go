// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"github.com/shopspring/decimal"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
	"boostgate/internal/core/pricing"
)

// --- Auth ---

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type SessionResponse struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	Balance string `json:"balance"`
}

// --- Catalog ---

type QuoteRequest struct {
	Provider  string `json:"provider" binding:"required"`
	ServiceID string `json:"service_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// QuoteResponse exposes the full staged breakdown, so the client can show
// the user exactly what they will be charged. Monetary fields render with
// Money, so "6921.60" never degrades to "6921.6" on the wire.
type QuoteResponse struct {
	Provider  string `json:"provider"`
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
	APICost   string `json:"api_cost"`
	Profit    string `json:"profit"`
	Subtotal  string `json:"subtotal"`
	Tax       string `json:"tax"`
	Total     string `json:"total"`
}

func NewQuoteResponse(provider, serviceID string, quantity int, q pricing.Quote) QuoteResponse {
	return QuoteResponse{
		Provider:  provider,
		ServiceID: serviceID,
		Quantity:  quantity,
		APICost:   Money(q.APICost),
		Profit:    Money(q.ProfitAmount),
		Subtotal:  Money(q.Subtotal),
		Tax:       Money(q.TaxAmount),
		Total:     Money(q.FinalPrice),
	}
}

// Money renders a monetary amount with exactly two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ServiceResponse is a catalog entry with its retail price rendered for
// display.
type ServiceResponse struct {
	domain.Service
	RetailPerK string `json:"retail_per_k"`
}

func NewServiceListResponse(services []ports.PricedService) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, ServiceResponse{Service: s.Service, RetailPerK: Money(s.RetailPerK)})
	}
	return out
}

// --- Orders ---

type DripfeedRequest struct {
	Runs     int `json:"runs" binding:"required"`
	Interval int `json:"interval" binding:"required"`
}

type PlaceOrderRequest struct {
	Provider    string           `json:"provider" binding:"required"`
	ServiceID   string           `json:"service_id" binding:"required"`
	Link        string           `json:"link" binding:"required"`
	Quantity    int              `json:"quantity" binding:"required"`
	ReferenceID string           `json:"reference_id" binding:"required"`
	Dripfeed    *DripfeedRequest `json:"dripfeed,omitempty"`
}

// --- Deposits ---

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method" binding:"required"`
	TxRef  string          `json:"tx_ref"`
}

// DepositInstructionsResponse tells the user where and how much to pay.
type DepositInstructionsResponse struct {
	DepositID string `json:"deposit_id"`
	Address   string `json:"address"`
	Amount    string `json:"amount"`
	GasFee    string `json:"gas_fee"`
	Total     string `json:"total"`
}

func NewDepositInstructionsResponse(instr *ports.DepositInstructions) DepositInstructionsResponse {
	return DepositInstructionsResponse{
		DepositID: instr.DepositID.String(),
		Address:   instr.Address,
		Amount:    Money(instr.Amount),
		GasFee:    Money(instr.GasFee),
		Total:     Money(instr.Total),
	}
}

// --- Admin ---

type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

type BanRequest struct {
	Banned *bool `json:"banned" binding:"required"`
}

// --- Shared ---

// ListResponse wraps a page of results with its total count.
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
}

func NewListResponse(items interface{}, total int64, page int) ListResponse {
	return ListResponse{Items: items, Total: total, Page: page}
}

// UserResponse hides the password hash.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Balance   string `json:"balance"`
	IsAdmin   bool   `json:"is_admin"`
	Banned    bool   `json:"banned"`
	CreatedAt string `json:"created_at"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Balance:   Money(u.Balance),
		IsAdmin:   u.IsAdmin,
		Banned:    u.Banned,
		CreatedAt: u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
