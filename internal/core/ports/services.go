package ports

import (
	"context"
	"time"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Session infrastructure ---

// TokenService issues and validates session tokens.
type TokenService interface {
	// Generate returns a signed token plus the token ID that keys the
	// server-side session record.
	Generate(userID uuid.UUID) (token, tokenID string, expiresAt time.Time, err error)
	Validate(token string) (*TokenClaims, error)
}

// TokenClaims holds the parsed token claims.
type TokenClaims struct {
	UserID  uuid.UUID
	TokenID string
}

// SessionStore holds server-side session records keyed by token ID.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, tokenID string) (*domain.Session, error) // nil when absent
	Delete(ctx context.Context, tokenID string) error
	UpdateBalance(ctx context.Context, tokenID string, balance decimal.Decimal) error
}

// HashService handles password hashing.
type HashService interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// IdempotencyCache is the fast-path idempotency layer.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil when absent
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// AttemptLimiter counts attempts per identity+action in fixed windows,
// shared across instances and restarts.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

// --- Business services ---

// PlaceOrderCommand is a validated order submission.
type PlaceOrderCommand struct {
	UserID    uuid.UUID
	Provider  string
	ServiceID string
	Link      string
	Quantity  int
	// ReferenceID is the client-generated idempotency token. Repeating it
	// returns the original result without a second debit.
	ReferenceID string
	Dripfeed    *DripfeedParams
}

// SettlementService runs the order pricing and wallet-settlement pipeline.
type SettlementService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error)
}

// PricedService is a catalog entry with its retail price per 1000 units.
type PricedService struct {
	domain.Service
	RetailPerK decimal.Decimal `json:"retail_per_k"`
}

// CatalogService serves the live, retail-priced service catalog.
type CatalogService interface {
	ListServices(ctx context.Context, provider string) ([]PricedService, error)
	Lookup(ctx context.Context, provider, serviceID string) (*domain.Service, error)
	// Quote prices a service for a quantity. Settlement charges through
	// this same computation, which is what guarantees display/charge parity.
	Quote(ctx context.Context, svc *domain.Service, quantity int) (pricing.Quote, error)
}

// OrderService covers order listing and post-placement actions.
type OrderService interface {
	List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Order, int64, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
	// SyncStatus polls the provider and persists the normalized status.
	SyncStatus(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
	Refill(ctx context.Context, userID, orderID uuid.UUID) (string, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
}

// DepositInstructions tell the user where and how much to pay.
type DepositInstructions struct {
	DepositID uuid.UUID       `json:"deposit_id"`
	Address   string          `json:"address"`
	Amount    decimal.Decimal `json:"amount"`
	GasFee    decimal.Decimal `json:"gas_fee"`
	Total     decimal.Decimal `json:"total"`
}

// DepositService handles wallet funding.
type DepositService interface {
	Initiate(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, method, txRef string) (*DepositInstructions, error)
	ListOwn(ctx context.Context, userID uuid.UUID) ([]domain.Deposit, error)
	// Approve credits the user's wallet and records the deposit ledger
	// entry; Reject resolves the deposit without crediting.
	Approve(ctx context.Context, depositID uuid.UUID) (*domain.Deposit, error)
	Reject(ctx context.Context, depositID uuid.UUID) (*domain.Deposit, error)
}

// AuthService is the session/user collaborator surface.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	// Login rate-limits attempts per email and returns a session token.
	Login(ctx context.Context, email, password string) (token string, expiresAt time.Time, err error)
	Logout(ctx context.Context, tokenID string) error
	// CurrentUser returns the session with a freshly cached balance.
	CurrentUser(ctx context.Context, tokenID string) (*domain.Session, error)
}

// AdminService covers settings and user management.
type AdminService interface {
	Settings(ctx context.Context) (map[string]string, error)
	UpdateSettings(ctx context.Context, values map[string]string) error
	ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	SetUserBanned(ctx context.Context, userID uuid.UUID, banned bool) error
	PendingDeposits(ctx context.Context) ([]domain.Deposit, error)
	ProviderBalances(ctx context.Context) ([]ProviderBalance, error)
}

// ReconciliationService refunds orphaned debits.
type ReconciliationService interface {
	// Sweep refunds intents stuck in the debited state past the cutoff and
	// returns how many it resolved.
	Sweep(ctx context.Context) (int, error)
}

// WalletService exposes balance and ledger reads.
type WalletService interface {
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	Transactions(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Transaction, int64, error)
}
