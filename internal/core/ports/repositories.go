package ports

import (
	"context"
	"errors"
	"time"

	"boostgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepository defines persistence operations for user accounts and their
// wallet balances.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	// Debit subtracts amount from the user's balance as a single
	// conditional update. It returns false without mutating anything when
	// the balance is insufficient.
	Debit(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (bool, error)
	// Credit adds amount to the user's balance unconditionally.
	Credit(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error
	List(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error
}

// OrderRepository defines persistence operations for placed orders.
type OrderRepository interface {
	Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, startCount, remains int) error
}

// TransactionRepository defines persistence for the append-only ledger.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error
	// FailPendingOrder marks the user's pending order entry for the given
	// reference as failed; used when a debit is reversed.
	FailPendingOrder(ctx context.Context, tx pgx.Tx, userID uuid.UUID, reference string) error
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Transaction, int64, error)
}

// SettingsRepository defines persistence for flat admin key-value settings.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error) // "" when unset
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

// DepositRepository defines persistence for funding requests.
type DepositRepository interface {
	Create(ctx context.Context, dep *domain.Deposit) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deposit, error)
	ListPending(ctx context.Context) ([]domain.Deposit, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Deposit, error)
	// Resolve transitions a pending deposit to approved/rejected. Returns
	// false if the deposit was not pending (already resolved).
	Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.DepositStatus) (bool, error)
}

// ErrDuplicateIntent reports that an active intent already exists for the
// same user and reference. Refunded and reconciled intents do not collide,
// so a failed reference may be retried.
var ErrDuplicateIntent = errors.New("active settlement intent already exists")

// SettlementIntentRepository defines persistence for settlement intents.
type SettlementIntentRepository interface {
	// Create returns ErrDuplicateIntent when another active intent holds
	// the same (user, reference) pair.
	Create(ctx context.Context, tx pgx.Tx, intent *domain.SettlementIntent) error
	// Transition moves an intent from one state to another. Returns false
	// when the intent was not in the expected state, which callers use to
	// guarantee exactly-once refunds.
	Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.IntentState) (bool, error)
	// ListStuck returns intents still debited whose last update is older
	// than the cutoff: orphaned debits awaiting a reconciliation refund.
	ListStuck(ctx context.Context, olderThan time.Time) ([]domain.SettlementIntent, error)
}

// IdempotencyRepository defines the durable idempotency log (DB layer).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
