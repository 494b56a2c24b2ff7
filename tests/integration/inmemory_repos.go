package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("user not found")
	}
	return u.Balance, nil
}

// Debit is conditional and mutex-guarded, matching the single UPDATE with a
// balance guard the real repo issues.
func (r *inMemoryUserRepo) Debit(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return false, fmt.Errorf("user not found")
	}
	if u.Balance.LessThan(amount) {
		return false, nil
	}
	u.Balance = u.Balance.Sub(amount)
	return true, nil
}

func (r *inMemoryUserRepo) Credit(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.Balance = u.Balance.Add(amount)
	return nil
}

func (r *inMemoryUserRepo) List(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.User
	for _, u := range r.users {
		result = append(result, *u)
	}
	return paginate(result, page, pageSize)
}

func (r *inMemoryUserRepo) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.Banned = banned
	return nil
}

// setAdmin flips the admin flag directly; test seeding only.
func (r *inMemoryUserRepo) setAdmin(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.IsAdmin = true
	}
}

// setBalance seeds a wallet balance directly; test seeding only.
func (r *inMemoryUserRepo) setBalance(id uuid.UUID, balance decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Balance = balance
	}
}

// --- In-Memory Order Repo ---

type inMemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *inMemoryOrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *inMemoryOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *inMemoryOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			result = append(result, *o)
		}
	}
	return paginate(result, page, pageSize)
}

func (r *inMemoryOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, startCount, remains int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order not found")
	}
	o.Status = status
	o.StartCount = startCount
	o.Remains = remains
	o.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryOrderRepo) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu   sync.RWMutex
	txns map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{txns: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.txns[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txns[id]
	if !ok {
		return fmt.Errorf("transaction not found")
	}
	t.Status = status
	return nil
}

func (r *inMemoryTransactionRepo) FailPendingOrder(ctx context.Context, tx pgx.Tx, userID uuid.UUID, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txns {
		if t.UserID == userID && t.Reference == reference &&
			t.Type == domain.TransactionTypeOrder && t.Status == domain.TransactionStatusPending {
			t.Status = domain.TransactionStatusFailed
		}
	}
	return nil
}

func (r *inMemoryTransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.txns {
		if t.UserID == userID {
			result = append(result, *t)
		}
	}
	return paginate(result, page, pageSize)
}

func (r *inMemoryTransactionRepo) byReference(reference string) []domain.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.txns {
		if t.Reference == reference {
			result = append(result, *t)
		}
	}
	return result
}

// --- In-Memory Settings Repo ---

type inMemorySettingsRepo struct {
	mu     sync.RWMutex
	values map[string]string
}

func newInMemorySettingsRepo() *inMemorySettingsRepo {
	return &inMemorySettingsRepo{values: make(map[string]string)}
}

func (r *inMemorySettingsRepo) Get(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values[key], nil
}

func (r *inMemorySettingsRepo) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]string)
	for _, k := range keys {
		if v, ok := r.values[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

func (r *inMemorySettingsRepo) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

func (r *inMemorySettingsRepo) All(ctx context.Context) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]string, len(r.values))
	for k, v := range r.values {
		result[k] = v
	}
	return result, nil
}

// --- In-Memory Deposit Repo ---

type inMemoryDepositRepo struct {
	mu       sync.RWMutex
	deposits map[uuid.UUID]*domain.Deposit
}

func newInMemoryDepositRepo() *inMemoryDepositRepo {
	return &inMemoryDepositRepo{deposits: make(map[uuid.UUID]*domain.Deposit)}
}

func (r *inMemoryDepositRepo) Create(ctx context.Context, dep *domain.Deposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *dep
	r.deposits[dep.ID] = &cp
	return nil
}

func (r *inMemoryDepositRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.deposits[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *inMemoryDepositRepo) ListPending(ctx context.Context) ([]domain.Deposit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Deposit
	for _, d := range r.deposits {
		if d.Status == domain.DepositStatusPending {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (r *inMemoryDepositRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Deposit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Deposit
	for _, d := range r.deposits {
		if d.UserID == userID {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (r *inMemoryDepositRepo) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.DepositStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deposits[id]
	if !ok {
		return false, fmt.Errorf("deposit not found")
	}
	if d.Status != domain.DepositStatusPending {
		return false, nil
	}
	d.Status = status
	d.UpdatedAt = time.Now()
	return true, nil
}

// --- In-Memory Settlement Intent Repo ---

type inMemoryIntentRepo struct {
	mu      sync.RWMutex
	intents map[uuid.UUID]*domain.SettlementIntent
}

func newInMemoryIntentRepo() *inMemoryIntentRepo {
	return &inMemoryIntentRepo{intents: make(map[uuid.UUID]*domain.SettlementIntent)}
}

// Create rejects a second active intent for the same user and reference,
// mirroring the partial unique index on the real table.
func (r *inMemoryIntentRepo) Create(ctx context.Context, tx pgx.Tx, intent *domain.SettlementIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.intents {
		if in.UserID == intent.UserID && in.ReferenceID == intent.ReferenceID &&
			(in.State == domain.IntentStateDebited || in.State == domain.IntentStatePlaced) {
			return ports.ErrDuplicateIntent
		}
	}
	cp := *intent
	r.intents[intent.ID] = &cp
	return nil
}

// Transition is the conditional state move the whole refund exactly-once
// guarantee hangs on, so the in-memory version keeps it atomic too.
func (r *inMemoryIntentRepo) Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.IntentState) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.intents[id]
	if !ok {
		return false, fmt.Errorf("intent not found")
	}
	if in.State != from {
		return false, nil
	}
	in.State = to
	in.UpdatedAt = time.Now()
	return true, nil
}

func (r *inMemoryIntentRepo) ListStuck(ctx context.Context, olderThan time.Time) ([]domain.SettlementIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.SettlementIntent
	for _, in := range r.intents {
		if in.State == domain.IntentStateDebited && in.UpdatedAt.Before(olderThan) {
			result = append(result, *in)
		}
	}
	return result, nil
}

func (r *inMemoryIntentRepo) byState(state domain.IntentState) []domain.SettlementIntent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.SettlementIntent
	for _, in := range r.intents {
		if in.State == state {
			result = append(result, *in)
		}
	}
	return result
}

// backdate shifts all intents' UpdatedAt into the past so the sweep sees
// them as stuck; test seeding only.
func (r *inMemoryIntentRepo) backdate(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.intents {
		in.UpdatedAt = in.UpdatedAt.Add(-d)
	}
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu   sync.RWMutex
	logs map[string]*domain.IdempotencyLog
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{logs: make(map[string]*domain.IdempotencyLog)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *log
	r.logs[log.Key] = &cp
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.logs[key]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }

// --- helpers ---

func paginate[T any](items []T, page, pageSize int) ([]T, int64, error) {
	total := int64(len(items))
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}, total, nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, nil
}
