package postgres

import (
	"context"
	"fmt"

	"boostgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create appends a ledger entry within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, user_id, type, amount, status, description, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.UserID, t.Type, t.Amount, t.Status, t.Description, t.Reference, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// UpdateStatus moves a ledger entry to a new status. Amounts are immutable;
// status is the only field that ever changes.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	tag, err := tx.Exec(ctx,
		`UPDATE transactions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transaction status: transaction not found: %s", id)
	}
	return nil
}

// FailPendingOrder marks the user's pending order entry for a reference as
// failed. Used by the reconciliation sweep, which only knows the reference.
func (r *TransactionRepo) FailPendingOrder(ctx context.Context, tx pgx.Tx, userID uuid.UUID, reference string) error {
	_, err := tx.Exec(ctx,
		`UPDATE transactions SET status = $1
		 WHERE user_id = $2 AND reference = $3 AND type = $4 AND status = $5`,
		domain.TransactionStatusFailed, userID, reference,
		domain.TransactionTypeOrder, domain.TransactionStatusPending,
	)
	if err != nil {
		return fmt.Errorf("fail pending order transaction: %w", err)
	}
	return nil
}

// ListByUser returns a page of the user's ledger, newest first.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Transaction, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := `SELECT id, user_id, type, amount, status, description, reference, created_at
		FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Status,
			&t.Description, &t.Reference, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, total, rows.Err()
}
