package postgres

import (
	"context"
	"errors"
	"fmt"

	"boostgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DepositRepo implements ports.DepositRepository.
type DepositRepo struct {
	pool Pool
}

// NewDepositRepo creates a new DepositRepo.
func NewDepositRepo(pool Pool) *DepositRepo {
	return &DepositRepo{pool: pool}
}

const depositColumns = `id, user_id, amount, gas_fee, method, address, tx_ref, status, created_at, updated_at`

// Create inserts a pending deposit.
func (r *DepositRepo) Create(ctx context.Context, d *domain.Deposit) error {
	query := `INSERT INTO deposits (` + depositColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.UserID, d.Amount, d.GasFee, d.Method, d.Address,
		d.TxRef, d.Status, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert deposit: %w", err)
	}
	return nil
}

// GetByID fetches a deposit by UUID. Returns nil, nil when absent.
func (r *DepositRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE id = $1`

	d := &domain.Deposit{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.UserID, &d.Amount, &d.GasFee, &d.Method, &d.Address,
		&d.TxRef, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get deposit: %w", err)
	}
	return d, nil
}

// ListPending returns all unresolved deposits, oldest first.
func (r *DepositRepo) ListPending(ctx context.Context) ([]domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE status = $1 ORDER BY created_at`
	return r.list(ctx, query, domain.DepositStatusPending)
}

// ListByUser returns the user's deposits, newest first.
func (r *DepositRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// Resolve transitions a pending deposit. Returns false when the deposit was
// already resolved, so approval can never credit twice.
func (r *DepositRepo) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.DepositStatus) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE deposits SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		status, id, domain.DepositStatusPending)
	if err != nil {
		return false, fmt.Errorf("resolve deposit: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *DepositRepo) list(ctx context.Context, query string, arg any) ([]domain.Deposit, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	defer rows.Close()

	var deps []domain.Deposit
	for rows.Next() {
		var d domain.Deposit
		if err := rows.Scan(&d.ID, &d.UserID, &d.Amount, &d.GasFee, &d.Method,
			&d.Address, &d.TxRef, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}
