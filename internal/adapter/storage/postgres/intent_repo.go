package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IntentRepo implements ports.SettlementIntentRepository.
type IntentRepo struct {
	pool Pool
}

// NewIntentRepo creates a new IntentRepo.
func NewIntentRepo(pool Pool) *IntentRepo {
	return &IntentRepo{pool: pool}
}

// Create inserts an intent in the same database transaction as the debit it
// records, so the two become durable together.
//
// A partial unique index on (user_id, reference_id) over the debited and
// placed states rejects a second concurrent attempt at the same reference
// before any money moves; losers surface ports.ErrDuplicateIntent.
func (r *IntentRepo) Create(ctx context.Context, tx pgx.Tx, in *domain.SettlementIntent) error {
	query := `INSERT INTO settlement_intents
		(id, user_id, reference_id, provider, service_id, link, quantity, amount, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		in.ID, in.UserID, in.ReferenceID, in.Provider, in.ServiceID,
		in.Link, in.Quantity, in.Amount, in.State, in.CreatedAt, in.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ports.ErrDuplicateIntent
		}
		return fmt.Errorf("insert settlement intent: %w", err)
	}
	return nil
}

// Transition moves an intent between states only if it is still in the
// expected one. The affected-row check is what makes the in-line refund and
// the reconciliation sweep mutually exclusive.
func (r *IntentRepo) Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.IntentState) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE settlement_intents SET state = $1, updated_at = NOW() WHERE id = $2 AND state = $3`,
		to, id, from)
	if err != nil {
		return false, fmt.Errorf("transition settlement intent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListStuck returns intents still debited whose last update predates the
// cutoff: debits whose settlement never resolved.
func (r *IntentRepo) ListStuck(ctx context.Context, olderThan time.Time) ([]domain.SettlementIntent, error) {
	query := `SELECT id, user_id, reference_id, provider, service_id, link, quantity, amount, state, created_at, updated_at
		FROM settlement_intents WHERE state = $1 AND updated_at < $2 ORDER BY updated_at`

	rows, err := r.pool.Query(ctx, query, domain.IntentStateDebited, olderThan)
	if err != nil {
		return nil, fmt.Errorf("list stuck intents: %w", err)
	}
	defer rows.Close()

	var intents []domain.SettlementIntent
	for rows.Next() {
		var in domain.SettlementIntent
		if err := rows.Scan(&in.ID, &in.UserID, &in.ReferenceID, &in.Provider, &in.ServiceID,
			&in.Link, &in.Quantity, &in.Amount, &in.State, &in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan settlement intent: %w", err)
		}
		intents = append(intents, in)
	}
	return intents, rows.Err()
}
