package postgres

import (
	"context"
	"errors"
	"fmt"

	"boostgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

const orderColumns = `id, user_id, provider, service_id, service_name, link, quantity,
		charge, status, provider_order_id, refillable, cancelable, start_count, remains,
		created_at, updated_at`

// Create inserts an order within a database transaction. Orders are written
// only after the provider accepted them, in the same transaction that
// completes the settlement.
func (r *OrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := tx.Exec(ctx, query,
		o.ID, o.UserID, o.Provider, o.ServiceID, o.ServiceName, o.Link, o.Quantity,
		o.Charge, o.Status, o.ProviderOrderID, o.Refillable, o.Cancelable,
		o.StartCount, o.Remains, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID fetches an order by UUID. Returns nil, nil when absent.
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o := &domain.Order{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.UserID, &o.Provider, &o.ServiceID, &o.ServiceName, &o.Link, &o.Quantity,
		&o.Charge, &o.Status, &o.ProviderOrderID, &o.Refillable, &o.Cancelable,
		&o.StartCount, &o.Remains, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListByUser returns a page of the user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Order, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Provider, &o.ServiceID, &o.ServiceName, &o.Link, &o.Quantity,
			&o.Charge, &o.Status, &o.ProviderOrderID, &o.Refillable, &o.Cancelable,
			&o.StartCount, &o.Remains, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

// UpdateStatus persists the status fields synced from the provider.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, startCount, remains int) error {
	query := `UPDATE orders SET status = $1, start_count = $2, remains = $3, updated_at = NOW()
		WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query, status, startCount, remains, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update order status: order not found: %s", id)
	}
	return nil
}
