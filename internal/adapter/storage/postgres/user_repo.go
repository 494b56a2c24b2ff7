package postgres

import (
	"context"
	"errors"
	"fmt"

	"boostgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, email, password_hash, balance, is_admin, banned, created_at, updated_at`

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, email, password_hash, balance, is_admin, banned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.Balance,
		u.IsAdmin, u.Banned, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by UUID. Returns nil, nil when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail fetches a user by email. Returns nil, nil when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetBalance reads the current stored balance.
func (r *UserRepo) GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, id).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// Debit subtracts amount as a single conditional update. The WHERE clause
// carries the sufficient-funds check, so two concurrent debits can never
// drive the balance negative.
func (r *UserRepo) Debit(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	query := `UPDATE users SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1`

	tag, err := tx.Exec(ctx, query, amount, id)
	if err != nil {
		return false, fmt.Errorf("debit user: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Credit adds amount to the user's balance.
func (r *UserRepo) Credit(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE users SET balance = balance + $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("credit user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("credit user: user not found: %s", id)
	}
	return nil
}

// List returns a page of users ordered by creation time.
func (r *UserRepo) List(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Balance,
			&u.IsAdmin, &u.Banned, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// SetBanned flips the ban flag.
func (r *UserRepo) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET banned = $1, updated_at = NOW() WHERE id = $2`, banned, id)
	if err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set banned: user not found: %s", id)
	}
	return nil
}

func (r *UserRepo) scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Balance,
		&u.IsAdmin, &u.Banned, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
