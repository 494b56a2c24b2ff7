package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
	"boostgate/pkg/apperror"
)

type depositService struct {
	db       ports.DBTransactor
	deposits ports.DepositRepository
	users    ports.UserRepository
	txns     ports.TransactionRepository
	settings ports.SettingsRepository
	log      zerolog.Logger
}

func NewDepositService(
	db ports.DBTransactor,
	deposits ports.DepositRepository,
	users ports.UserRepository,
	txns ports.TransactionRepository,
	settings ports.SettingsRepository,
	log zerolog.Logger,
) ports.DepositService {
	return &depositService{
		db:       db,
		deposits: deposits,
		users:    users,
		txns:     txns,
		settings: settings,
		log:      log.With().Str("component", "deposits").Logger(),
	}
}

func (s *depositService) Initiate(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, method, txRef string) (*ports.DepositInstructions, error) {
	if !amount.IsPositive() {
		return nil, apperror.Validation("amount must be positive")
	}
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		return nil, apperror.Validation("method is required")
	}

	address, err := s.settings.Get(ctx, domain.SettingWalletAddrPrefix+method)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if address == "" {
		return nil, apperror.Validation(fmt.Sprintf("deposit method %q is not available", method))
	}

	raw, err := s.settings.Get(ctx, domain.SettingCryptoGasFee)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	gasPct := decimal.Zero
	if raw != "" {
		if gasPct, err = decimal.NewFromString(raw); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("setting %s: %w", domain.SettingCryptoGasFee, err))
		}
	}
	gasFee := amount.Mul(gasPct).Div(decimal.NewFromInt(100)).Round(2)

	now := time.Now().UTC()
	dep := &domain.Deposit{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		GasFee:    gasFee,
		Method:    method,
		Address:   address,
		TxRef:     txRef,
		Status:    domain.DepositStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.deposits.Create(ctx, dep); err != nil {
		return nil, apperror.InternalError(err)
	}

	return &ports.DepositInstructions{
		DepositID: dep.ID,
		Address:   address,
		Amount:    amount,
		GasFee:    gasFee,
		Total:     amount.Add(gasFee),
	}, nil
}

func (s *depositService) ListOwn(ctx context.Context, userID uuid.UUID) ([]domain.Deposit, error) {
	return s.deposits.ListByUser(ctx, userID)
}

// Approve credits the wallet and writes the ledger entry in one transaction
// with the status flip. The conditional resolve makes double approval a
// no-op error instead of a double credit.
func (s *depositService) Approve(ctx context.Context, depositID uuid.UUID) (*domain.Deposit, error) {
	dep, err := s.deposits.GetByID(ctx, depositID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if dep == nil {
		return nil, apperror.ErrNotFound("deposit")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	defer tx.Rollback(ctx)

	ok, err := s.deposits.Resolve(ctx, tx, depositID, domain.DepositStatusApproved)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !ok {
		return nil, apperror.ErrDepositNotPending()
	}
	if err := s.users.Credit(ctx, tx, dep.UserID, dep.Amount); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := s.txns.Create(ctx, tx, &domain.Transaction{
		ID:          uuid.New(),
		UserID:      dep.UserID,
		Type:        domain.TransactionTypeDeposit,
		Amount:      dep.Amount,
		Status:      domain.TransactionStatusCompleted,
		Description: fmt.Sprintf("%s deposit", dep.Method),
		Reference:   dep.ID.String(),
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(err)
	}

	dep.Status = domain.DepositStatusApproved
	s.log.Info().
		Str("deposit_id", dep.ID.String()).
		Str("user_id", dep.UserID.String()).
		Str("amount", dep.Amount.String()).
		Msg("deposit approved")
	return dep, nil
}

func (s *depositService) Reject(ctx context.Context, depositID uuid.UUID) (*domain.Deposit, error) {
	dep, err := s.deposits.GetByID(ctx, depositID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if dep == nil {
		return nil, apperror.ErrNotFound("deposit")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	defer tx.Rollback(ctx)

	ok, err := s.deposits.Resolve(ctx, tx, depositID, domain.DepositStatusRejected)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !ok {
		return nil, apperror.ErrDepositNotPending()
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(err)
	}

	dep.Status = domain.DepositStatusRejected
	return dep, nil
}
