package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
	"boostgate/internal/core/ports/mocks"
	"boostgate/pkg/apperror"
)

type depositFixture struct {
	svc      ports.DepositService
	db       *mocks.MockDBTransactor
	deposits *mocks.MockDepositRepository
	users    *mocks.MockUserRepository
	txns     *mocks.MockTransactionRepository
	settings *mocks.MockSettingsRepository
}

func setupDeposits(t *testing.T) *depositFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &depositFixture{
		db:       mocks.NewMockDBTransactor(ctrl),
		deposits: mocks.NewMockDepositRepository(ctrl),
		users:    mocks.NewMockUserRepository(ctrl),
		txns:     mocks.NewMockTransactionRepository(ctrl),
		settings: mocks.NewMockSettingsRepository(ctrl),
	}
	f.svc = NewDepositService(f.db, f.deposits, f.users, f.txns, f.settings, zerolog.Nop())
	return f
}

func TestDeposits_Initiate(t *testing.T) {
	f := setupDeposits(t)
	ctx := context.Background()
	userID := uuid.New()

	f.settings.EXPECT().Get(ctx, "wallet_address_btc").Return("bc1qexampleaddress", nil)
	f.settings.EXPECT().Get(ctx, domain.SettingCryptoGasFee).Return("2.5", nil)
	f.deposits.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, dep *domain.Deposit) error {
			assert.Equal(t, domain.DepositStatusPending, dep.Status)
			assert.Equal(t, "btc", dep.Method)
			assert.Equal(t, "100", dep.Amount.String())
			assert.Equal(t, "2.5", dep.GasFee.String())
			return nil
		})

	instr, err := f.svc.Initiate(ctx, userID, decimal.RequireFromString("100"), " BTC ", "tx-abc")
	require.NoError(t, err)
	assert.Equal(t, "bc1qexampleaddress", instr.Address)
	assert.Equal(t, "102.5", instr.Total.String())
}

func TestDeposits_Initiate_UnknownMethod(t *testing.T) {
	f := setupDeposits(t)
	ctx := context.Background()

	f.settings.EXPECT().Get(ctx, "wallet_address_doge").Return("", nil)

	_, err := f.svc.Initiate(ctx, uuid.New(), decimal.RequireFromString("50"), "doge", "")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VAL_001", appErr.Code)
}

func TestDeposits_Initiate_NonPositiveAmount(t *testing.T) {
	f := setupDeposits(t)
	ctx := context.Background()

	_, err := f.svc.Initiate(ctx, uuid.New(), decimal.Zero, "btc", "")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VAL_001", appErr.Code)
}

func TestDeposits_Approve_CreditsOnce(t *testing.T) {
	f := setupDeposits(t)
	ctx := context.Background()
	userID := uuid.New()
	depositID := uuid.New()
	amount := decimal.RequireFromString("250.00")

	dep := &domain.Deposit{
		ID:     depositID,
		UserID: userID,
		Amount: amount,
		Method: "usdt",
		Status: domain.DepositStatusPending,
	}

	f.deposits.EXPECT().GetByID(ctx, depositID).Return(dep, nil)
	tx := &mocks.TxStub{}
	f.db.EXPECT().Begin(ctx).Return(tx, nil)
	f.deposits.EXPECT().Resolve(ctx, tx, depositID, domain.DepositStatusApproved).Return(true, nil)
	f.users.EXPECT().Credit(ctx, tx, userID, amount).Return(nil)
	f.txns.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ interface{}, txn *domain.Transaction) error {
			assert.Equal(t, domain.TransactionTypeDeposit, txn.Type)
			assert.Equal(t, depositID.String(), txn.Reference)
			return nil
		})

	approved, err := f.svc.Approve(ctx, depositID)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusApproved, approved.Status)
	assert.True(t, tx.CommitCalled)
}

func TestDeposits_Approve_AlreadyResolved(t *testing.T) {
	f := setupDeposits(t)
	ctx := context.Background()
	depositID := uuid.New()

	f.deposits.EXPECT().GetByID(ctx, depositID).Return(&domain.Deposit{
		ID:     depositID,
		Status: domain.DepositStatusApproved,
	}, nil)
	tx := &mocks.TxStub{}
	f.db.EXPECT().Begin(ctx).Return(tx, nil)
	// Resolve conditional on pending; second approval finds nothing to flip.
	f.deposits.EXPECT().Resolve(ctx, tx, depositID, domain.DepositStatusApproved).Return(false, nil)

	_, err := f.svc.Approve(ctx, depositID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ORD_004", appErr.Code)
	assert.False(t, tx.CommitCalled)
}

func TestDeposits_Reject(t *testing.T) {
	f := setupDeposits(t)
	ctx := context.Background()
	depositID := uuid.New()

	f.deposits.EXPECT().GetByID(ctx, depositID).Return(&domain.Deposit{
		ID:     depositID,
		Status: domain.DepositStatusPending,
	}, nil)
	tx := &mocks.TxStub{}
	f.db.EXPECT().Begin(ctx).Return(tx, nil)
	f.deposits.EXPECT().Resolve(ctx, tx, depositID, domain.DepositStatusRejected).Return(true, nil)
	// No credit on rejection.

	rejected, err := f.svc.Reject(ctx, depositID)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusRejected, rejected.Status)
	assert.True(t, tx.CommitCalled)
}

func TestDeposits_Approve_NotFound(t *testing.T) {
	f := setupDeposits(t)
	ctx := context.Background()
	depositID := uuid.New()

	f.deposits.EXPECT().GetByID(ctx, depositID).Return(nil, nil)

	_, err := f.svc.Approve(ctx, depositID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ORD_005", appErr.Code)
}
