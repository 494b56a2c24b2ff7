package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports/mocks"
)

func setupReconcile(t *testing.T) (
	*mocks.MockDBTransactor,
	*mocks.MockUserRepository,
	*mocks.MockTransactionRepository,
	*mocks.MockSettlementIntentRepository,
	func() (int, error),
) {
	t.Helper()
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDBTransactor(ctrl)
	users := mocks.NewMockUserRepository(ctrl)
	txns := mocks.NewMockTransactionRepository(ctrl)
	intents := mocks.NewMockSettlementIntentRepository(ctrl)

	svc := NewReconciliationService(db, users, txns, intents, 15*time.Minute, zerolog.Nop())
	return db, users, txns, intents, func() (int, error) { return svc.Sweep(context.Background()) }
}

func stuckIntent(userID uuid.UUID) domain.SettlementIntent {
	return domain.SettlementIntent{
		ID:          uuid.New(),
		UserID:      userID,
		ReferenceID: "ref-orphan",
		Provider:    "panelone",
		Amount:      decimal.RequireFromString("6229.44"),
		State:       domain.IntentStateDebited,
	}
}

func TestReconcile_Sweep_RefundsOrphanedIntent(t *testing.T) {
	db, users, txns, intents, sweep := setupReconcile(t)
	userID := uuid.New()
	intent := stuckIntent(userID)

	intents.EXPECT().ListStuck(gomock.Any(), gomock.Any()).
		Return([]domain.SettlementIntent{intent}, nil)

	tx := &mocks.TxStub{}
	db.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	intents.EXPECT().Transition(gomock.Any(), tx, intent.ID, domain.IntentStateDebited, domain.IntentStateReconciled).Return(true, nil)
	users.EXPECT().Credit(gomock.Any(), tx, userID, intent.Amount).Return(nil)
	txns.EXPECT().Create(gomock.Any(), tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ interface{}, txn *domain.Transaction) error {
			assert.Equal(t, domain.TransactionTypeRefund, txn.Type)
			assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
			assert.Equal(t, "ref-orphan", txn.Reference)
			return nil
		})
	txns.EXPECT().FailPendingOrder(gomock.Any(), tx, userID, "ref-orphan").Return(nil)

	resolved, err := sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	assert.True(t, tx.CommitCalled)
}

func TestReconcile_Sweep_SkipsIntentAlreadyMoved(t *testing.T) {
	db, _, _, intents, sweep := setupReconcile(t)
	intent := stuckIntent(uuid.New())

	intents.EXPECT().ListStuck(gomock.Any(), gomock.Any()).
		Return([]domain.SettlementIntent{intent}, nil)

	tx := &mocks.TxStub{}
	db.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	// Lost the race against an in-line refund; no credit may follow.
	intents.EXPECT().Transition(gomock.Any(), tx, intent.ID, domain.IntentStateDebited, domain.IntentStateReconciled).Return(false, nil)

	resolved, err := sweep()
	require.NoError(t, err)
	assert.Equal(t, 0, resolved)
	assert.False(t, tx.CommitCalled)
}

func TestReconcile_Sweep_OneFailureDoesNotBlockRest(t *testing.T) {
	db, users, txns, intents, sweep := setupReconcile(t)
	userA := uuid.New()
	userB := uuid.New()
	intentA := stuckIntent(userA)
	intentB := stuckIntent(userB)

	intents.EXPECT().ListStuck(gomock.Any(), gomock.Any()).
		Return([]domain.SettlementIntent{intentA, intentB}, nil)

	txA := &mocks.TxStub{}
	db.EXPECT().Begin(gomock.Any()).Return(txA, nil)
	intents.EXPECT().Transition(gomock.Any(), txA, intentA.ID, domain.IntentStateDebited, domain.IntentStateReconciled).Return(true, nil)
	users.EXPECT().Credit(gomock.Any(), txA, userA, intentA.Amount).
		Return(errors.New("connection reset"))

	txB := &mocks.TxStub{}
	db.EXPECT().Begin(gomock.Any()).Return(txB, nil)
	intents.EXPECT().Transition(gomock.Any(), txB, intentB.ID, domain.IntentStateDebited, domain.IntentStateReconciled).Return(true, nil)
	users.EXPECT().Credit(gomock.Any(), txB, userB, intentB.Amount).Return(nil)
	txns.EXPECT().Create(gomock.Any(), txB, gomock.Any()).Return(nil)
	txns.EXPECT().FailPendingOrder(gomock.Any(), txB, userB, "ref-orphan").Return(nil)

	resolved, err := sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	assert.True(t, txA.RollbackCalled)
	assert.True(t, txB.CommitCalled)
}

func TestReconcile_Sweep_EmptyList(t *testing.T) {
	_, _, _, intents, sweep := setupReconcile(t)

	intents.EXPECT().ListStuck(gomock.Any(), gomock.Any()).Return(nil, nil)

	resolved, err := sweep()
	require.NoError(t, err)
	assert.Equal(t, 0, resolved)
}
