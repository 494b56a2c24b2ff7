package integration

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"boostgate/internal/core/domain"
	"boostgate/internal/service"
	"boostgate/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentOrders_NoOverspend fires concurrent placements against a
// wallet funded for exactly half of them. The conditional debit must let
// exactly that half through and never drive the balance negative.
func TestConcurrentOrders_NoOverspend(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Each 1000-unit order of service 101 costs 6229.44. Fund 5 of 10.
	price := decimal.RequireFromString("6229.44")
	userID, token := app.fundedUser(t, "spender@example.com", price.Mul(decimal.NewFromInt(5)).String())

	concurrency := 10
	var wg sync.WaitGroup
	var successCount, insufficientCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			resp, _ := app.post(t, "/api/v1/orders", token, map[string]interface{}{
				"provider":     "panelone",
				"service_id":   "101",
				"link":         "https://example.com/p/abc",
				"quantity":     1000,
				"reference_id": fmt.Sprintf("burst-%d", idx),
			})
			switch resp.StatusCode {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusPaymentRequired:
				insufficientCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	t.Logf("burst: %d placed, %d rejected for balance", successCount.Load(), insufficientCount.Load())

	assert.Equal(t, int64(5), successCount.Load(), "exactly the funded orders should settle")
	assert.Equal(t, int64(5), insufficientCount.Load())

	balance, err := app.users.GetBalance(t.Context(), userID)
	require.NoError(t, err)
	assert.True(t, balance.GreaterThanOrEqual(decimal.Zero), "balance must never go negative, got %s", balance)
	assert.Equal(t, "0.00", balance.StringFixed(2))
	assert.Equal(t, 5, app.orders.count())
}

// TestConcurrentSameReference replays one reference from many goroutines at
// once. The active-intent uniqueness check lets exactly one attempt debit;
// the rest either replay the winner's order or are turned away with a
// conflict, and only one debit ever lands.
func TestConcurrentSameReference(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	seed := decimal.RequireFromString("200000")
	userID, token := app.fundedUser(t, "racer@example.com", seed.String())

	concurrency := 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	orderIDs := make(map[string]struct{})
	var conflicts atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, body := app.post(t, "/api/v1/orders", token, map[string]interface{}{
				"provider":     "panelone",
				"service_id":   "101",
				"link":         "https://example.com/p/abc",
				"quantity":     1000,
				"reference_id": "same-ref-001",
			})
			switch resp.StatusCode {
			case http.StatusCreated:
				id := body["data"].(map[string]interface{})["id"].(string)
				mu.Lock()
				orderIDs[id] = struct{}{}
				mu.Unlock()
			case http.StatusConflict:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	t.Logf("same-reference race: %d unique orders, %d conflicts", len(orderIDs), conflicts.Load())

	assert.Len(t, orderIDs, 1, "every accepted response must replay the one winning order")
	assert.Equal(t, 1, app.orders.count())

	price := decimal.RequireFromString("6229.44")
	balance, err := app.users.GetBalance(t.Context(), userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(seed.Sub(price)),
		"balance %s must reflect exactly one debit", balance)
}

// TestReconciliationSweep_RefundsOrphanExactlyOnce builds the state a crash
// leaves behind, a debit with its intent stuck in debited, and verifies the
// sweep refunds it once and only once.
func TestReconciliationSweep_RefundsOrphanExactlyOnce(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	ctx := t.Context()
	userID, _ := app.fundedUser(t, "orphan@example.com", "10000")

	amount := decimal.RequireFromString("6229.44")
	ok, err := app.users.Debit(ctx, nil, userID, amount)
	require.NoError(t, err)
	require.True(t, ok)

	intent := &domain.SettlementIntent{
		ID:          uuid.New(),
		UserID:      userID,
		ReferenceID: "orphan-001",
		Provider:    "panelone",
		ServiceID:   "101",
		Link:        "https://example.com/p/abc",
		Quantity:    1000,
		Amount:      amount,
		State:       domain.IntentStateDebited,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, app.intents.Create(ctx, nil, intent))
	require.NoError(t, app.txns.Create(ctx, nil, &domain.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      domain.TransactionTypeOrder,
		Amount:    amount,
		Status:    domain.TransactionStatusPending,
		Reference: "orphan-001",
	}))
	app.intents.backdate(time.Hour)

	sweeper := service.NewReconciliationService(
		newInMemoryTransactor(), app.users, app.txns, app.intents,
		15*time.Minute, logger.New("error", false),
	)

	refunded, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, refunded)

	balance, err := app.users.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "10000.00", balance.StringFixed(2))

	reconciled := app.intents.byState(domain.IntentStateReconciled)
	require.Len(t, reconciled, 1)

	// The pending ledger entry is failed and a refund entry exists.
	entries := app.txns.byReference("orphan-001")
	var sawFailed, sawRefund bool
	for _, e := range entries {
		if e.Type == domain.TransactionTypeOrder {
			assert.Equal(t, domain.TransactionStatusFailed, e.Status)
			sawFailed = true
		}
		if e.Type == domain.TransactionTypeRefund {
			sawRefund = true
		}
	}
	assert.True(t, sawFailed)
	assert.True(t, sawRefund)

	// A second pass finds nothing to do.
	refunded, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, refunded)

	balance, err = app.users.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "10000.00", balance.StringFixed(2))
}

// TestSweepIgnoresFreshIntents ensures in-flight settlements inside the
// cutoff window are left alone.
func TestSweepIgnoresFreshIntents(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	ctx := t.Context()
	userID, _ := app.fundedUser(t, "inflight@example.com", "10000")

	amount := decimal.RequireFromString("6229.44")
	ok, err := app.users.Debit(ctx, nil, userID, amount)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, app.intents.Create(ctx, nil, &domain.SettlementIntent{
		ID:          uuid.New(),
		UserID:      userID,
		ReferenceID: "fresh-001",
		Provider:    "panelone",
		Amount:      amount,
		State:       domain.IntentStateDebited,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}))

	sweeper := service.NewReconciliationService(
		newInMemoryTransactor(), app.users, app.txns, app.intents,
		15*time.Minute, logger.New("error", false),
	)

	refunded, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, refunded)

	// Still debited, still awaiting its provider call.
	balance, err := app.users.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "3770.56", balance.StringFixed(2))
	assert.Len(t, app.intents.byState(domain.IntentStateDebited), 1)
}
