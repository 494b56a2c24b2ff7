package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
	"boostgate/internal/metrics"
	"boostgate/pkg/apperror"
)

// idempotencyCacheTTL bounds the fast-path replay window. The durable log
// in Postgres has no expiry and answers replays past this window.
const idempotencyCacheTTL = 24 * time.Hour

type settlementService struct {
	db        ports.DBTransactor
	users     ports.UserRepository
	orders    ports.OrderRepository
	txns      ports.TransactionRepository
	intents   ports.SettlementIntentRepository
	idemLog   ports.IdempotencyRepository
	idemCache ports.IdempotencyCache
	catalog   ports.CatalogService
	gateway   ports.ProviderGateway
	log       zerolog.Logger
}

func NewSettlementService(
	db ports.DBTransactor,
	users ports.UserRepository,
	orders ports.OrderRepository,
	txns ports.TransactionRepository,
	intents ports.SettlementIntentRepository,
	idemLog ports.IdempotencyRepository,
	idemCache ports.IdempotencyCache,
	catalog ports.CatalogService,
	gateway ports.ProviderGateway,
	log zerolog.Logger,
) ports.SettlementService {
	return &settlementService{
		db:        db,
		users:     users,
		orders:    orders,
		txns:      txns,
		intents:   intents,
		idemLog:   idemLog,
		idemCache: idemCache,
		catalog:   catalog,
		gateway:   gateway,
		log:       log.With().Str("component", "settlement").Logger(),
	}
}

// PlaceOrder runs the full pipeline: idempotency replay, live catalog
// lookup, quote, conditional debit with a durable intent, provider call,
// and compensating refund on failure.
func (s *settlementService) PlaceOrder(ctx context.Context, cmd ports.PlaceOrderCommand) (*domain.Order, error) {
	start := time.Now()
	defer func() { metrics.SettlementDuration.Observe(time.Since(start).Seconds()) }()

	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	key := domain.BuildOrderKey(cmd.UserID, cmd.ReferenceID)
	if order := s.replay(ctx, key); order != nil {
		return order, nil
	}

	svc, err := s.catalog.Lookup(ctx, cmd.Provider, cmd.ServiceID)
	if err != nil {
		return nil, err
	}
	if cmd.Dripfeed != nil && !svc.Dripfeed {
		return nil, apperror.Validation("service does not support dripfeed delivery")
	}
	quote, err := s.catalog.Quote(ctx, svc, cmd.Quantity)
	if err != nil {
		return nil, err
	}

	s.preflightProviderBalance(ctx, cmd.Provider, svc, cmd.Quantity)

	intent, pendingTxn, err := s.debit(ctx, cmd, quote.FinalPrice)
	if err != nil {
		var appErr *apperror.AppError
		errors.As(err, &appErr)
		switch {
		case appErr != nil && appErr.Code == "BAL_001":
			metrics.SettlementOutcomes.WithLabelValues("insufficient_balance").Inc()
		case appErr != nil && appErr.Code == "ORD_006":
			metrics.SettlementOutcomes.WithLabelValues("duplicate_reference").Inc()
		default:
			metrics.SettlementOutcomes.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	result, err := s.gateway.PlaceOrder(ctx, cmd.Provider, ports.PlaceOrderRequest{
		ServiceID: cmd.ServiceID,
		Link:      cmd.Link,
		Quantity:  cmd.Quantity,
		Dripfeed:  cmd.Dripfeed,
	})
	if err != nil {
		s.refund(ctx, intent, pendingTxn)
		var rejected *ports.OrderRejectedError
		if errors.As(err, &rejected) {
			metrics.SettlementOutcomes.WithLabelValues("rejected").Inc()
			s.log.Info().
				Str("provider", cmd.Provider).
				Str("reason", rejected.Reason).
				Str("reference", cmd.ReferenceID).
				Msg("provider rejected order, debit refunded")
		} else {
			metrics.SettlementOutcomes.WithLabelValues("refunded").Inc()
			s.log.Warn().Err(err).
				Str("provider", cmd.Provider).
				Str("reference", cmd.ReferenceID).
				Msg("provider unreachable, debit refunded")
		}
		return nil, apperror.ErrOrderFailedRefunded(err)
	}

	order, err := s.record(ctx, cmd, svc, quote.FinalPrice, result.ProviderOrderID, intent, pendingTxn, key)
	if err != nil {
		// The provider accepted and the money is spent; losing the local
		// order row is an operational incident, not a user refund.
		s.log.Error().Err(err).
			Str("provider_order_id", result.ProviderOrderID).
			Str("reference", cmd.ReferenceID).
			Msg("order accepted upstream but local record failed")
		metrics.SettlementOutcomes.WithLabelValues("error").Inc()
		return nil, apperror.InternalError(err)
	}

	metrics.SettlementOutcomes.WithLabelValues("placed").Inc()
	s.log.Info().
		Str("provider", cmd.Provider).
		Str("order_id", order.ID.String()).
		Str("provider_order_id", result.ProviderOrderID).
		Str("provider_charge", result.ProviderCharge.String()).
		Msg("order placed")
	return order, nil
}

func validateCommand(cmd ports.PlaceOrderCommand) error {
	switch {
	case cmd.Link == "":
		return apperror.Validation("link is required")
	case cmd.Quantity <= 0:
		return apperror.Validation("quantity must be positive")
	case cmd.ReferenceID == "":
		return apperror.Validation("reference_id is required")
	}
	if cmd.Dripfeed != nil && (cmd.Dripfeed.Runs <= 0 || cmd.Dripfeed.Interval <= 0) {
		return apperror.Validation("dripfeed runs and interval must be positive")
	}
	return nil
}

// replay answers a repeated reference without a second debit. The cache is
// checked first; on a miss the durable log is consulted and the cache
// backfilled.
func (s *settlementService) replay(ctx context.Context, key string) *domain.Order {
	if payload, err := s.idemCache.Get(ctx, key); err == nil && payload != nil {
		var order domain.Order
		if json.Unmarshal(payload, &order) == nil {
			return &order
		}
	}
	entry, err := s.idemLog.Get(ctx, key)
	if err != nil || entry == nil {
		return nil
	}
	var order domain.Order
	if json.Unmarshal(entry.ResponseJSON, &order) != nil {
		return nil
	}
	if err := s.idemCache.Set(ctx, key, entry.ResponseJSON, idempotencyCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("idempotency cache backfill failed")
	}
	return &order
}

// preflightProviderBalance warns when our stored credit at the panel looks
// too low to cover the wholesale cost. Advisory only; the panel is the
// authority and will reject if it must.
func (s *settlementService) preflightProviderBalance(ctx context.Context, provider string, svc *domain.Service, quantity int) {
	bal, err := s.gateway.Balance(ctx, provider)
	if err != nil {
		return
	}
	wholesale := svc.WholesaleRate.
		Div(decimal.NewFromInt(1000)).
		Mul(decimal.NewFromInt(int64(quantity)))
	if bal.Balance.LessThan(wholesale) {
		s.log.Warn().
			Str("provider", provider).
			Str("provider_balance", bal.Balance.String()).
			Str("wholesale_cost", wholesale.String()).
			Msg("provider balance below wholesale cost")
	}
}

// debit atomically reserves the user's funds: the settlement intent, the
// conditional balance update and the pending ledger entry commit together.
func (s *settlementService) debit(ctx context.Context, cmd ports.PlaceOrderCommand, amount decimal.Decimal) (*domain.SettlementIntent, *domain.Transaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, apperror.InternalError(err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	intent := &domain.SettlementIntent{
		ID:          uuid.New(),
		UserID:      cmd.UserID,
		ReferenceID: cmd.ReferenceID,
		Provider:    cmd.Provider,
		ServiceID:   cmd.ServiceID,
		Link:        cmd.Link,
		Quantity:    cmd.Quantity,
		Amount:      amount,
		State:       domain.IntentStateDebited,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.intents.Create(ctx, tx, intent); err != nil {
		if errors.Is(err, ports.ErrDuplicateIntent) {
			// A concurrent request holds this reference. The replay path
			// will answer once the winner records its order.
			return nil, nil, apperror.ErrOrderInFlight()
		}
		return nil, nil, apperror.InternalError(err)
	}

	ok, err := s.users.Debit(ctx, tx, cmd.UserID, amount)
	if err != nil {
		return nil, nil, apperror.InternalError(err)
	}
	if !ok {
		return nil, nil, apperror.ErrInsufficientBalance()
	}

	pendingTxn := &domain.Transaction{
		ID:          uuid.New(),
		UserID:      cmd.UserID,
		Type:        domain.TransactionTypeOrder,
		Amount:      amount,
		Status:      domain.TransactionStatusPending,
		Description: fmt.Sprintf("order %s/%s x%d", cmd.Provider, cmd.ServiceID, cmd.Quantity),
		Reference:   cmd.ReferenceID,
		CreatedAt:   now,
	}
	if err := s.txns.Create(ctx, tx, pendingTxn); err != nil {
		return nil, nil, apperror.InternalError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, apperror.InternalError(err)
	}
	return intent, pendingTxn, nil
}

// record persists the accepted order, flips the intent to placed and writes
// the durable idempotency entry, all in one transaction.
func (s *settlementService) record(ctx context.Context, cmd ports.PlaceOrderCommand, svc *domain.Service, charge decimal.Decimal, providerOrderID string, intent *domain.SettlementIntent, pendingTxn *domain.Transaction, key string) (*domain.Order, error) {
	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          cmd.UserID,
		Provider:        cmd.Provider,
		ServiceID:       cmd.ServiceID,
		ServiceName:     svc.Name,
		Link:            cmd.Link,
		Quantity:        cmd.Quantity,
		Charge:          charge,
		Status:          domain.OrderStatusPending,
		ProviderOrderID: providerOrderID,
		Refillable:      svc.Refill,
		Cancelable:      svc.Cancel,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	moved, err := s.intents.Transition(ctx, tx, intent.ID, domain.IntentStateDebited, domain.IntentStatePlaced)
	if err != nil {
		return nil, err
	}
	if !moved {
		// The sweep refunded this intent while the provider call was in
		// flight. The order is live upstream on the platform's account.
		s.log.Error().
			Str("intent_id", intent.ID.String()).
			Str("provider_order_id", providerOrderID).
			Msg("intent refunded by sweep during provider call")
	}
	if err := s.orders.Create(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := s.txns.UpdateStatus(ctx, tx, pendingTxn.ID, domain.TransactionStatusCompleted); err != nil {
		return nil, err
	}
	if err := s.idemLog.Create(ctx, tx, &domain.IdempotencyLog{
		Key:          key,
		OrderID:      order.ID,
		ResponseJSON: payload,
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if err := s.idemCache.Set(ctx, key, payload, idempotencyCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("idempotency cache write failed")
	}
	return order, nil
}

// refund compensates a failed provider call. Transitioning the intent first
// and backing off when it already moved is what keeps this refund and the
// reconciliation sweep from both crediting.
func (s *settlementService) refund(ctx context.Context, intent *domain.SettlementIntent, pendingTxn *domain.Transaction) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("intent_id", intent.ID.String()).Msg("refund begin failed, sweep will recover")
		return
	}
	defer tx.Rollback(ctx)

	moved, err := s.intents.Transition(ctx, tx, intent.ID, domain.IntentStateDebited, domain.IntentStateRefunded)
	if err != nil {
		s.log.Error().Err(err).Str("intent_id", intent.ID.String()).Msg("refund transition failed, sweep will recover")
		return
	}
	if !moved {
		return
	}
	if err := s.users.Credit(ctx, tx, intent.UserID, intent.Amount); err != nil {
		s.log.Error().Err(err).Str("intent_id", intent.ID.String()).Msg("refund credit failed, sweep will recover")
		return
	}
	if err := s.txns.Create(ctx, tx, &domain.Transaction{
		ID:          uuid.New(),
		UserID:      intent.UserID,
		Type:        domain.TransactionTypeRefund,
		Amount:      intent.Amount,
		Status:      domain.TransactionStatusCompleted,
		Description: "refund for failed order",
		Reference:   intent.ReferenceID,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		s.log.Error().Err(err).Str("intent_id", intent.ID.String()).Msg("refund ledger write failed, sweep will recover")
		return
	}
	if err := s.txns.UpdateStatus(ctx, tx, pendingTxn.ID, domain.TransactionStatusFailed); err != nil {
		s.log.Error().Err(err).Str("intent_id", intent.ID.String()).Msg("pending ledger update failed, sweep will recover")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		s.log.Error().Err(err).Str("intent_id", intent.ID.String()).Msg("refund commit failed, sweep will recover")
	}
}
