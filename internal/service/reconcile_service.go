package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
	"boostgate/internal/metrics"
)

type reconcileService struct {
	db      ports.DBTransactor
	users   ports.UserRepository
	txns    ports.TransactionRepository
	intents ports.SettlementIntentRepository
	cutoff  time.Duration
	log     zerolog.Logger
}

func NewReconciliationService(
	db ports.DBTransactor,
	users ports.UserRepository,
	txns ports.TransactionRepository,
	intents ports.SettlementIntentRepository,
	cutoff time.Duration,
	log zerolog.Logger,
) ports.ReconciliationService {
	return &reconcileService{
		db:      db,
		users:   users,
		txns:    txns,
		intents: intents,
		cutoff:  cutoff,
		log:     log.With().Str("component", "reconcile").Logger(),
	}
}

// Sweep refunds debits whose settlement never resolved, typically because
// the process died between the debit and the provider call. Each intent is
// handled in its own transaction so one failure does not block the rest.
func (s *reconcileService) Sweep(ctx context.Context) (int, error) {
	stuck, err := s.intents.ListStuck(ctx, time.Now().Add(-s.cutoff))
	if err != nil {
		return 0, err
	}

	resolved := 0
	for i := range stuck {
		refunded, err := s.reconcile(ctx, &stuck[i])
		if err != nil {
			s.log.Error().Err(err).
				Str("intent_id", stuck[i].ID.String()).
				Msg("reconcile failed, will retry next sweep")
			continue
		}
		if !refunded {
			continue
		}
		resolved++
		metrics.ReconciledIntents.Inc()
		s.log.Info().
			Str("intent_id", stuck[i].ID.String()).
			Str("user_id", stuck[i].UserID.String()).
			Str("amount", stuck[i].Amount.String()).
			Msg("orphaned debit refunded")
	}
	return resolved, nil
}

func (s *reconcileService) reconcile(ctx context.Context, intent *domain.SettlementIntent) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	// The conditional transition loses the race against an in-line refund
	// or a late settlement; either way the intent is no longer ours.
	moved, err := s.intents.Transition(ctx, tx, intent.ID, domain.IntentStateDebited, domain.IntentStateReconciled)
	if err != nil {
		return false, err
	}
	if !moved {
		return false, nil
	}
	if err := s.users.Credit(ctx, tx, intent.UserID, intent.Amount); err != nil {
		return false, err
	}
	if err := s.txns.Create(ctx, tx, &domain.Transaction{
		ID:          uuid.New(),
		UserID:      intent.UserID,
		Type:        domain.TransactionTypeRefund,
		Amount:      intent.Amount,
		Status:      domain.TransactionStatusCompleted,
		Description: "refund for unresolved order",
		Reference:   intent.ReferenceID,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return false, err
	}
	if err := s.txns.FailPendingOrder(ctx, tx, intent.UserID, intent.ReferenceID); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
