package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
)

type walletService struct {
	users ports.UserRepository
	txns  ports.TransactionRepository
}

func NewWalletService(users ports.UserRepository, txns ports.TransactionRepository) ports.WalletService {
	return &walletService{users: users, txns: txns}
}

func (s *walletService) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return s.users.GetBalance(ctx, userID)
}

func (s *walletService) Transactions(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Transaction, int64, error) {
	return s.txns.ListByUser(ctx, userID, page, pageSize)
}
