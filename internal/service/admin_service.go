package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
	"boostgate/pkg/apperror"
)

type adminService struct {
	users    ports.UserRepository
	settings ports.SettingsRepository
	deposits ports.DepositRepository
	gateway  ports.ProviderGateway
	log      zerolog.Logger
}

func NewAdminService(
	users ports.UserRepository,
	settings ports.SettingsRepository,
	deposits ports.DepositRepository,
	gateway ports.ProviderGateway,
	log zerolog.Logger,
) ports.AdminService {
	return &adminService{
		users:    users,
		settings: settings,
		deposits: deposits,
		gateway:  gateway,
		log:      log.With().Str("component", "admin").Logger(),
	}
}

func (s *adminService) Settings(ctx context.Context) (map[string]string, error) {
	return s.settings.All(ctx)
}

// UpdateSettings validates numeric settings up front so a typo cannot
// poison the pricing path.
func (s *adminService) UpdateSettings(ctx context.Context, values map[string]string) error {
	for key, value := range values {
		if isNumericSetting(key) {
			d, err := decimal.NewFromString(value)
			if err != nil {
				return apperror.Validation(fmt.Sprintf("setting %s must be a decimal number", key))
			}
			if d.IsNegative() {
				return apperror.Validation(fmt.Sprintf("setting %s must not be negative", key))
			}
		}
	}
	for key, value := range values {
		if err := s.settings.Set(ctx, key, value); err != nil {
			return apperror.InternalError(err)
		}
		s.log.Info().Str("key", key).Msg("setting updated")
	}
	return nil
}

func isNumericSetting(key string) bool {
	switch key {
	case domain.SettingProfitMargin, domain.SettingExchangeRate, domain.SettingCryptoGasFee:
		return true
	}
	return false
}

func (s *adminService) ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	return s.users.List(ctx, page, pageSize)
}

func (s *adminService) SetUserBanned(ctx context.Context, userID uuid.UUID, banned bool) error {
	if err := s.users.SetBanned(ctx, userID, banned); err != nil {
		return apperror.InternalError(err)
	}
	s.log.Info().Str("user_id", userID.String()).Bool("banned", banned).Msg("user ban flag changed")
	return nil
}

func (s *adminService) PendingDeposits(ctx context.Context) ([]domain.Deposit, error) {
	return s.deposits.ListPending(ctx)
}

// ProviderBalances queries every configured panel; panels that fail to
// answer are reported with an empty currency rather than failing the whole
// view.
func (s *adminService) ProviderBalances(ctx context.Context) ([]ports.ProviderBalance, error) {
	names := s.gateway.Providers()
	balances := make([]ports.ProviderBalance, 0, len(names))
	for _, name := range names {
		bal, err := s.gateway.Balance(ctx, name)
		if err != nil {
			s.log.Warn().Err(err).Str("provider", name).Msg("provider balance unavailable")
			balances = append(balances, ports.ProviderBalance{Provider: name})
			continue
		}
		balances = append(balances, *bal)
	}
	return balances, nil
}
