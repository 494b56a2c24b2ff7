package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
	"boostgate/internal/core/pricing"
)

// Pricer loads the live admin settings and runs the shared pricing
// computation. Every price in the system, whether shown in the catalog or
// debited at settlement, comes out of this one type.
type Pricer struct {
	settings      ports.SettingsRepository
	localCurrency string
	log           zerolog.Logger
}

func NewPricer(settings ports.SettingsRepository, localCurrency string, log zerolog.Logger) *Pricer {
	return &Pricer{
		settings:      settings,
		localCurrency: localCurrency,
		log:           log.With().Str("component", "pricer").Logger(),
	}
}

// Quote prices a service for a quantity using settings read fresh from the
// database, so admin changes take effect on the next request.
func (p *Pricer) Quote(ctx context.Context, svc *domain.Service, quantity int) (pricing.Quote, error) {
	vals, err := p.settings.GetMany(ctx, []string{domain.SettingProfitMargin, domain.SettingExchangeRate})
	if err != nil {
		return pricing.Quote{}, fmt.Errorf("load pricing settings: %w", err)
	}

	margin, err := p.settingDecimal(vals, domain.SettingProfitMargin, decimal.Zero)
	if err != nil {
		return pricing.Quote{}, err
	}

	if strings.EqualFold(svc.Currency, p.localCurrency) {
		return pricing.ComputeLocal(svc.WholesaleRate, quantity, margin), nil
	}

	fx, err := p.settingDecimal(vals, domain.SettingExchangeRate, decimal.NewFromInt(1))
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Compute(svc.WholesaleRate, quantity, margin, fx), nil
}

func (p *Pricer) settingDecimal(vals map[string]string, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw, ok := vals[key]
	if !ok || raw == "" {
		p.log.Warn().
			Str("setting", key).
			Str("fallback", fallback.String()).
			Msg("pricing setting missing, using fallback")
		return fallback, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("setting %s: invalid decimal %q: %w", key, raw, err)
	}
	return d, nil
}
