package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
	"boostgate/internal/core/pricing"
	"boostgate/pkg/apperror"
)

type catalogService struct {
	gateway ports.ProviderGateway
	pricer  *Pricer
	log     zerolog.Logger
}

func NewCatalogService(gateway ports.ProviderGateway, pricer *Pricer, log zerolog.Logger) ports.CatalogService {
	return &catalogService{
		gateway: gateway,
		pricer:  pricer,
		log:     log.With().Str("component", "catalog").Logger(),
	}
}

func (s *catalogService) ListServices(ctx context.Context, provider string) ([]ports.PricedService, error) {
	services, err := s.gateway.Services(ctx, provider)
	if err != nil {
		return nil, mapGatewayError(err, provider)
	}
	priced := make([]ports.PricedService, 0, len(services))
	for i := range services {
		// Price per 1000 units for display; the quantity-specific quote
		// happens when the user actually configures an order.
		q, err := s.pricer.Quote(ctx, &services[i], 1000)
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		priced = append(priced, ports.PricedService{
			Service:    services[i],
			RetailPerK: q.FinalPrice,
		})
	}
	return priced, nil
}

func (s *catalogService) Lookup(ctx context.Context, provider, serviceID string) (*domain.Service, error) {
	services, err := s.gateway.Services(ctx, provider)
	if err != nil {
		return nil, mapGatewayError(err, provider)
	}
	for i := range services {
		if services[i].ID == serviceID {
			return &services[i], nil
		}
	}
	return nil, apperror.ErrNotFound("service")
}

func (s *catalogService) Quote(ctx context.Context, svc *domain.Service, quantity int) (pricing.Quote, error) {
	if quantity < svc.Min || quantity > svc.Max {
		return pricing.Quote{}, apperror.ErrQuantityOutOfRange(svc.Min, svc.Max)
	}
	q, err := s.pricer.Quote(ctx, svc, quantity)
	if err != nil {
		return pricing.Quote{}, apperror.InternalError(err)
	}
	return q, nil
}

// mapGatewayError translates gateway sentinels into user-facing errors.
func mapGatewayError(err error, provider string) error {
	var rejected *ports.OrderRejectedError
	switch {
	case errors.Is(err, ports.ErrUnknownProvider):
		return apperror.ErrUnknownProvider(provider)
	case errors.As(err, &rejected):
		return apperror.ErrProviderRejected(rejected.Reason)
	default:
		return apperror.ErrProviderUnavailable(err)
	}
}
