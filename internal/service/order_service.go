package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
	"boostgate/pkg/apperror"
)

type orderService struct {
	orders  ports.OrderRepository
	gateway ports.ProviderGateway
	log     zerolog.Logger
}

func NewOrderService(orders ports.OrderRepository, gateway ports.ProviderGateway, log zerolog.Logger) ports.OrderService {
	return &orderService{
		orders:  orders,
		gateway: gateway,
		log:     log.With().Str("component", "orders").Logger(),
	}
}

func (s *orderService) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Order, int64, error) {
	return s.orders.ListByUser(ctx, userID, page, pageSize)
}

// Get returns not-found for orders belonging to another user, so order IDs
// cannot be probed.
func (s *orderService) Get(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if order == nil || order.UserID != userID {
		return nil, apperror.ErrNotFound("order")
	}
	return order, nil
}

func (s *orderService) SyncStatus(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() || order.ProviderOrderID == "" {
		return order, nil
	}

	res, err := s.gateway.OrderStatus(ctx, order.Provider, order.ProviderOrderID)
	if err != nil {
		return nil, mapGatewayError(err, order.Provider)
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, res.Status, res.StartCount, res.Remains); err != nil {
		return nil, apperror.InternalError(err)
	}
	s.log.Debug().
		Str("order_id", order.ID.String()).
		Str("status", string(res.Status)).
		Str("provider_charge", res.ProviderCharge.String()).
		Msg("order status synced")
	order.Status = res.Status
	order.StartCount = res.StartCount
	order.Remains = res.Remains
	return order, nil
}

func (s *orderService) Refill(ctx context.Context, userID, orderID uuid.UUID) (string, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return "", err
	}
	// Capability captured at placement; no catalog refetch.
	if !order.Refillable {
		return "", apperror.ErrRefillUnsupported()
	}
	refillID, err := s.gateway.Refill(ctx, order.Provider, order.ProviderOrderID)
	if err != nil {
		return "", mapGatewayError(err, order.Provider)
	}
	return refillID, nil
}

func (s *orderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Cancelable {
		return nil, apperror.ErrCancelUnsupported()
	}
	cancelled, err := s.gateway.Cancel(ctx, order.Provider, order.ProviderOrderID)
	if err != nil {
		return nil, mapGatewayError(err, order.Provider)
	}
	if cancelled {
		if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled, order.StartCount, order.Remains); err != nil {
			return nil, apperror.InternalError(err)
		}
		order.Status = domain.OrderStatusCancelled
	}
	return order, nil
}
