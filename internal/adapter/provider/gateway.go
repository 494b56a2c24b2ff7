package provider

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"boostgate/config"
	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
	"boostgate/internal/metrics"
)

// Gateway multiplexes the configured panels behind ports.ProviderGateway.
type Gateway struct {
	clients map[string]*panelClient
	names   []string
}

func NewGateway(cfgs []config.ProviderConfig, log zerolog.Logger) *Gateway {
	g := &Gateway{clients: make(map[string]*panelClient, len(cfgs))}
	for _, cfg := range cfgs {
		g.clients[cfg.Name] = newPanelClient(cfg, log)
		g.names = append(g.names, cfg.Name)
	}
	return g
}

func (g *Gateway) Providers() []string {
	names := make([]string, len(g.names))
	copy(names, g.names)
	return names
}

func (g *Gateway) Currency(provider string) (string, error) {
	c, ok := g.clients[provider]
	if !ok {
		return "", ports.ErrUnknownProvider
	}
	return c.currency, nil
}

func (g *Gateway) client(provider string) (*panelClient, error) {
	c, ok := g.clients[provider]
	if !ok {
		return nil, ports.ErrUnknownProvider
	}
	return c, nil
}

func observe(provider, action string, err error) {
	outcome := "ok"
	var rejected *ports.OrderRejectedError
	switch {
	case err == nil:
	case errors.As(err, &rejected):
		outcome = "rejected"
	default:
		outcome = "unavailable"
	}
	metrics.ProviderRequests.WithLabelValues(provider, action, outcome).Inc()
}

func (g *Gateway) Services(ctx context.Context, provider string) ([]domain.Service, error) {
	c, err := g.client(provider)
	if err != nil {
		return nil, err
	}
	if !c.configured() {
		return []domain.Service{}, nil
	}
	services, err := c.services(ctx)
	observe(provider, "services", err)
	return services, err
}

func (g *Gateway) PlaceOrder(ctx context.Context, provider string, req ports.PlaceOrderRequest) (*ports.PlaceOrderResult, error) {
	c, err := g.client(provider)
	if err != nil {
		return nil, err
	}
	res, err := c.placeOrder(ctx, req)
	observe(provider, "add", err)
	return res, err
}

func (g *Gateway) OrderStatus(ctx context.Context, provider, providerOrderID string) (*ports.OrderStatusResult, error) {
	c, err := g.client(provider)
	if err != nil {
		return nil, err
	}
	res, err := c.orderStatus(ctx, providerOrderID)
	observe(provider, "status", err)
	return res, err
}

func (g *Gateway) Refill(ctx context.Context, provider, providerOrderID string) (string, error) {
	c, err := g.client(provider)
	if err != nil {
		return "", err
	}
	id, err := c.refill(ctx, providerOrderID)
	observe(provider, "refill", err)
	return id, err
}

func (g *Gateway) Cancel(ctx context.Context, provider, providerOrderID string) (bool, error) {
	c, err := g.client(provider)
	if err != nil {
		return false, err
	}
	ok, err := c.cancel(ctx, providerOrderID)
	observe(provider, "cancel", err)
	return ok, err
}

func (g *Gateway) Balance(ctx context.Context, provider string) (*ports.ProviderBalance, error) {
	c, err := g.client(provider)
	if err != nil {
		return nil, err
	}
	bal, err := c.balance(ctx)
	observe(provider, "balance", err)
	return bal, err
}
