package provider

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"boostgate/config"
	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
)

// panelClient talks to one SMM panel. All panels speak the same de facto
// protocol: a single endpoint taking form-encoded key/action pairs and
// answering JSON, with errors reported as {"error": "..."} under HTTP 200.
type panelClient struct {
	name     string
	currency string
	apiKey   string
	http     *resty.Client
	log      zerolog.Logger
}

func newPanelClient(cfg config.ProviderConfig, log zerolog.Logger) *panelClient {
	return &panelClient{
		name:     cfg.Name,
		currency: cfg.Currency,
		apiKey:   cfg.APIKey,
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout),
		log: log.With().Str("provider", cfg.Name).Logger(),
	}
}

func (c *panelClient) configured() bool { return c.apiKey != "" }

// call posts one action and returns the raw body. Any transport or HTTP
// failure collapses into ErrProviderUnavailable; detail goes to the log,
// never to the caller.
func (c *panelClient) call(ctx context.Context, action string, params map[string]string) ([]byte, error) {
	if !c.configured() {
		return nil, ports.ErrProviderUnavailable
	}
	form := map[string]string{
		"key":    c.apiKey,
		"action": action,
	}
	for k, v := range params {
		form[k] = v
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post("")
	if err != nil {
		c.log.Warn().Err(err).Str("action", action).Msg("provider request failed")
		return nil, ports.ErrProviderUnavailable
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		c.log.Warn().Int("status", resp.StatusCode()).Str("action", action).Msg("provider returned non-2xx")
		return nil, ports.ErrProviderUnavailable
	}
	return resp.Body(), nil
}

func (c *panelClient) services(ctx context.Context) ([]domain.Service, error) {
	if !c.configured() {
		return []domain.Service{}, nil
	}
	body, err := c.call(ctx, "services", nil)
	if err != nil {
		return nil, err
	}
	var raws []rawService
	if err := json.Unmarshal(body, &raws); err != nil {
		if reason := extractError(body); reason != "" {
			return nil, &ports.OrderRejectedError{Provider: c.name, Reason: reason}
		}
		c.log.Warn().Err(err).Msg("provider sent malformed services payload")
		return nil, ports.ErrProviderUnavailable
	}
	services := make([]domain.Service, 0, len(raws))
	for _, r := range raws {
		services = append(services, domain.Service{
			ID:            strconv.Itoa(int(r.Service)),
			Provider:      c.name,
			Name:          r.Name,
			Category:      r.Category,
			Type:          r.Type,
			WholesaleRate: r.Rate,
			Currency:      c.currency,
			Min:           int(r.Min),
			Max:           int(r.Max),
			Refill:        bool(r.Refill),
			Dripfeed:      bool(r.Dripfeed),
			Cancel:        bool(r.Cancel),
		})
	}
	return services, nil
}

func (c *panelClient) placeOrder(ctx context.Context, req ports.PlaceOrderRequest) (*ports.PlaceOrderResult, error) {
	params := map[string]string{
		"service":  req.ServiceID,
		"link":     req.Link,
		"quantity": strconv.Itoa(req.Quantity),
	}
	if req.Dripfeed != nil {
		params["runs"] = strconv.Itoa(req.Dripfeed.Runs)
		params["interval"] = strconv.Itoa(req.Dripfeed.Interval)
	}
	body, err := c.call(ctx, "add", params)
	if err != nil {
		return nil, err
	}
	var out addResponse
	if err := json.Unmarshal(body, &out); err != nil {
		c.log.Warn().Err(err).Msg("provider sent malformed add payload")
		return nil, ports.ErrProviderUnavailable
	}
	if out.Error != "" {
		return nil, &ports.OrderRejectedError{Provider: c.name, Reason: out.Error}
	}
	if out.Order == 0 {
		c.log.Warn().Msg("provider accepted order without an order id")
		return nil, ports.ErrProviderUnavailable
	}
	return &ports.PlaceOrderResult{
		ProviderOrderID: strconv.Itoa(int(out.Order)),
		ProviderCharge:  out.Charge,
	}, nil
}

func (c *panelClient) orderStatus(ctx context.Context, providerOrderID string) (*ports.OrderStatusResult, error) {
	body, err := c.call(ctx, "status", map[string]string{"order": providerOrderID})
	if err != nil {
		return nil, err
	}
	var out statusResponse
	if err := json.Unmarshal(body, &out); err != nil {
		c.log.Warn().Err(err).Msg("provider sent malformed status payload")
		return nil, ports.ErrProviderUnavailable
	}
	if out.Error != "" {
		return nil, &ports.OrderRejectedError{Provider: c.name, Reason: out.Error}
	}
	return &ports.OrderStatusResult{
		Status:         normalizeStatus(out.Status),
		StartCount:     int(out.StartCount),
		Remains:        int(out.Remains),
		ProviderCharge: out.Charge,
	}, nil
}

func (c *panelClient) refill(ctx context.Context, providerOrderID string) (string, error) {
	body, err := c.call(ctx, "refill", map[string]string{"order": providerOrderID})
	if err != nil {
		return "", err
	}
	var out refillResponse
	if err := json.Unmarshal(body, &out); err != nil {
		c.log.Warn().Err(err).Msg("provider sent malformed refill payload")
		return "", ports.ErrProviderUnavailable
	}
	if out.Error != "" {
		return "", &ports.OrderRejectedError{Provider: c.name, Reason: out.Error}
	}
	return strconv.Itoa(int(out.Refill)), nil
}

func (c *panelClient) cancel(ctx context.Context, providerOrderID string) (bool, error) {
	body, err := c.call(ctx, "cancel", map[string]string{"order": providerOrderID})
	if err != nil {
		return false, err
	}
	var out cancelResponse
	if err := json.Unmarshal(body, &out); err != nil {
		c.log.Warn().Err(err).Msg("provider sent malformed cancel payload")
		return false, ports.ErrProviderUnavailable
	}
	if out.Error != "" {
		return false, &ports.OrderRejectedError{Provider: c.name, Reason: out.Error}
	}
	return out.Cancel != 0, nil
}

func (c *panelClient) balance(ctx context.Context) (*ports.ProviderBalance, error) {
	body, err := c.call(ctx, "balance", nil)
	if err != nil {
		return nil, err
	}
	var out balanceResponse
	if err := json.Unmarshal(body, &out); err != nil {
		c.log.Warn().Err(err).Msg("provider sent malformed balance payload")
		return nil, ports.ErrProviderUnavailable
	}
	if out.Error != "" {
		return nil, &ports.OrderRejectedError{Provider: c.name, Reason: out.Error}
	}
	currency := out.Currency
	if currency == "" {
		currency = c.currency
	}
	return &ports.ProviderBalance{
		Provider: c.name,
		Balance:  out.Balance,
		Currency: currency,
	}, nil
}
