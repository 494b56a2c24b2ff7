package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
	"boostgate/internal/core/ports/mocks"
	"boostgate/pkg/apperror"
)

func setupCatalog(t *testing.T) (ports.CatalogService, *mocks.MockProviderGateway, *mocks.MockSettingsRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockProviderGateway(ctrl)
	settings := mocks.NewMockSettingsRepository(ctrl)
	pricer := NewPricer(settings, "NGN", zerolog.Nop())
	return NewCatalogService(gateway, pricer, zerolog.Nop()), gateway, settings
}

func pricingSettings(margin, fx string) map[string]string {
	return map[string]string{
		domain.SettingProfitMargin: margin,
		domain.SettingExchangeRate: fx,
	}
}

func TestCatalog_ListServices_PricesPerThousand(t *testing.T) {
	svc, gateway, settings := setupCatalog(t)
	ctx := context.Background()

	gateway.EXPECT().Services(ctx, "panelone").Return([]domain.Service{{
		ID:            "101",
		Provider:      "panelone",
		Name:          "Followers",
		WholesaleRate: decimal.RequireFromString("2.80"),
		Currency:      "USD",
		Min:           100,
		Max:           10000,
	}}, nil)
	settings.EXPECT().GetMany(ctx, gomock.Any()).
		Return(pricingSettings("35", "1600"), nil)

	priced, err := svc.ListServices(ctx, "panelone")
	require.NoError(t, err)
	require.Len(t, priced, 1)
	// 2.80 * 1600 / 1000 * 1000 = 4480.00; +35% = 6048.00; +3% tax = 6229.44
	assert.Equal(t, "6229.44", priced[0].RetailPerK.StringFixed(2))
}

func TestCatalog_ListServices_LocalCurrencySkipsFX(t *testing.T) {
	svc, gateway, settings := setupCatalog(t)
	ctx := context.Background()

	gateway.EXPECT().Services(ctx, "panelone").Return([]domain.Service{{
		ID:            "300",
		Provider:      "panelone",
		WholesaleRate: decimal.RequireFromString("4480"),
		Currency:      "NGN",
	}}, nil)
	// Exchange rate deliberately absurd; it must not be applied.
	settings.EXPECT().GetMany(ctx, gomock.Any()).
		Return(pricingSettings("35", "999999"), nil)

	priced, err := svc.ListServices(ctx, "panelone")
	require.NoError(t, err)
	require.Len(t, priced, 1)
	assert.Equal(t, "6229.44", priced[0].RetailPerK.StringFixed(2))
}

func TestCatalog_Lookup(t *testing.T) {
	svc, gateway, _ := setupCatalog(t)
	ctx := context.Background()

	gateway.EXPECT().Services(ctx, "panelone").Return([]domain.Service{
		{ID: "101", Provider: "panelone"},
		{ID: "202", Provider: "panelone"},
	}, nil).Times(2)

	found, err := svc.Lookup(ctx, "panelone", "202")
	require.NoError(t, err)
	assert.Equal(t, "202", found.ID)

	_, err = svc.Lookup(ctx, "panelone", "999")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ORD_005", appErr.Code)
}

func TestCatalog_Lookup_UnknownProvider(t *testing.T) {
	svc, gateway, _ := setupCatalog(t)
	ctx := context.Background()

	gateway.EXPECT().Services(ctx, "nope").Return(nil, ports.ErrUnknownProvider)

	_, err := svc.Lookup(ctx, "nope", "101")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PROV_002", appErr.Code)
}

func TestCatalog_Quote_QuantityBounds(t *testing.T) {
	svc, _, settings := setupCatalog(t)
	ctx := context.Background()

	entry := &domain.Service{
		ID:            "101",
		WholesaleRate: decimal.RequireFromString("2.80"),
		Currency:      "USD",
		Min:           100,
		Max:           10000,
	}

	for _, qty := range []int{99, 10001, 0} {
		_, err := svc.Quote(ctx, entry, qty)
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr, "qty %d", qty)
		assert.Equal(t, "VAL_002", appErr.Code)
	}

	settings.EXPECT().GetMany(ctx, gomock.Any()).
		Return(pricingSettings("35", "1600"), nil)
	q, err := svc.Quote(ctx, entry, 1000)
	require.NoError(t, err)
	assert.Equal(t, "6229.44", q.FinalPrice.StringFixed(2))
}

func TestCatalog_Quote_MatchesListPrice(t *testing.T) {
	// The catalog display price for 1000 units and the quote for 1000
	// units must be the same number, since both run the same computation
	// on the same settings.
	svc, gateway, settings := setupCatalog(t)
	ctx := context.Background()

	entry := domain.Service{
		ID:            "101",
		Provider:      "panelone",
		WholesaleRate: decimal.RequireFromString("0.73"),
		Currency:      "USD",
		Min:           10,
		Max:           100000,
	}

	gateway.EXPECT().Services(ctx, "panelone").Return([]domain.Service{entry}, nil)
	settings.EXPECT().GetMany(ctx, gomock.Any()).
		Return(pricingSettings("27.5", "1534.17"), nil).Times(2)

	priced, err := svc.ListServices(ctx, "panelone")
	require.NoError(t, err)

	q, err := svc.Quote(ctx, &entry, 1000)
	require.NoError(t, err)
	assert.True(t, priced[0].RetailPerK.Equal(q.FinalPrice))
}
