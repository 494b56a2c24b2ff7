package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"boostgate/config"
	httpHandler "boostgate/internal/adapter/http/handler"
	"boostgate/internal/adapter/provider"
	redisStorage "boostgate/internal/adapter/storage/redis"
	"boostgate/internal/core/domain"
	"boostgate/internal/service"
	"boostgate/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePanel imitates an upstream SMM panel: one endpoint, form-encoded
// key/action requests, JSON answers, errors under HTTP 200.
type fakePanel struct {
	server    *httptest.Server
	addCalls  atomic.Int64
	rejectAll atomic.Bool
}

func newFakePanel() *fakePanel {
	p := &fakePanel{}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch r.PostFormValue("action") {
		case "services":
			fmt.Fprint(w, `[
				{"service":"101","name":"Followers","type":"Default","category":"Social","rate":"2.80","min":"100","max":"10000","refill":true,"cancel":true,"dripfeed":false},
				{"service":"102","name":"Likes","type":"Default","category":"Social","rate":"0.90","min":10,"max":50000,"refill":"false","cancel":"false","dripfeed":true}
			]`)
		case "add":
			if p.rejectAll.Load() {
				fmt.Fprint(w, `{"error":"not enough funds in the panel"}`)
				return
			}
			n := p.addCalls.Add(1)
			fmt.Fprintf(w, `{"order":%d}`, 50000+n)
		case "status":
			fmt.Fprint(w, `{"charge":"2.80","start_count":"12","status":"In progress","remains":"488","currency":"USD"}`)
		case "refill":
			fmt.Fprint(w, `{"refill":"777"}`)
		case "cancel":
			fmt.Fprint(w, `{"cancel":1}`)
		case "balance":
			fmt.Fprint(w, `{"balance":"5000.00","currency":"USD"}`)
		default:
			fmt.Fprint(w, `{"error":"unknown action"}`)
		}
	}))
	return p
}

// testApp wires the full stack against in-memory repos, miniredis and a fake
// panel, exercising the real HTTP layer, middleware, services, Redis stores
// and provider gateway end-to-end.
type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	panel  *fakePanel

	users    *inMemoryUserRepo
	orders   *inMemoryOrderRepo
	txns     *inMemoryTransactionRepo
	intents  *inMemoryIntentRepo
	deposits *inMemoryDepositRepo
	settings *inMemorySettingsRepo
	idemLog  *inMemoryIdempotencyRepo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	panel := newFakePanel()
	log := logger.New("error", false)

	app := &testApp{
		redis:    mr,
		panel:    panel,
		users:    newInMemoryUserRepo(),
		orders:   newInMemoryOrderRepo(),
		txns:     newInMemoryTransactionRepo(),
		intents:  newInMemoryIntentRepo(),
		deposits: newInMemoryDepositRepo(),
		settings: newInMemorySettingsRepo(),
		idemLog:  newInMemoryIdempotencyRepo(),
	}

	// Pricing settings: rate 2.80 USD * fx 1600 * margin 35% + 3% tax on a
	// 1000-unit order lands on 6229.44 NGN.
	ctx := t.Context()
	require.NoError(t, app.settings.Set(ctx, domain.SettingProfitMargin, "35"))
	require.NoError(t, app.settings.Set(ctx, domain.SettingExchangeRate, "1600"))
	require.NoError(t, app.settings.Set(ctx, domain.SettingCryptoGasFee, "2"))
	require.NoError(t, app.settings.Set(ctx, domain.SettingWalletAddrPrefix+"usdt", "TTestDepositAddress"))

	sessionStore := redisStorage.NewSessionStore(rdb)
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	attemptStore := redisStorage.NewAttemptStore(rdb)
	transactor := newInMemoryTransactor()

	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-session-secret-32-bytes!!!!", 24*time.Hour, "test-issuer")

	gateway := provider.NewGateway([]config.ProviderConfig{{
		Name:     "panelone",
		BaseURL:  panel.server.URL,
		APIKey:   "test-key",
		Currency: "USD",
		Timeout:  5 * time.Second,
	}}, log)

	pricer := service.NewPricer(app.settings, "NGN", log)
	catalogSvc := service.NewCatalogService(gateway, pricer, log)
	settlementSvc := service.NewSettlementService(
		transactor, app.users, app.orders, app.txns, app.intents,
		app.idemLog, idempotencyCache, catalogSvc, gateway, log,
	)
	orderSvc := service.NewOrderService(app.orders, gateway, log)
	walletSvc := service.NewWalletService(app.users, app.txns)
	depositSvc := service.NewDepositService(transactor, app.deposits, app.users, app.txns, app.settings, log)
	authSvc := service.NewAuthService(app.users, hashSvc, tokenSvc, sessionStore, attemptStore, log)
	adminSvc := service.NewAdminService(app.users, app.settings, app.deposits, gateway, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:       authSvc,
		CatalogSvc:    catalogSvc,
		SettlementSvc: settlementSvc,
		OrderSvc:      orderSvc,
		WalletSvc:     walletSvc,
		DepositSvc:    depositSvc,
		AdminSvc:      adminSvc,
		Gateway:       gateway,
		TokenSvc:      tokenSvc,
		SessionStore:  sessionStore,
		Logger:        log,
	})

	app.server = httptest.NewServer(router)
	return app
}

func (a *testApp) close() {
	a.server.Close()
	a.panel.server.Close()
	a.redis.Close()
}

// --- request helpers ---

func (a *testApp) post(t *testing.T, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, a.server.URL+path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(t, req)
}

func (a *testApp) get(t *testing.T, path, token string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(t, req)
}

func (a *testApp) do(t *testing.T, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func (a *testApp) register(t *testing.T, email string) uuid.UUID {
	t.Helper()
	resp, body := a.post(t, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "SuperSecret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register response: %v", body)
	data := body["data"].(map[string]interface{})
	id, err := uuid.Parse(data["id"].(string))
	require.NoError(t, err)
	return id
}

func (a *testApp) login(t *testing.T, email string) string {
	t.Helper()
	resp, body := a.post(t, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "SuperSecret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "login response: %v", body)
	data := body["data"].(map[string]interface{})
	return data["token"].(string)
}

func (a *testApp) fundedUser(t *testing.T, email, balance string) (uuid.UUID, string) {
	t.Helper()
	id := a.register(t, email)
	a.users.setBalance(id, decimal.RequireFromString(balance))
	return id, a.login(t, email)
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.get(t, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterLoginMe(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := app.register(t, "alice@example.com")
	token := app.login(t, "alice@example.com")

	resp, body := app.get(t, "/api/v1/auth/me", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, userID.String(), data["user_id"])
	assert.Equal(t, "alice@example.com", data["email"])
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "dup@example.com")

	resp, body := app.post(t, "/api/v1/auth/register", "", map[string]string{
		"email":    "dup@example.com",
		"password": "SuperSecret123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "AUTH_002", body["error_code"])
}

func TestIntegration_LoginWrongPassword(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "bob@example.com")

	resp, body := app.post(t, "/api/v1/auth/login", "", map[string]string{
		"email":    "bob@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_001", body["error_code"])
}

func TestIntegration_LogoutRevokesSession(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "carol@example.com")
	token := app.login(t, "carol@example.com")

	resp, _ := app.post(t, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The JWT is still within its expiry but the session record is gone.
	resp, _ = app.get(t, "/api/v1/auth/me", token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := app.get(t, "/api/v1/wallet/balance", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_CatalogPricing(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "pricer@example.com")
	token := app.login(t, "pricer@example.com")

	resp, body := app.get(t, "/api/v1/catalog/providers/panelone/services", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	services := body["data"].(map[string]interface{})["services"].([]interface{})
	require.Len(t, services, 2)

	// 2.80 * 1600 * 1.35 * 1.03 = 6229.44 per 1000 units
	first := services[0].(map[string]interface{})
	assert.Equal(t, "101", first["id"])
	assert.Equal(t, "6229.44", first["retail_per_k"])
}

func TestIntegration_QuoteMatchesCharge(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, token := app.fundedUser(t, "parity@example.com", "100000")

	_, quoteBody := app.post(t, "/api/v1/catalog/quote", token, map[string]interface{}{
		"provider":   "panelone",
		"service_id": "101",
		"quantity":   1000,
	})
	quoted := quoteBody["data"].(map[string]interface{})["total"].(string)
	assert.Equal(t, "6229.44", quoted)

	resp, orderBody := app.post(t, "/api/v1/orders", token, map[string]interface{}{
		"provider":     "panelone",
		"service_id":   "101",
		"link":         "https://example.com/p/abc",
		"quantity":     1000,
		"reference_id": "parity-001",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "order response: %v", orderBody)
	charged := orderBody["data"].(map[string]interface{})["charge"].(string)

	// The displayed quote and the settled charge come from the same
	// computation; they must be byte-identical.
	assert.Equal(t, quoted, charged)
}

func TestIntegration_PlaceOrder_EndToEnd(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID, token := app.fundedUser(t, "buyer@example.com", "10000")

	resp, body := app.post(t, "/api/v1/orders", token, map[string]interface{}{
		"provider":     "panelone",
		"service_id":   "101",
		"link":         "https://example.com/p/abc",
		"quantity":     1000,
		"reference_id": "e2e-001",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "order response: %v", body)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.NotEmpty(t, data["provider_order_id"])
	assert.Equal(t, "6229.44", data["charge"])

	balance, err := app.users.GetBalance(t.Context(), userID)
	require.NoError(t, err)
	assert.Equal(t, "3770.56", balance.StringFixed(2))

	placed := app.intents.byState(domain.IntentStatePlaced)
	require.Len(t, placed, 1)
	assert.Equal(t, "e2e-001", placed[0].ReferenceID)
}

func TestIntegration_PlaceOrder_InsufficientBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID, token := app.fundedUser(t, "broke@example.com", "100")

	resp, body := app.post(t, "/api/v1/orders", token, map[string]interface{}{
		"provider":     "panelone",
		"service_id":   "101",
		"link":         "https://example.com/p/abc",
		"quantity":     1000,
		"reference_id": "broke-001",
	})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "BAL_001", body["error_code"])

	// No side effects: balance untouched, nothing placed.
	balance, err := app.users.GetBalance(t.Context(), userID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", balance.StringFixed(2))
	assert.Equal(t, 0, app.orders.count())
	assert.Equal(t, int64(0), app.panel.addCalls.Load())
}

func TestIntegration_PlaceOrder_RejectedIsRefunded(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID, token := app.fundedUser(t, "rejected@example.com", "10000")
	app.panel.rejectAll.Store(true)

	resp, body := app.post(t, "/api/v1/orders", token, map[string]interface{}{
		"provider":     "panelone",
		"service_id":   "101",
		"link":         "https://example.com/p/abc",
		"quantity":     1000,
		"reference_id": "reject-001",
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "ORD_001", body["error_code"])

	// The debit was reversed in full.
	balance, err := app.users.GetBalance(t.Context(), userID)
	require.NoError(t, err)
	assert.Equal(t, "10000.00", balance.StringFixed(2))

	refunded := app.intents.byState(domain.IntentStateRefunded)
	require.Len(t, refunded, 1)

	// The ledger shows the failed debit and its matching refund.
	entries := app.txns.byReference("reject-001")
	var sawFailed, sawRefund bool
	for _, e := range entries {
		if e.Type == domain.TransactionTypeOrder && e.Status == domain.TransactionStatusFailed {
			sawFailed = true
		}
		if e.Type == domain.TransactionTypeRefund && e.Status == domain.TransactionStatusCompleted {
			sawRefund = true
		}
	}
	assert.True(t, sawFailed, "pending order entry should be failed")
	assert.True(t, sawRefund, "refund entry should be completed")
}

func TestIntegration_PlaceOrder_IdempotentReplay(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID, token := app.fundedUser(t, "replay@example.com", "20000")

	order := map[string]interface{}{
		"provider":     "panelone",
		"service_id":   "101",
		"link":         "https://example.com/p/abc",
		"quantity":     1000,
		"reference_id": "replay-001",
	}

	resp1, body1 := app.post(t, "/api/v1/orders", token, order)
	require.Equal(t, http.StatusCreated, resp1.StatusCode)
	firstID := body1["data"].(map[string]interface{})["id"].(string)

	resp2, body2 := app.post(t, "/api/v1/orders", token, order)
	require.Equal(t, http.StatusCreated, resp2.StatusCode)
	secondID := body2["data"].(map[string]interface{})["id"].(string)

	assert.Equal(t, firstID, secondID, "replay must return the original order")
	assert.Equal(t, int64(1), app.panel.addCalls.Load(), "panel must be hit once")
	assert.Equal(t, 1, app.orders.count())

	// Exactly one debit.
	balance, err := app.users.GetBalance(t.Context(), userID)
	require.NoError(t, err)
	assert.Equal(t, "13770.56", balance.StringFixed(2))
}

func TestIntegration_OrderSync(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, token := app.fundedUser(t, "sync@example.com", "10000")

	resp, body := app.post(t, "/api/v1/orders", token, map[string]interface{}{
		"provider":     "panelone",
		"service_id":   "101",
		"link":         "https://example.com/p/abc",
		"quantity":     1000,
		"reference_id": "sync-001",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["data"].(map[string]interface{})["id"].(string)

	resp, body = app.post(t, "/api/v1/orders/"+orderID+"/sync", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "processing", data["status"])
	assert.Equal(t, float64(12), data["start_count"])
	assert.Equal(t, float64(488), data["remains"])
}

func TestIntegration_DepositLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := app.register(t, "funder@example.com")
	token := app.login(t, "funder@example.com")

	adminID := app.register(t, "admin@example.com")
	app.users.setAdmin(adminID)
	adminToken := app.login(t, "admin@example.com")

	// Initiate: 2% gas fee on 500.00 is 10.00.
	resp, body := app.post(t, "/api/v1/deposits", token, map[string]interface{}{
		"amount": "500.00",
		"method": "usdt",
		"tx_ref": "0xdeadbeef",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "deposit response: %v", body)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "TTestDepositAddress", data["address"])
	assert.Equal(t, "10.00", data["gas_fee"])
	assert.Equal(t, "510.00", data["total"])
	depositID := data["deposit_id"].(string)

	// Admin sees it pending and approves.
	resp, body = app.get(t, "/api/v1/admin/deposits/pending", adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := body["data"].(map[string]interface{})["deposits"].([]interface{})
	require.Len(t, pending, 1)

	resp, _ = app.post(t, "/api/v1/admin/deposits/"+depositID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	balance, err := app.users.GetBalance(t.Context(), userID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", balance.StringFixed(2))

	// A second approval finds the deposit already resolved.
	resp, body = app.post(t, "/api/v1/admin/deposits/"+depositID+"/approve", adminToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ORD_004", body["error_code"])

	// And the balance was credited exactly once.
	balance, err = app.users.GetBalance(t.Context(), userID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", balance.StringFixed(2))
}

func TestIntegration_AdminGuard(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "pleb@example.com")
	token := app.login(t, "pleb@example.com")

	resp, body := app.get(t, "/api/v1/admin/settings", token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "AUTH_005", body["error_code"])
}

func TestIntegration_SettingsChangeRepricesNextQuote(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	adminID := app.register(t, "root@example.com")
	app.users.setAdmin(adminID)
	adminToken := app.login(t, "root@example.com")

	quoteReq := map[string]interface{}{
		"provider":   "panelone",
		"service_id": "101",
		"quantity":   1000,
	}
	_, body := app.post(t, "/api/v1/catalog/quote", adminToken, quoteReq)
	assert.Equal(t, "6229.44", body["data"].(map[string]interface{})["total"].(string))

	resp, _ := app.do(t, putJSON(t, app.server.URL+"/api/v1/admin/settings", adminToken, map[string]interface{}{
		"settings": map[string]string{"profit_margin": "50"},
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 2.80 * 1600 * 1.50 * 1.03 = 6921.60; no restart, no cache.
	_, body = app.post(t, "/api/v1/catalog/quote", adminToken, quoteReq)
	assert.Equal(t, "6921.60", body["data"].(map[string]interface{})["total"].(string))
}

func putJSON(t *testing.T, url, token string, body interface{}) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPut, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
