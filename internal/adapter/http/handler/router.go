package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"boostgate/internal/adapter/http/middleware"
	"boostgate/internal/core/ports"
	"boostgate/internal/metrics"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	CatalogSvc     ports.CatalogService
	SettlementSvc  ports.SettlementService
	OrderSvc       ports.OrderService
	WalletSvc      ports.WalletService
	DepositSvc     ports.DepositService
	AdminSvc       ports.AdminService
	Gateway        ports.ProviderGateway
	TokenSvc       ports.TokenService
	SessionStore   ports.SessionStore
	AttemptLimiter ports.AttemptLimiter // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.AttemptLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.AttemptLimiter, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- Public routes ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- Authenticated routes ---
	sessionAuth := middleware.SessionAuth(deps.TokenSvc, deps.SessionStore, deps.Logger)

	me := v1.Group("/auth", sessionAuth)
	{
		me.POST("/logout", authHandler.Logout)
		me.GET("/me", authHandler.Me)
	}

	catalogHandler := NewCatalogHandler(deps.CatalogSvc, deps.Gateway)
	catalog := v1.Group("/catalog", sessionAuth)
	{
		catalog.GET("/providers", rl("catalog"), catalogHandler.ListProviders)
		catalog.GET("/providers/:provider/services", rl("catalog"), catalogHandler.ListServices)
		catalog.POST("/quote", rl("catalog"), catalogHandler.Quote)
	}

	orderHandler := NewOrderHandler(deps.SettlementSvc, deps.OrderSvc)
	orders := v1.Group("/orders", sessionAuth)
	{
		orders.POST("", rl("orders"), orderHandler.Place)
		orders.GET("", rl("orders"), orderHandler.List)
		orders.GET("/:id", rl("orders"), orderHandler.Get)
		orders.POST("/:id/sync", rl("orders"), orderHandler.Sync)
		orders.POST("/:id/refill", rl("orders"), orderHandler.Refill)
		orders.POST("/:id/cancel", rl("orders"), orderHandler.Cancel)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallet := v1.Group("/wallet", sessionAuth)
	{
		wallet.GET("/balance", rl("wallet"), walletHandler.Balance)
		wallet.GET("/transactions", rl("wallet"), walletHandler.Transactions)
	}

	depositHandler := NewDepositHandler(deps.DepositSvc)
	deposits := v1.Group("/deposits", sessionAuth)
	{
		deposits.POST("", rl("deposits"), depositHandler.Initiate)
		deposits.GET("", rl("deposits"), depositHandler.List)
	}

	// --- Admin routes ---
	adminHandler := NewAdminHandler(deps.AdminSvc, deps.DepositSvc)
	admin := v1.Group("/admin", sessionAuth, middleware.AdminOnly())
	{
		admin.GET("/settings", rl("admin"), adminHandler.Settings)
		admin.PUT("/settings", rl("admin"), adminHandler.UpdateSettings)
		admin.GET("/users", rl("admin"), adminHandler.ListUsers)
		admin.POST("/users/:id/ban", rl("admin"), adminHandler.SetBanned)
		admin.GET("/deposits/pending", rl("admin"), adminHandler.PendingDeposits)
		admin.POST("/deposits/:id/approve", rl("admin"), adminHandler.ApproveDeposit)
		admin.POST("/deposits/:id/reject", rl("admin"), adminHandler.RejectDeposit)
		admin.GET("/providers/balances", rl("admin"), adminHandler.ProviderBalances)
	}

	return r
}
