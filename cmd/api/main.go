package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boostgate/config"
	httpHandler "boostgate/internal/adapter/http/handler"
	"boostgate/internal/adapter/provider"
	pgStorage "boostgate/internal/adapter/storage/postgres"
	redisStorage "boostgate/internal/adapter/storage/redis"
	"boostgate/internal/core/ports"
	"boostgate/internal/metrics"
	"boostgate/internal/service"
	"boostgate/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting BoostGate")

	if cfg.Session.Secret == "" {
		log.Fatal().Msg("session secret is required (BG_SESSION_SECRET)")
	}

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	metrics.Register()

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	intentRepo := pgStorage.NewIntentRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	depositRepo := pgStorage.NewDepositRepo(pool)
	settingsRepo := pgStorage.NewSettingsRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	sessionStore := redisStorage.NewSessionStore(rdb)
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	attemptStore := redisStorage.NewAttemptStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Issuer)

	// Initialize the provider gateway
	gateway := provider.NewGateway(cfg.Providers, log)

	// Initialize business services
	pricer := service.NewPricer(settingsRepo, cfg.Pricing.LocalCurrency, log)
	catalogSvc := service.NewCatalogService(gateway, pricer, log)
	settlementSvc := service.NewSettlementService(
		transactor,
		userRepo,
		orderRepo,
		txRepo,
		intentRepo,
		idempotencyRepo,
		idempotencyCache,
		catalogSvc,
		gateway,
		log,
	)
	orderSvc := service.NewOrderService(orderRepo, gateway, log)
	walletSvc := service.NewWalletService(userRepo, txRepo)
	depositSvc := service.NewDepositService(transactor, depositRepo, userRepo, txRepo, settingsRepo, log)
	authSvc := service.NewAuthService(userRepo, hashSvc, tokenSvc, sessionStore, attemptStore, log)
	adminSvc := service.NewAdminService(userRepo, settingsRepo, depositRepo, gateway, log)
	reconcileSvc := service.NewReconciliationService(transactor, userRepo, txRepo, intentRepo, cfg.Reconcile.Cutoff, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		CatalogSvc:     catalogSvc,
		SettlementSvc:  settlementSvc,
		OrderSvc:       orderSvc,
		WalletSvc:      walletSvc,
		DepositSvc:     depositSvc,
		AdminSvc:       adminSvc,
		Gateway:        gateway,
		TokenSvc:       tokenSvc,
		SessionStore:   sessionStore,
		AttemptLimiter: attemptStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// Background reconciliation sweep for orphaned debits
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(cfg.Reconcile.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n, err := reconcileSvc.Sweep(sweepCtx); err != nil {
					log.Error().Err(err).Msg("reconciliation sweep failed")
				} else if n > 0 {
					log.Info().Int("refunded", n).Msg("reconciliation sweep resolved orphaned debits")
				}
			}
		}
	}()

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
