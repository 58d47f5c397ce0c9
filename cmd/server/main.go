package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/paymaster/internal/adapter/http"
	"github.com/iho/paymaster/internal/adapter/http/handler"
	"github.com/iho/paymaster/internal/adapter/remote"
	"github.com/iho/paymaster/internal/adapter/snapshot"
	"github.com/iho/paymaster/internal/adapter/wallet"
	"github.com/iho/paymaster/internal/breaker"
	"github.com/iho/paymaster/internal/budget"
	"github.com/iho/paymaster/internal/gateway"
	"github.com/iho/paymaster/internal/infrastructure/audit"
	"github.com/iho/paymaster/internal/infrastructure/config"
	"github.com/iho/paymaster/internal/infrastructure/logger"
	"github.com/iho/paymaster/internal/infrastructure/metrics"
	redisInfra "github.com/iho/paymaster/internal/infrastructure/redis"
	"github.com/iho/paymaster/internal/ledger"
	"github.com/iho/paymaster/internal/treasurer"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	limits, err := cfg.Limits()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid budget limits")
	}
	allocations, err := cfg.Allocations()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid agent allocations")
	}
	endpoints, err := cfg.ServiceEndpoints()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid service endpoints")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	m := metrics.New()
	auditEmitter := audit.NewEmitter(appLogger, m)

	// Ledger and snapshot persistence
	paymentLedger := ledger.New()

	var store snapshot.Store
	var redisClient *redis.Client
	switch {
	case cfg.RedisURL != "":
		client, err := redisInfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		redisClient = client
		store = snapshot.NewRedisStore(client, "")
		log.Info().Msg("using redis snapshot store")
	case cfg.SnapshotPath != "":
		store = snapshot.NewFileStore(cfg.SnapshotPath)
		log.Info().Str("path", cfg.SnapshotPath).Msg("using file snapshot store")
	}

	var persister *snapshot.Persister
	if store != nil {
		persister = snapshot.NewPersister(paymentLedger, store, auditEmitter, m, appLogger)
		if err := persister.Restore(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to restore ledger snapshot")
		}
	}

	// Policy engine and treasurer
	engine := budget.NewEngine(limits, paymentLedger, allocations, auditEmitter, m, appLogger)
	walletClient := wallet.NewHTTPWallet(cfg.WalletURL, cfg.WalletTimeout)
	idGen := treasurer.NewULIDGenerator()
	paymentTreasurer := treasurer.New(engine, paymentLedger, walletClient, nil, idGen, auditEmitter, m, appLogger)

	// Circuit breakers and dispatcher
	breakerManager := breaker.NewManager(breaker.Settings{
		FailureThreshold: cfg.BreakerFailureThreshold,
		SuccessThreshold: cfg.BreakerSuccessThreshold,
		Cooldown:         cfg.BreakerCooldown,
	}, auditEmitter, m, appLogger)

	registry := gateway.NewStaticRegistry()
	for serviceID, endpoint := range endpoints {
		registry.Register(gateway.Service{
			ID:      serviceID,
			Healthy: true,
			Caller:  remote.NewHTTPCaller(endpoint, nil),
		})
		log.Info().Str("service", serviceID).Str("endpoint", endpoint).Msg("registered remote service")
	}
	gw := gateway.New(registry, breakerManager, cfg.ToolCallTimeout, m, appLogger)

	// Background workers
	go paymentTreasurer.RunReconciler(ctx, cfg.ReconcileInterval, cfg.PendingTTL)
	if persister != nil {
		go persister.Run(ctx, cfg.SnapshotInterval)
	}

	// HTTP server
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		BudgetHandler:  handler.NewBudgetHandler(engine),
		LedgerHandler:  handler.NewLedgerHandler(paymentLedger, auditEmitter),
		BreakerHandler: handler.NewBreakerHandler(breakerManager),
		ServiceHandler: handler.NewServiceHandler(registry),
		ToolHandler:    handler.NewToolHandler(gw),
		HealthHandler:  handler.NewHealthHandler(redisClient),
		Logger:         appLogger,
		Metrics:        m,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	// final snapshot so an orderly shutdown loses nothing
	if persister != nil {
		if err := persister.Save(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("final snapshot failed")
		}
	}

	log.Info().Msg("server stopped")
}
