package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdiqbalhossan/paygate/internal/bootstrap"
	"github.com/mdiqbalhossan/paygate/internal/controller"
	"github.com/mdiqbalhossan/paygate/internal/gateway"
	"github.com/mdiqbalhossan/paygate/internal/gateways"
	infraRedis "github.com/mdiqbalhossan/paygate/internal/infrastructure/redis"
	"github.com/mdiqbalhossan/paygate/internal/repository/postgres"
	"github.com/mdiqbalhossan/paygate/internal/service"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "paygate-api", "paygate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Gateway registry and dispatcher ---
	registry := gateway.NewRegistry(bootstrap.GatewayConfigSource(app.Config))
	if err := gateways.RegisterBuiltins(registry); err != nil {
		app.Logger.Fatal().Err(err).Msg("Failed to register gateways")
	}
	manager := gateway.NewManager(registry,
		gateway.WithLogger(app.Logger),
		gateway.WithOutcomeHook(service.MetricsHook(app.Metrics)),
	)
	if name := app.Config.Payment.DefaultGateway; name != "" {
		if err := manager.SetDefaultGateway(name); err != nil {
			app.Logger.Fatal().Err(err).Str("gateway", name).Msg("Failed to set default gateway")
		}
	}

	// --- Persistence and services ---
	txnRepo := postgres.NewTransactionRepository(app.Pool)
	deduper := infraRedis.NewWebhookDeduper(app.Redis, app.Config.Payment.WebhookDedupeTTL)
	idempotencyStore := infraRedis.NewIdempotencyStore(app.Redis, app.Config.Payment.IdempotencyTTL)
	paymentService := service.NewPaymentService(manager, txnRepo, deduper, app.Logger)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:             app.Pool,
		RedisClient:      app.Redis,
		PaymentService:   paymentService,
		Manager:          manager,
		IdempotencyStore: idempotencyStore,
		Metrics:          app.Metrics,
		CORSConfig:       app.Config.Server.CORS,
		Payment:          app.Config.Payment,
		Auth:             app.Config.Auth,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
