package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mdiqbalhossan/paygate/internal/gateway"
	"github.com/mdiqbalhossan/paygate/internal/infrastructure/config"
	"github.com/mdiqbalhossan/paygate/internal/infrastructure/observability"
	infraRedis "github.com/mdiqbalhossan/paygate/internal/infrastructure/redis"
	"github.com/mdiqbalhossan/paygate/internal/repository/postgres"
)

type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics
}

func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(serviceName, cfg.Observability.LogLevel, os.Stdout)
	logger.Info().Msg("Starting")

	if cfg.Observability.EnableTracing {
		tp, err := observability.InitTracer(serviceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			go func() {
				<-ctx.Done()
				observability.Shutdown(context.Background(), tp)
			}()
			logger.Info().Msg("Tracing enabled")
		}
	}

	metrics := observability.NewMetrics(metricsNamespace, nil)
	logger.Info().Msg("Metrics initialized")

	pool, err := postgres.NewPool(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info().Msg("Connected to PostgreSQL")

	redisClient, err := infraRedis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Msg("Connected to Redis")

	return &App{
		Config:  cfg,
		Logger:  logger,
		Pool:    pool,
		Redis:   redisClient,
		Metrics: metrics,
	}, nil
}

// GatewayConfigSource adapts the per-gateway settings map into the registry's
// config lookup. Gateways absent from the map fall back to defaults.
func GatewayConfigSource(cfg *config.Config) gateway.ConfigSource {
	return func(name string) (gateway.Config, bool) {
		settings, ok := cfg.Gateways[name]
		if !ok {
			return gateway.Config{}, false
		}

		gwCfg := gateway.DefaultConfig()
		gwCfg.Enabled = settings.IsEnabled()
		if settings.Mode != "" {
			gwCfg.Mode = gateway.Mode(settings.Mode)
		}
		gwCfg.Credentials = make(map[string]string, len(settings.Credentials))
		for k, v := range settings.Credentials {
			gwCfg.Credentials[k] = v
		}
		return gwCfg, true
	}
}

func (a *App) Close() {
	a.Redis.Close()
	a.Pool.Close()
}
