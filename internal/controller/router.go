package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mdiqbalhossan/paygate/internal/gateway"
	"github.com/mdiqbalhossan/paygate/internal/infrastructure/config"
	"github.com/mdiqbalhossan/paygate/internal/infrastructure/observability"
	paygateRedis "github.com/mdiqbalhossan/paygate/internal/infrastructure/redis"
	customMW "github.com/mdiqbalhossan/paygate/internal/middleware"
	"github.com/mdiqbalhossan/paygate/internal/service"
)

type RouterDeps struct {
	Pool             *pgxpool.Pool
	RedisClient      *redis.Client
	PaymentService   *service.PaymentService
	Manager          *gateway.Manager
	IdempotencyStore *paygateRedis.IdempotencyStore
	Metrics          *observability.Metrics
	CORSConfig       config.CORSConfig
	Payment          config.PaymentConfig
	Auth             config.AuthConfig
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-Idempotency-Replayed"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))
	if deps.Payment.RateLimitPerMinute > 0 {
		r.Use(customMW.RateLimit(deps.Payment.RateLimitPerMinute))
	}

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	paymentH := NewPaymentController(deps.PaymentService, deps.Manager)
	webhookH := NewWebhookController(deps.PaymentService)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	// Webhooks authenticate by signature, not by bearer token.
	if deps.Payment.WebhookEnabled {
		prefix := deps.Payment.WebhookPrefix
		if prefix == "" {
			prefix = "/payments/webhook"
		}
		r.Post(prefix+"/{gateway}", webhookH.Handle)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Auth.JWTSecret != "" {
			r.Use(customMW.RequireAuth(deps.Auth.JWTSecret))
		}

		idempotencyMW := customMW.Idempotency(deps.IdempotencyStore)

		r.Get("/gateways", paymentH.ListGateways)

		r.With(idempotencyMW).Post("/payments", paymentH.InitiatePayment)
		r.Get("/payments", paymentH.ListPayments)
		r.Get("/payments/{orderID}", paymentH.GetPayment)
		r.Post("/payments/{orderID}/refund", paymentH.RefundPayment)
	})

	return r
}
