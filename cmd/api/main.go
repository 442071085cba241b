package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colespa/colespa-api/internal/config"
	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/handler"
	"github.com/colespa/colespa-api/internal/infra/cache"
	"github.com/colespa/colespa-api/internal/infra/firestore"
	"github.com/colespa/colespa-api/internal/infra/observability"
	"github.com/colespa/colespa-api/internal/infra/perplexity"
	"github.com/colespa/colespa-api/internal/infra/resilience"
	"github.com/colespa/colespa-api/internal/infra/stripe"
	"github.com/colespa/colespa-api/internal/port"
	"github.com/colespa/colespa-api/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("firestore_configured", cfg.FirestoreConfigured()),
		zap.Bool("stripe_configured", cfg.StripeConfigured()),
		zap.Bool("perplexity_configured", cfg.PerplexityConfigured()),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "colespa-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	var profileCache port.Cache[*domain.UserProfile]
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis[*domain.UserProfile](cfg.RedisAddr, cfg.CacheTTL, logger)
		if err != nil {
			logger.Warn("redis unreachable, falling back to in-memory cache", zap.Error(err))
			profileCache = cache.New[*domain.UserProfile](cfg.CacheTTL)
		} else {
			logger.Info("profile cache backed by redis", zap.String("addr", cfg.RedisAddr))
			profileCache = redisCache
		}
	} else {
		profileCache = cache.New[*domain.UserProfile](cfg.CacheTTL)
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Vendor clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var store *firestore.Client
	if cfg.FirestoreConfigured() {
		store = firestore.NewClient(
			httpClient,
			cfg.FirebaseProjectID,
			cfg.FirebaseClientEmail,
			cfg.FirebasePrivateKey,
			cb,
			resilienceCfg,
			logger,
		)
		logger.Info("firestore store enabled", zap.String("project_id", cfg.FirebaseProjectID))
	} else {
		logger.Warn("firestore not configured, data routes unavailable")
	}

	var payments port.PaymentProvider
	if cfg.StripeConfigured() {
		payments = stripe.NewClient(httpClient, cfg.StripeSecretKey, cb, resilienceCfg, logger)
		logger.Info("stripe payments enabled")
	} else {
		logger.Warn("stripe not configured, payment routes unavailable")
	}

	var generator port.ContentGenerator
	if cfg.PerplexityConfigured() {
		generator = perplexity.NewClient(httpClient, cfg.PerplexityAPIKey, cfg.PerplexityModel, cb, resilienceCfg, metrics, logger)
		logger.Info("content generation enabled", zap.String("model", cfg.PerplexityModel))
	} else {
		logger.Warn("perplexity not configured, blog generation unavailable")
	}

	// --- Services ---
	svcs := handler.Services{GeneratorReady: generator != nil}
	if store != nil {
		profileSvc := service.NewProfileService(store, profileCache, metrics, logger)
		svcs.Profiles = profileSvc
		if cfg.JWTSecret != "" {
			svcs.Auth = service.NewAuthService(profileSvc, cfg.JWTSecret, cfg.JWTIssuer, logger)
		} else {
			// An empty HMAC key verifies any forged token. Authenticated
			// routes answer 503 until the secret is set.
			logger.Warn("JWT_SECRET not set, authenticated routes unavailable")
		}
		svcs.Clients = service.NewClientService(store, logger)
		svcs.Ads = service.NewAdService(store, store, profileCache, logger)
		svcs.Blog = service.NewBlogService(store, generator, logger)
		svcs.Dashboard = service.NewDashboardService(store, svcs.Clients, store, logger)

		if payments != nil {
			svcs.Checkout = service.NewCheckoutService(payments, store, metrics, logger)
		}
	}

	// --- Router ---
	router := handler.NewRouter(svcs, metrics, cfg.StripeWebhookSecret, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
