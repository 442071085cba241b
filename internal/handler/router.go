package handler

import (
	"net/http"
	"time"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/infra/observability"
	"github.com/colespa/colespa-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles the use-case layer for the router. A nil service means
// its vendor is not configured; the routes that need it answer 503 instead
// of the process refusing to start.
type Services struct {
	Auth      *service.AuthService
	Profiles  *service.ProfileService
	Checkout  *service.CheckoutService
	Clients   *service.ClientService
	Ads       *service.AdService
	Blog      *service.BlogService
	Dashboard *service.DashboardService

	// GeneratorReady reports whether the content generation vendor is
	// configured; the blog itself works without it.
	GeneratorReady bool
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, webhookSecret string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://colespa.es", "https://www.colespa.es", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	unavailable := func(msg string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusServiceUnavailable, msg)
		}
	}

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Catálogo (público)
		// =============================================
		r.Get("/catalog/packages", listPackagesHandler(logger))
		r.Get("/catalog/services", listServicesHandler(logger))

		// =============================================
		// Blog (público)
		// =============================================
		if svcs.Blog != nil {
			r.Get("/blog-posts", listPostsHandler(svcs.Blog, logger))
			r.Get("/blog-posts/{slug}", getPostHandler(svcs.Blog, logger))
		} else {
			r.Get("/blog-posts", unavailable("blog no disponible: Firestore no configurado"))
			r.Get("/blog-posts/{slug}", unavailable("blog no disponible: Firestore no configurado"))
		}

		// =============================================
		// Anuncios públicos y contadores
		// =============================================
		if svcs.Ads != nil {
			r.Get("/ads", listPublicAdsHandler(svcs.Ads, logger))
			r.Post("/ads/{adId}/impression", trackAdHandler(svcs.Ads, "impression", logger))
			r.Post("/ads/{adId}/click", trackAdHandler(svcs.Ads, "click", logger))
		}

		// =============================================
		// Checkout (público): validación, intents, confirmación, webhook
		// =============================================
		if svcs.Checkout != nil {
			r.Post("/checkout/validate", checkoutValidateHandler(svcs.Checkout, logger))
			r.Post("/payment-intents", createPaymentIntentHandler(svcs.Checkout, logger))
			// Aliases kept for the deployed frontend.
			r.Post("/create-payment-intent", createPaymentIntentHandler(svcs.Checkout, logger))
			r.Post("/service-payment-intent", createPaymentIntentHandler(svcs.Checkout, logger))
			r.Post("/checkout/confirm", checkoutConfirmHandler(svcs.Checkout, logger))
			r.Post("/clients", checkoutConfirmHandler(svcs.Checkout, logger))
			r.Post("/webhooks/stripe", stripeWebhookHandler(svcs.Checkout, webhookSecret, logger))
		} else {
			r.Post("/payment-intents", unavailable("pagos no disponibles: Stripe no configurado"))
			r.Post("/create-payment-intent", unavailable("pagos no disponibles: Stripe no configurado"))
			r.Post("/service-payment-intent", unavailable("pagos no disponibles: Stripe no configurado"))
			r.Post("/checkout/confirm", unavailable("pagos no disponibles: Stripe no configurado"))
		}

		// =============================================
		// Métricas de pago
		// =============================================
		r.Get("/metrics/payments", paymentMetricsHandler(metrics, logger))

		// =============================================
		// Rutas autenticadas
		// =============================================
		if svcs.Auth == nil {
			r.Handle("/auth/*", unavailable("autenticación no disponible"))
			r.Handle("/admin/*", unavailable("autenticación no disponible"))
			r.Handle("/advertiser/*", unavailable("autenticación no disponible"))
			return
		}

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(svcs.Auth, logger))

			r.Get("/auth/profile", getProfileHandler(logger))
			r.Patch("/auth/profile", updateProfileHandler(svcs.Profiles, logger))

			// --- Anunciantes ---
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleAdvertiser, logger))
				r.Post("/advertiser/ads", createAdHandler(svcs.Ads, logger))
				r.Get("/advertiser/ads", listOwnAdsHandler(svcs.Ads, logger))
				r.Get("/advertiser/dashboard", advertiserDashboardHandler(svcs.Ads, logger))
			})

			// --- Administración ---
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleAdmin, logger))

				r.Get("/admin/dashboard", adminDashboardHandler(svcs.Dashboard, logger))

				r.Get("/admin/users", listUsersHandler(svcs.Profiles, logger))
				r.Patch("/admin/users/{userId}/role", updateRoleHandler(svcs.Profiles, logger))
				r.Post("/admin/users/{userId}/credits", grantCreditsHandler(svcs.Profiles, logger))

				r.Get("/admin/clients", listClientsHandler(svcs.Clients, logger))
				r.Get("/admin/clients/recent", recentClientsHandler(svcs.Clients, logger))
				r.Get("/admin/clients/search", searchClientsHandler(svcs.Clients, logger))
				r.Get("/admin/clients/stats", clientStatsHandler(svcs.Clients, logger))
				if svcs.Checkout != nil {
					r.Get("/admin/clients/reconcile", reconcileHandler(svcs.Checkout, logger))
				}
				r.Get("/admin/clients/{clientId}", getClientHandler(svcs.Clients, logger))
				r.Patch("/admin/clients/{clientId}/status", updateClientStatusHandler(svcs.Clients, logger))
				r.Patch("/admin/clients/{clientId}/priority", updateClientPriorityHandler(svcs.Clients, logger))
				r.Patch("/admin/clients/{clientId}/agent", assignAgentHandler(svcs.Clients, logger))

				r.Get("/admin/ads/pending", pendingAdsHandler(svcs.Ads, logger))
				r.Patch("/admin/ads/{adId}/status", moderateAdHandler(svcs.Ads, logger))

				r.Get("/admin/blog-posts", adminListPostsHandler(svcs.Blog, logger))
				r.Post("/admin/blog-posts", createPostHandler(svcs.Blog, logger))
				r.Post("/admin/blog/generate", generatePostHandler(svcs.Blog, logger))
				r.Patch("/admin/blog-posts/{postId}/status", updatePostStatusHandler(svcs.Blog, logger))
				r.Delete("/admin/blog-posts/{postId}", deletePostHandler(svcs.Blog, logger))
			})
		})
	})

	return r
}

// ============================================================
// Operacionales — /healthz, /readyz, /v1/metrics/payments
// ============================================================

func healthzHandler(svcs Services, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC().Format(time.RFC3339)
		report := func(name string, configured bool) domain.ServiceHealth {
			status := "healthy"
			if !configured {
				status = "degraded"
			}
			return domain.ServiceHealth{Name: name, Status: status, LastChecked: now}
		}

		health := domain.HealthStatus{
			Status: "healthy",
			Services: []domain.ServiceHealth{
				report("firestore", svcs.Profiles != nil),
				report("stripe", svcs.Checkout != nil),
				report("perplexity", svcs.GeneratorReady),
			},
		}
		for _, s := range health.Services {
			if s.Status != "healthy" {
				health.Status = "degraded"
				break
			}
		}
		writeJSON(w, http.StatusOK, health)
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func paymentMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/payments")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetPaymentSnapshot())
	}
}

func adminDashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/dashboard")
		defer span.End()

		dash, err := svc.GetAdminDashboard(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}
