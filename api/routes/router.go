package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danilompg/sitescope-backend/api/controllers"
	webhookcontrollers "github.com/danilompg/sitescope-backend/api/controllers/webhooks"
	"github.com/danilompg/sitescope-backend/api/middleware"
	"github.com/danilompg/sitescope-backend/internal/analyses"
	"github.com/danilompg/sitescope-backend/internal/checkout"
	"github.com/danilompg/sitescope-backend/internal/identity"
	"github.com/danilompg/sitescope-backend/internal/users"
	stripewebhook "github.com/danilompg/sitescope-backend/internal/webhooks/stripe"
	"github.com/danilompg/sitescope-backend/pkg/config"
	"github.com/danilompg/sitescope-backend/pkg/logger"
	"github.com/danilompg/sitescope-backend/pkg/metrics"
	"github.com/danilompg/sitescope-backend/pkg/redis"
	"github.com/danilompg/sitescope-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	userRepo *users.Repository,
	subscriptionChecker middleware.SubscriptionChecker,
	identityService *identity.Client,
	identityAnon *identity.Client,
	checkoutService *checkout.Service,
	analysesService *analyses.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	webhookMetrics *metrics.WebhookMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Site),
	)

	magicLinkLimiter := func(next http.Handler) http.Handler { return next }
	if redisClient != nil {
		magicLinkPolicy := middleware.NewRateLimitPolicy(
			"magic_link",
			cfg.RateLimit.MagicLinkWindow,
			cfg.RateLimit.MagicLinkIPLimit,
			cfg.RateLimit.MagicLinkEmailLimit,
		)
		magicLinkLimiter = middleware.RateLimit(magicLinkPolicy, redisClient, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, webhookMetrics, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(magicLinkLimiter).
			Post("/magic-link", controllers.RequestMagicLink(userRepo, identityService, cfg.Site, logg))
		r.Post("/session", controllers.CreateSession(userRepo, identityAnon, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireSession(cfg.JWT, logg))

		// Checkout and the subscription check stay outside the gate so a
		// lapsed user can still pay.
		r.Get("/plans", controllers.ListPlans(cfg.Stripe))
		r.Post("/checkout/session", controllers.CreateCheckoutSession(checkoutService, logg))
		r.Get("/checkout/verify", controllers.VerifyPayment(checkoutService, logg))
		r.Get("/subscription/status", controllers.SubscriptionStatus(checkoutService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireActiveSubscription(subscriptionChecker, cfg.Site, logg))
			r.Post("/analyze", controllers.AnalyzeWebsite(analysesService, logg))
			r.Route("/analyses", func(r chi.Router) {
				r.Post("/", controllers.SaveAnalysis(analysesService, logg))
				r.Get("/", controllers.ListAnalyses(analysesService, logg))
			})
		})
	})

	return r
}
