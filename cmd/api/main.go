package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danilompg/sitescope-backend/api/routes"
	"github.com/danilompg/sitescope-backend/internal/analyses"
	"github.com/danilompg/sitescope-backend/internal/analyzer"
	"github.com/danilompg/sitescope-backend/internal/checkout"
	"github.com/danilompg/sitescope-backend/internal/identity"
	"github.com/danilompg/sitescope-backend/internal/subscriptions"
	"github.com/danilompg/sitescope-backend/internal/users"
	stripewebhook "github.com/danilompg/sitescope-backend/internal/webhooks/stripe"
	"github.com/danilompg/sitescope-backend/pkg/config"
	"github.com/danilompg/sitescope-backend/pkg/db"
	"github.com/danilompg/sitescope-backend/pkg/logger"
	"github.com/danilompg/sitescope-backend/pkg/metrics"
	"github.com/danilompg/sitescope-backend/pkg/migrate"
	"github.com/danilompg/sitescope-backend/pkg/redis"
	pkgstripe "github.com/danilompg/sitescope-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pkgstripe.Configure(cfg.Stripe)
	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Warn(context.Background(), "stripe client not configured: "+err.Error())
		stripeClient = nil
	}

	identityService, err := identity.NewServiceClient(cfg.Identity)
	if err != nil {
		logg.Warn(context.Background(), "identity service client not configured: "+err.Error())
		identityService = nil
	}
	identityAnon, err := identity.NewAnonClient(cfg.Identity)
	if err != nil {
		logg.Warn(context.Background(), "identity anon client not configured: "+err.Error())
		identityAnon = nil
	}

	userRepo := users.NewRepository(dbClient.DB())
	subscriptionRepo := subscriptions.NewRepository(dbClient.DB())
	analysesRepo := analyses.NewRepository(dbClient.DB())

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)
	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		SubscriptionRepo: subscriptionRepo,
		UserRepo:         userRepo,
		Identity:         identityService,
		Logger:           logg,
		Metrics:          webhookMetrics,
		SignInRedirect:   cfg.Site.VerifyRedirectURL(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	var analysesService *analyses.Service
	analyzerClient, err := analyzer.NewClient(cfg.Analyzer)
	if err != nil {
		logg.Warn(context.Background(), "analyzer client not configured: "+err.Error())
	} else {
		analysesService, err = analyses.NewService(analysesRepo, analyzerClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create analyses service", err)
			os.Exit(1)
		}
	}

	var checkoutService *checkout.Service
	if stripeClient != nil {
		checkoutService, err = checkout.NewService(checkout.ServiceParams{
			UserRepo:         userRepo,
			SubscriptionRepo: subscriptionRepo,
			StripeClient:     checkout.NewStripeClient(stripeClient),
			StripeConfig:     cfg.Stripe,
			SiteConfig:       cfg.Site,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create checkout service", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			userRepo,
			subscriptionRepo,
			identityService,
			identityAnon,
			checkoutService,
			analysesService,
			stripeClient,
			webhookService,
			webhookMetrics,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
