package config

// EnvPrefix is the envconfig prefix shared by every SiteScope variable.
const EnvPrefix = "SITESCOPE"

const (
	AppEnvDev     = "development"
	AppEnvStaging = "staging"
	AppEnvProd    = "production"
)

// Environment variable names, spelled out so tests and ops tooling can
// reference them without typos.
const (
	EnvAppEnv   = "SITESCOPE_APP_ENV"
	EnvPort     = "SITESCOPE_APP_PORT"
	EnvLogLevel = "SITESCOPE_LOG_LEVEL"

	EnvDBDSN  = "SITESCOPE_DB_DSN"
	EnvDBHost = "SITESCOPE_DB_HOST"
	EnvDBUser = "SITESCOPE_DB_USER"
	EnvDBName = "SITESCOPE_DB_NAME"

	EnvRedisURL = "SITESCOPE_REDIS_URL"

	EnvJWTSecret  = "SITESCOPE_JWT_SECRET"
	EnvJWTIssuer  = "SITESCOPE_JWT_ISSUER"
	EnvJWTExpMins = "SITESCOPE_JWT_EXPIRATION_MINUTES"

	EnvStripeAPIKey         = "SITESCOPE_STRIPE_API_KEY"
	EnvStripeWebhookSecret  = "SITESCOPE_STRIPE_WEBHOOK_SECRET"
	EnvStripeMonthlyPriceID = "SITESCOPE_STRIPE_MONTHLY_PRICE_ID"
	EnvStripeAnnualPriceID  = "SITESCOPE_STRIPE_ANNUAL_PRICE_ID"

	EnvIdentityBaseURL    = "SITESCOPE_IDENTITY_BASE_URL"
	EnvIdentityAnonKey    = "SITESCOPE_IDENTITY_ANON_KEY"
	EnvIdentityServiceKey = "SITESCOPE_IDENTITY_SERVICE_KEY"

	EnvAnalyzerWebhookURL = "SITESCOPE_ANALYZER_WEBHOOK_URL"

	EnvPublicBaseURL = "SITESCOPE_PUBLIC_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
