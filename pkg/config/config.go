package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	Identity     IdentityConfig
	Analyzer     AnalyzerConfig
	Site         SiteConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SITESCOPE_APP_ENV" required:"true"`
	Port         string `envconfig:"SITESCOPE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SITESCOPE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SITESCOPE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SITESCOPE_DB_DSN"`
	Driver string `envconfig:"SITESCOPE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SITESCOPE_DB_HOST"`
	LegacyPort     int    `envconfig:"SITESCOPE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SITESCOPE_DB_USER"`
	LegacyPassword string `envconfig:"SITESCOPE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SITESCOPE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SITESCOPE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SITESCOPE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SITESCOPE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SITESCOPE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SITESCOPE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SITESCOPE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SITESCOPE_REDIS_ADDR"`
	Password     string        `envconfig:"SITESCOPE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SITESCOPE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SITESCOPE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SITESCOPE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SITESCOPE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SITESCOPE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SITESCOPE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SITESCOPE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SITESCOPE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SITESCOPE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type RateLimitConfig struct {
	MagicLinkWindow     time.Duration `envconfig:"SITESCOPE_RATE_LIMIT_MAGIC_LINK_WINDOW" default:"1m"`
	MagicLinkEmailLimit int           `envconfig:"SITESCOPE_RATE_LIMIT_MAGIC_LINK_EMAIL_LIMIT" default:"3"`
	MagicLinkIPLimit    int           `envconfig:"SITESCOPE_RATE_LIMIT_MAGIC_LINK_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SITESCOPE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SITESCOPE_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey         string `envconfig:"SITESCOPE_STRIPE_API_KEY"`
	WebhookSecret  string `envconfig:"SITESCOPE_STRIPE_WEBHOOK_SECRET"`
	Env            string `envconfig:"SITESCOPE_STRIPE_ENV" default:"test"`
	MonthlyPriceID string `envconfig:"SITESCOPE_STRIPE_MONTHLY_PRICE_ID"`
	AnnualPriceID  string `envconfig:"SITESCOPE_STRIPE_ANNUAL_PRICE_ID"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// IdentityConfig holds the external auth provider endpoint and its two
// capability-scoped API keys. The service key is only ever handed to the
// privileged client that sends sign-in links.
type IdentityConfig struct {
	BaseURL    string `envconfig:"SITESCOPE_IDENTITY_BASE_URL"`
	AnonKey    string `envconfig:"SITESCOPE_IDENTITY_ANON_KEY"`
	ServiceKey string `envconfig:"SITESCOPE_IDENTITY_SERVICE_KEY"`
}

type AnalyzerConfig struct {
	WebhookURL string        `envconfig:"SITESCOPE_ANALYZER_WEBHOOK_URL"`
	Timeout    time.Duration `envconfig:"SITESCOPE_ANALYZER_TIMEOUT" default:"60s"`
}

// SiteConfig carries the public base URL used to build redirect targets
// (magic-link verification, checkout success/cancel pages).
type SiteConfig struct {
	PublicBaseURL string `envconfig:"SITESCOPE_PUBLIC_BASE_URL" default:"http://localhost:3000"`
}

// VerifyRedirectURL is the post-magic-link landing page.
func (s SiteConfig) VerifyRedirectURL() string {
	return strings.TrimRight(s.PublicBaseURL, "/") + "/auth/verify-request"
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"SITESCOPE_CRON_INTERVAL" default:"6h"`
	ReconcileLookback time.Duration `envconfig:"SITESCOPE_CRON_RECONCILE_LOOKBACK" default:"168h"`
	ReconcileBatch    int           `envconfig:"SITESCOPE_CRON_RECONCILE_BATCH" default:"100"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
