package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/stripe/stripe-go/v84"

	"github.com/danilompg/sitescope-backend/pkg/config"
	"github.com/danilompg/sitescope-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)

	// ErrNotConfigured is returned when the lazily-initialized shared client
	// is used before any API key has been supplied.
	ErrNotConfigured = errors.New("stripe client not configured")
)

// Client wraps Stripe's API client plus env-specific metadata. The webhook
// signing secret may be empty; the webhook controller rejects deliveries
// itself when no secret is configured.
type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	api := stripe.NewClient(apiKey)
	// The package-level bindings (checkout/session, subscription) authenticate
	// through the global key.
	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		api:           api,
		environment:   env,
		signingSecret: strings.TrimSpace(cfg.WebhookSecret),
	}, nil
}

// API returns the underlying Stripe API client.
func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret, empty when unconfigured.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

var (
	sharedMu     sync.Mutex
	sharedClient *Client
	sharedCfg    config.StripeConfig
	sharedSet    bool
)

// Configure records the config used for the process-wide shared client.
// The client itself is not built until the first Shared call.
func Configure(cfg config.StripeConfig) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	sharedCfg = cfg
	sharedSet = true
	sharedClient = nil
}

// Shared returns the lazily-initialized process-wide client. First use under
// the lock builds it; concurrent callers see either no client or a fully
// constructed one. Returns ErrNotConfigured when no API key was supplied.
func Shared(ctx context.Context, logg *logger.Logger) (*Client, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedClient != nil {
		return sharedClient, nil
	}
	if !sharedSet || strings.TrimSpace(sharedCfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}

	client, err := NewClient(ctx, sharedCfg, logg)
	if err != nil {
		return nil, err
	}
	sharedClient = client
	return sharedClient, nil
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
