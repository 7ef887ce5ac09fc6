package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danilompg/sitescope-backend/pkg/config"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
)

const (
	otpPath                     = "/auth/v1/otp"
	userPath                    = "/auth/v1/user"
	healthPath                  = "/auth/v1/health"
	responseBodyReadLimit int64 = 1024
)

var (
	errBaseURLRequired = errors.New("identity base url is required")
	errKeyRequired     = errors.New("identity api key is required")

	// ErrPrivilegeRequired is returned when a capability reserved for the
	// service client is invoked on the anon client.
	ErrPrivilegeRequired = errors.New("operation requires the privileged identity client")
)

// Capability scopes what a client handle is allowed to do.
type Capability string

const (
	CapabilityAnon    Capability = "anon"
	CapabilityService Capability = "service"
)

// Client talks to the external identity provider. Two handles exist per
// process: an anon-scoped one for public operations and a service-scoped one
// that alone may send sign-in links.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	capability Capability
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured identity base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewAnonClient builds the public, anon-scoped identity client.
func NewAnonClient(cfg config.IdentityConfig, opts ...Option) (*Client, error) {
	return newClient(cfg.BaseURL, cfg.AnonKey, CapabilityAnon, opts...)
}

// NewServiceClient builds the privileged identity client. The service key
// never leaves this handle.
func NewServiceClient(cfg config.IdentityConfig, opts ...Option) (*Client, error) {
	return newClient(cfg.BaseURL, cfg.ServiceKey, CapabilityService, opts...)
}

func newClient(baseURL, apiKey string, capability Capability, opts ...Option) (*Client, error) {
	trimmedURL := strings.TrimSpace(baseURL)
	if trimmedURL == "" {
		return nil, errBaseURLRequired
	}
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errKeyRequired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(trimmedURL, "/"),
		apiKey:     trimmedKey,
		capability: capability,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return client, nil
}

// Capability reports which scope this handle carries.
func (c *Client) Capability() Capability {
	if c == nil {
		return ""
	}
	return c.capability
}

// SendSignInLink emails a one-time sign-in link to the address, landing the
// user on redirectTo after verification. Service capability only.
func (c *Client) SendSignInLink(ctx context.Context, email, redirectTo string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "identity client not configured")
	}
	if c.capability != CapabilityService {
		return pkgerrors.Wrap(pkgerrors.CodeForbidden, ErrPrivilegeRequired, "send sign-in link")
	}
	trimmedEmail := strings.TrimSpace(email)
	if trimmedEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	endpoint := c.baseURL + otpPath
	if redirectTo != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	payload, err := json.Marshal(map[string]any{
		"email":       trimmedEmail,
		"create_user": true,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal sign-in link request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build sign-in link request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute sign-in link request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"sign-in link request failed",
		)
	}
	return nil
}

// User is the provider-side identity resolved from an access token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// GetUser resolves the identity behind a provider-issued access token.
// Returns an unauthorized error when the token is rejected.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "identity client not configured")
	}
	trimmedToken := strings.TrimSpace(accessToken)
	if trimmedToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+userPath, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build user request")
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+trimmedToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute user request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token rejected")
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"user request failed",
		)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode user response")
	}
	if user.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "identity provider returned no email")
	}
	return &user, nil
}

// Healthy checks the provider's health endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "identity client not configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build health request")
	}
	httpReq.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute health request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("identity provider unhealthy (status %d)", resp.StatusCode))
	}
	return nil
}
