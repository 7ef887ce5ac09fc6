package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danilompg/sitescope-backend/pkg/config"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1 << 20

var errWebhookURLRequired = errors.New("analyzer webhook url is required")

// Client calls the external analysis pipeline that scores a website.
type Client struct {
	httpClient *http.Client
	webhookURL string
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

// NewClient builds the analyzer client from config.
func NewClient(cfg config.AnalyzerConfig, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(cfg.WebhookURL)
	if trimmed == "" {
		return nil, errWebhookURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		webhookURL: trimmed,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	return client, nil
}

// Analyze submits the website for scoring and returns the raw result payload.
func (c *Client) Analyze(ctx context.Context, websiteURL string, userID uuid.UUID) (json.RawMessage, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "analyzer client not configured")
	}
	if strings.TrimSpace(websiteURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "website url is required")
	}

	payload, err := json.Marshal(map[string]string{
		"url":    websiteURL,
		"userId": userID.String(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal analyze request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build analyze request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute analyze request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read analyze response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			"analyze request failed",
		)
	}

	if len(body) == 0 || !json.Valid(body) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "analyzer returned malformed payload")
	}
	return json.RawMessage(body), nil
}
