package identity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/danilompg/sitescope-backend/pkg/config"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testIdentityConfig() config.IdentityConfig {
	return config.IdentityConfig{
		BaseURL:    "http://identity.test",
		AnonKey:    "anon-key",
		ServiceKey: "service-key",
	}
}

func TestSendSignInLinkRequestShape(t *testing.T) {
	var capturedURL string
	var capturedHeaders http.Header
	var capturedBody map[string]any

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(bodyBytes, &capturedBody); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewServiceClient(testIdentityConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.SendSignInLink(context.Background(), "user@example.com", "https://app.test/auth/verify-request")
	if err != nil {
		t.Fatalf("send sign-in link: %v", err)
	}

	if !strings.HasPrefix(capturedURL, "http://identity.test/auth/v1/otp?redirect_to=") {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if !strings.Contains(capturedURL, "verify-request") {
		t.Fatalf("redirect target missing from URL %q", capturedURL)
	}
	if capturedHeaders.Get("apikey") != "service-key" {
		t.Fatalf("apikey header missing")
	}
	if capturedHeaders.Get("Authorization") != "Bearer service-key" {
		t.Fatalf("authorization header missing")
	}
	if capturedBody["email"] != "user@example.com" {
		t.Fatalf("unexpected email %v", capturedBody["email"])
	}
	if capturedBody["create_user"] != true {
		t.Fatalf("expected create_user=true")
	}
}

func TestSendSignInLinkRequiresServiceCapability(t *testing.T) {
	client, err := NewAnonClient(testIdentityConfig())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.SendSignInLink(context.Background(), "user@example.com", "")
	if !errors.Is(err, ErrPrivilegeRequired) {
		t.Fatalf("expected ErrPrivilegeRequired, got %v", err)
	}
}

func TestSendSignInLinkProviderFailure(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(strings.NewReader(`{"error":"rate limited"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewServiceClient(testIdentityConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.SendSignInLink(context.Background(), "user@example.com", "")
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGetUserResolvesIdentity(t *testing.T) {
	var capturedAuth string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedAuth = req.Header.Get("Authorization")
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"id":"11111111-1111-1111-1111-111111111111","email":"user@example.com"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewAnonClient(testIdentityConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	user, err := client.GetUser(context.Background(), "provider-token")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}
	if capturedAuth != "Bearer provider-token" {
		t.Fatalf("expected user token in authorization header, got %q", capturedAuth)
	}
}

func TestGetUserRejectedToken(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       io.NopCloser(strings.NewReader(`{}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewAnonClient(testIdentityConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.GetUser(context.Background(), "bad-token")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewServiceClient(config.IdentityConfig{BaseURL: "http://identity.test"}); err == nil {
		t.Fatal("expected error for missing service key")
	}
	if _, err := NewAnonClient(config.IdentityConfig{AnonKey: "anon"}); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
