package analyzer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/danilompg/sitescope-backend/pkg/config"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestAnalyzeRequestShape(t *testing.T) {
	userID := uuid.New()
	respBody := `{"overall":72,"seo":{"score":80}}`

	var capturedURL string
	var capturedBody map[string]string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(bodyBytes, &capturedBody); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(
		config.AnalyzerConfig{WebhookURL: "http://analyzer.test/webhook/analyze"},
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Analyze(context.Background(), "https://example.com", userID)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if capturedURL != "http://analyzer.test/webhook/analyze" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedBody["url"] != "https://example.com" {
		t.Fatalf("unexpected url field %q", capturedBody["url"])
	}
	if capturedBody["userId"] != userID.String() {
		t.Fatalf("unexpected userId field %q", capturedBody["userId"])
	}
	if string(result) != respBody {
		t.Fatalf("unexpected result %s", result)
	}
}

func TestAnalyzeUpstreamFailure(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader("upstream down")),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(
		config.AnalyzerConfig{WebhookURL: "http://analyzer.test/webhook/analyze"},
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Analyze(context.Background(), "https://example.com", uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestAnalyzeRejectsMalformedPayload(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("not json")),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(
		config.AnalyzerConfig{WebhookURL: "http://analyzer.test/webhook/analyze"},
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.Analyze(context.Background(), "https://example.com", uuid.New()); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestNewClientRequiresWebhookURL(t *testing.T) {
	if _, err := NewClient(config.AnalyzerConfig{}); err == nil {
		t.Fatal("expected error for missing webhook url")
	}
}
