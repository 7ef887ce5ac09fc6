package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/danilompg/sitescope-backend/pkg/config"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
)

type fakeSubscriptionChecker struct {
	active bool
	err    error
	calls  int
}

func (f *fakeSubscriptionChecker) HasActiveForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	f.calls++
	return f.active, f.err
}

func testSiteConfig() config.SiteConfig {
	return config.SiteConfig{PublicBaseURL: "https://app.sitescope.io"}
}

func gatedRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
	if userID != "" {
		req = req.WithContext(WithUserID(req.Context(), userID))
	}
	return req
}

func TestRequireActiveSubscription_PassesActiveUser(t *testing.T) {
	checker := &fakeSubscriptionChecker{active: true}
	handler := RequireActiveSubscription(checker, testSiteConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gatedRequest(uuid.NewString()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for active subscriber, got %d", rec.Code)
	}
	if checker.calls != 1 {
		t.Fatalf("expected one entitlement check, got %d", checker.calls)
	}
}

func TestRequireActiveSubscription_BlocksInactiveUser(t *testing.T) {
	checker := &fakeSubscriptionChecker{active: false}
	handler := RequireActiveSubscription(checker, testSiteConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without an active subscription")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gatedRequest(uuid.NewString()))

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}

	var payload struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeSubscription) {
		t.Fatalf("unexpected code: %s", payload.Error.Code)
	}
	if payload.Error.Details["checkout_url"] != "https://app.sitescope.io/checkout" {
		t.Fatalf("expected checkout redirect target, got %v", payload.Error.Details)
	}
}

func TestRequireActiveSubscription_MissingSessionAnswers401(t *testing.T) {
	checker := &fakeSubscriptionChecker{active: true}
	handler := RequireActiveSubscription(checker, testSiteConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a session")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gatedRequest(""))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if checker.calls != 0 {
		t.Fatalf("checker must not run without a user id, got %d calls", checker.calls)
	}
}

func TestRequireActiveSubscription_CheckerFailureAnswers500(t *testing.T) {
	checker := &fakeSubscriptionChecker{err: errors.New("db down")}
	handler := RequireActiveSubscription(checker, testSiteConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run when the check fails")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gatedRequest(uuid.NewString()))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
