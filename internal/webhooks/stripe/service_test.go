package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/danilompg/sitescope-backend/pkg/db/models"
	"github.com/danilompg/sitescope-backend/pkg/enums"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
)

type statusUpdate struct {
	stripeSubscriptionID string
	status               enums.SubscriptionStatus
}

type stubSubscriptionRepo struct {
	updates []statusUpdate
	rows    int64
	err     error
}

func (s *stubSubscriptionRepo) UpdateStatusByStripeID(_ context.Context, id string, status enums.SubscriptionStatus) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.updates = append(s.updates, statusUpdate{stripeSubscriptionID: id, status: status})
	return s.rows, nil
}

type stubUserRepo struct {
	user    *models.User
	err     error
	lookups []string
}

func (s *stubUserRepo) FindByStripeCustomerID(_ context.Context, customerID string) (*models.User, error) {
	s.lookups = append(s.lookups, customerID)
	return s.user, s.err
}

type stubIdentity struct {
	sent []string
	err  error
}

func (s *stubIdentity) SendSignInLink(_ context.Context, email, _ string) error {
	s.sent = append(s.sent, email)
	return s.err
}

func newTestService(t *testing.T, subs *stubSubscriptionRepo, users *stubUserRepo, identity *stubIdentity) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		SubscriptionRepo: subs,
		UserRepo:         users,
		Identity:         identity,
		SignInRedirect:   "https://app.test/auth/verify-request",
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc
}

func subscriptionEvent(t *testing.T, eventType stripe.EventType, id string, status stripe.SubscriptionStatus) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(&stripe.Subscription{ID: id, Status: status})
	if err != nil {
		t.Fatalf("marshal subscription: %v", err)
	}
	return &stripe.Event{Type: eventType, Data: &stripe.EventData{Raw: raw}}
}

func invoiceEvent(eventType stripe.EventType, subscriptionID, customerID string) *stripe.Event {
	object := map[string]interface{}{}
	if subscriptionID != "" {
		object["subscription"] = subscriptionID
	}
	if customerID != "" {
		object["customer"] = customerID
	}
	return &stripe.Event{Type: eventType, Data: &stripe.EventData{Object: object}}
}

func TestHandleEvent_SubscriptionUpdatedMapsProcessorStatus(t *testing.T) {
	cases := []struct {
		name      string
		eventType stripe.EventType
		status    stripe.SubscriptionStatus
		want      enums.SubscriptionStatus
	}{
		{"updated active", stripe.EventTypeCustomerSubscriptionUpdated, stripe.SubscriptionStatusActive, enums.SubscriptionStatusActive},
		{"updated canceled", stripe.EventTypeCustomerSubscriptionUpdated, stripe.SubscriptionStatusCanceled, enums.SubscriptionStatusInactive},
		{"updated unpaid", stripe.EventTypeCustomerSubscriptionUpdated, stripe.SubscriptionStatusUnpaid, enums.SubscriptionStatusInactive},
		{"deleted canceled", stripe.EventTypeCustomerSubscriptionDeleted, stripe.SubscriptionStatusCanceled, enums.SubscriptionStatusInactive},
		{"deleted active", stripe.EventTypeCustomerSubscriptionDeleted, stripe.SubscriptionStatusActive, enums.SubscriptionStatusActive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			subs := &stubSubscriptionRepo{rows: 1}
			svc := newTestService(t, subs, &stubUserRepo{}, &stubIdentity{})

			event := subscriptionEvent(t, tc.eventType, "sub_123", tc.status)
			if err := svc.HandleEvent(context.Background(), event); err != nil {
				t.Fatalf("handle event: %v", err)
			}
			if len(subs.updates) != 1 {
				t.Fatalf("expected one update, got %d", len(subs.updates))
			}
			if subs.updates[0].stripeSubscriptionID != "sub_123" {
				t.Fatalf("unexpected subscription id %q", subs.updates[0].stripeSubscriptionID)
			}
			if subs.updates[0].status != tc.want {
				t.Fatalf("expected status %s, got %s", tc.want, subs.updates[0].status)
			}
		})
	}
}

func TestHandleEvent_PaymentFailedMarksPastDue(t *testing.T) {
	subs := &stubSubscriptionRepo{rows: 1}
	svc := newTestService(t, subs, &stubUserRepo{}, &stubIdentity{})

	event := invoiceEvent(stripe.EventTypeInvoicePaymentFailed, "sub_late", "cus_1")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(subs.updates) != 1 || subs.updates[0].status != enums.SubscriptionStatusPastDue {
		t.Fatalf("expected past_due update, got %+v", subs.updates)
	}
}

func TestHandleEvent_PaymentSucceededActivatesAndSendsLink(t *testing.T) {
	subs := &stubSubscriptionRepo{rows: 1}
	users := &stubUserRepo{user: &models.User{ID: uuid.New(), Email: "payer@example.com"}}
	identity := &stubIdentity{}
	svc := newTestService(t, subs, users, identity)

	event := invoiceEvent(stripe.EventTypeInvoicePaymentSucceeded, "sub_paid", "cus_42")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(subs.updates) != 1 || subs.updates[0].status != enums.SubscriptionStatusActive {
		t.Fatalf("expected active update, got %+v", subs.updates)
	}
	if len(users.lookups) != 1 || users.lookups[0] != "cus_42" {
		t.Fatalf("expected customer lookup, got %v", users.lookups)
	}
	if len(identity.sent) != 1 || identity.sent[0] != "payer@example.com" {
		t.Fatalf("expected sign-in link sent, got %v", identity.sent)
	}
}

func TestHandleEvent_PaymentSucceededNotificationFailureIsSwallowed(t *testing.T) {
	subs := &stubSubscriptionRepo{rows: 1}
	users := &stubUserRepo{user: &models.User{Email: "payer@example.com"}}
	identity := &stubIdentity{err: errors.New("provider down")}
	svc := newTestService(t, subs, users, identity)

	event := invoiceEvent(stripe.EventTypeInvoicePaymentSucceeded, "sub_paid", "cus_42")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("notification failure must not fail the delivery: %v", err)
	}
	if len(identity.sent) != 1 {
		t.Fatalf("expected one send attempt, got %d", len(identity.sent))
	}
}

func TestHandleEvent_PaymentSucceededWithoutUserSkipsLink(t *testing.T) {
	subs := &stubSubscriptionRepo{rows: 1}
	users := &stubUserRepo{user: nil}
	identity := &stubIdentity{}
	svc := newTestService(t, subs, users, identity)

	event := invoiceEvent(stripe.EventTypeInvoicePaymentSucceeded, "sub_paid", "cus_unknown")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(identity.sent) != 0 {
		t.Fatalf("expected no send attempt, got %v", identity.sent)
	}
}

func TestHandleEvent_DuplicateDeliveriesBothApply(t *testing.T) {
	subs := &stubSubscriptionRepo{rows: 1}
	users := &stubUserRepo{user: &models.User{Email: "payer@example.com"}}
	identity := &stubIdentity{}
	svc := newTestService(t, subs, users, identity)

	event := invoiceEvent(stripe.EventTypeInvoicePaymentSucceeded, "sub_paid", "cus_42")
	for i := 0; i < 2; i++ {
		if err := svc.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}
	if len(subs.updates) != 2 {
		t.Fatalf("expected both deliveries to apply, got %d updates", len(subs.updates))
	}
	if len(identity.sent) != 2 {
		t.Fatalf("expected both deliveries to send a link, got %d", len(identity.sent))
	}
}

func TestHandleEvent_UnknownEventTypeIsNoop(t *testing.T) {
	subs := &stubSubscriptionRepo{rows: 1}
	users := &stubUserRepo{}
	identity := &stubIdentity{}
	svc := newTestService(t, subs, users, identity)

	event := &stripe.Event{Type: "product.created", Data: &stripe.EventData{Raw: json.RawMessage(`{}`)}}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown events must ack: %v", err)
	}
	if len(subs.updates) != 0 {
		t.Fatalf("expected no updates, got %+v", subs.updates)
	}
	if len(users.lookups) != 0 || len(identity.sent) != 0 {
		t.Fatal("expected no side effects for unknown event")
	}
}

func TestHandleEvent_NoMatchingSubscriptionFailsDelivery(t *testing.T) {
	subs := &stubSubscriptionRepo{rows: 0}
	svc := newTestService(t, subs, &stubUserRepo{}, &stubIdentity{})

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, "sub_missing", stripe.SubscriptionStatusActive)
	err := svc.HandleEvent(context.Background(), event)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error for missing row, got %v", err)
	}
}

func TestHandleEvent_StoreFailureFailsDelivery(t *testing.T) {
	subs := &stubSubscriptionRepo{err: errors.New("db down")}
	svc := newTestService(t, subs, &stubUserRepo{}, &stubIdentity{})

	event := invoiceEvent(stripe.EventTypeInvoicePaymentFailed, "sub_late", "")
	err := svc.HandleEvent(context.Background(), event)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestHandleEvent_MalformedPayloadFailsDelivery(t *testing.T) {
	subs := &stubSubscriptionRepo{rows: 1}
	svc := newTestService(t, subs, &stubUserRepo{}, &stubIdentity{})

	for _, tc := range []struct {
		name  string
		event *stripe.Event
	}{
		{"subscription event missing id", subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, "", stripe.SubscriptionStatusActive)},
		{"invoice event missing subscription", invoiceEvent(stripe.EventTypeInvoicePaymentFailed, "", "cus_1")},
		{"nil data", &stripe.Event{Type: stripe.EventTypeCustomerSubscriptionUpdated}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.HandleEvent(context.Background(), tc.event)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeInternal {
				t.Fatalf("expected internal error, got %v", err)
			}
		})
	}
	if len(subs.updates) != 0 {
		t.Fatalf("expected no updates from malformed payloads, got %+v", subs.updates)
	}
}
