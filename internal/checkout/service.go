package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/danilompg/sitescope-backend/pkg/config"
	"github.com/danilompg/sitescope-backend/pkg/db/models"
	"github.com/danilompg/sitescope-backend/pkg/enums"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
}

type subscriptionRepository interface {
	Upsert(ctx context.Context, sub *models.Subscription) error
	HasActiveForUser(ctx context.Context, userID uuid.UUID) (bool, error)
	FindLatestForUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

type ServiceParams struct {
	UserRepo         userRepository
	SubscriptionRepo subscriptionRepository
	StripeClient     StripeCheckoutClient
	StripeConfig     config.StripeConfig
	SiteConfig       config.SiteConfig
}

// Service drives the hosted-checkout purchase flow and answers gating queries.
type Service struct {
	userRepo         userRepository
	subscriptionRepo subscriptionRepository
	stripe           StripeCheckoutClient
	stripeCfg        config.StripeConfig
	siteCfg          config.SiteConfig
}

func NewService(params ServiceParams) (*Service, error) {
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repo required")
	}
	if params.SubscriptionRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	return &Service{
		userRepo:         params.UserRepo,
		subscriptionRepo: params.SubscriptionRepo,
		stripe:           params.StripeClient,
		stripeCfg:        params.StripeConfig,
		siteCfg:          params.SiteConfig,
	}, nil
}

// SessionResult is returned after creating a hosted checkout session.
type SessionResult struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// CreateSession starts a hosted checkout for the chosen plan interval.
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID, email, interval string) (*SessionResult, error) {
	plan, err := ResolvePlan(s.stripeCfg, interval)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(s.siteCfg.PublicBaseURL, "/")
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(plan.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:    stripe.String(base + "/checkout-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(base + "/checkout"),
		CustomerEmail: stripe.String(email),
		Metadata: map[string]string{
			"user_id": userID.String(),
		},
	}

	session, err := s.stripe.CreateSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return &SessionResult{SessionID: session.ID, CheckoutURL: session.URL}, nil
}

// VerifyResult reports the outcome of a post-checkout verification.
type VerifyResult struct {
	Paid   bool                     `json:"paid"`
	Status enums.SubscriptionStatus `json:"status,omitempty"`
}

// VerifySession confirms the session was paid and records the resulting
// subscription against the user.
func (s *Service) VerifySession(ctx context.Context, userID uuid.UUID, sessionID string) (*VerifyResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	session, err := s.stripe.GetSession(ctx, sessionID, &stripe.CheckoutSessionParams{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch checkout session")
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return &VerifyResult{Paid: false}, nil
	}
	if session.Subscription == nil || session.Subscription.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "paid session carries no subscription")
	}

	sub, err := s.stripe.GetSubscription(ctx, session.Subscription.ID, &stripe.SubscriptionParams{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch subscription")
	}

	status := enums.SubscriptionStatusFromProcessor(string(sub.Status))
	record := &models.Subscription{
		UserID:               userID,
		StripeSubscriptionID: sub.ID,
		Status:               status,
	}
	if priceID := determinePriceID(sub); priceID != "" {
		record.PriceID = &priceID
	}
	if end := determinePeriodEnd(sub); !end.IsZero() {
		record.CurrentPeriodEnd = &end
	}

	if err := s.subscriptionRepo.Upsert(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist subscription")
	}

	if session.Customer != nil && session.Customer.ID != "" {
		if err := s.userRepo.SetStripeCustomerID(ctx, userID, session.Customer.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record customer id")
		}
	}

	return &VerifyResult{Paid: true, Status: status}, nil
}

// StatusResult answers the subscription-status query used by the frontend.
type StatusResult struct {
	Active           bool                     `json:"active"`
	Status           enums.SubscriptionStatus `json:"status,omitempty"`
	CurrentPeriodEnd *time.Time               `json:"current_period_end,omitempty"`
}

// Status reports whether the user currently holds an active subscription.
func (s *Service) Status(ctx context.Context, userID uuid.UUID) (*StatusResult, error) {
	active, err := s.subscriptionRepo.HasActiveForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "query subscription status")
	}

	result := &StatusResult{Active: active}
	latest, err := s.subscriptionRepo.FindLatestForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load latest subscription")
	}
	if latest != nil {
		result.Status = latest.Status
		result.CurrentPeriodEnd = latest.CurrentPeriodEnd
	}
	return result, nil
}

func determinePriceID(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	if sub.Items.Data[0].Price != nil {
		return sub.Items.Data[0].Price.ID
	}
	return ""
}

func determinePeriodEnd(sub *stripe.Subscription) time.Time {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return time.Time{}
	}
	end := sub.Items.Data[0].CurrentPeriodEnd
	if end <= 0 {
		return time.Time{}
	}
	return time.Unix(end, 0).UTC()
}
