package stripewebhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/danilompg/sitescope-backend/pkg/db/models"
	"github.com/danilompg/sitescope-backend/pkg/enums"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
	"github.com/danilompg/sitescope-backend/pkg/logger"
	"github.com/danilompg/sitescope-backend/pkg/metrics"
)

type subscriptionRepository interface {
	UpdateStatusByStripeID(ctx context.Context, stripeSubscriptionID string, status enums.SubscriptionStatus) (int64, error)
}

type userRepository interface {
	FindByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error)
}

type signInLinkSender interface {
	SendSignInLink(ctx context.Context, email, redirectTo string) error
}

type ServiceParams struct {
	SubscriptionRepo subscriptionRepository
	UserRepo         userRepository
	Identity         signInLinkSender
	Logger           *logger.Logger
	Metrics          *metrics.WebhookMetrics
	SignInRedirect   string
}

// Service reconciles subscription state from billing processor events.
// Deliveries are applied as-is on every receipt; the processor's retry
// behavior is the only dedup we rely on, and replays are harmless because
// every handler writes an absolute status.
type Service struct {
	subscriptionRepo subscriptionRepository
	userRepo         userRepository
	identity         signInLinkSender
	logg             *logger.Logger
	webhookMetrics   *metrics.WebhookMetrics
	signInRedirect   string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.SubscriptionRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription repo required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repo required")
	}
	return &Service{
		subscriptionRepo: params.SubscriptionRepo,
		userRepo:         params.UserRepo,
		identity:         params.Identity,
		logg:             params.Logger,
		webhookMetrics:   params.Metrics,
		signInRedirect:   params.SignInRedirect,
	}, nil
}

// HandleEvent applies one processor event. A nil return means the delivery
// was fully handled (including deliberately ignored event types); any error
// signals the processor to retry.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "event data required")
	}

	var err error
	switch event.Type {
	case stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		err = s.handleSubscriptionChange(ctx, event)
	case stripe.EventTypeInvoicePaymentFailed:
		err = s.handlePaymentFailed(ctx, event)
	case stripe.EventTypeInvoicePaymentSucceeded:
		err = s.handlePaymentSucceeded(ctx, event)
	default:
		// Unrecognized events are acknowledged so the processor stops
		// delivering them.
		s.webhookMetrics.IncEvent(string(event.Type), metrics.OutcomeSkipped)
		return nil
	}

	if err != nil {
		s.webhookMetrics.IncEvent(string(event.Type), metrics.OutcomeFailed)
		return err
	}
	s.webhookMetrics.IncEvent(string(event.Type), metrics.OutcomeProcessed)
	return nil
}

func (s *Service) handleSubscriptionChange(ctx context.Context, event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode subscription event")
	}
	if strings.TrimSpace(sub.ID) == "" || sub.Status == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "subscription event missing id or status")
	}

	status := enums.SubscriptionStatusFromProcessor(string(sub.Status))
	return s.applyStatus(ctx, sub.ID, status)
}

func (s *Service) handlePaymentFailed(ctx context.Context, event *stripe.Event) error {
	subscriptionID := event.GetObjectValue("subscription")
	if subscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "invoice event missing subscription id")
	}
	return s.applyStatus(ctx, subscriptionID, enums.SubscriptionStatusPastDue)
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, event *stripe.Event) error {
	subscriptionID := event.GetObjectValue("subscription")
	if subscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "invoice event missing subscription id")
	}
	if err := s.applyStatus(ctx, subscriptionID, enums.SubscriptionStatusActive); err != nil {
		return err
	}

	// Sign-in link delivery is best effort: a notification failure must not
	// make the processor retry an already-applied status update.
	s.sendSignInLink(ctx, event.GetObjectValue("customer"))
	return nil
}

func (s *Service) applyStatus(ctx context.Context, stripeSubscriptionID string, status enums.SubscriptionStatus) error {
	rows, err := s.subscriptionRepo.UpdateStatusByStripeID(ctx, stripeSubscriptionID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update subscription status")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeInternal, "no subscription matches event")
	}
	return nil
}

func (s *Service) sendSignInLink(ctx context.Context, customerID string) {
	if s.identity == nil || customerID == "" {
		return
	}

	user, err := s.userRepo.FindByStripeCustomerID(ctx, customerID)
	if err != nil {
		s.logError(ctx, "resolve user for sign-in link", err)
		return
	}
	if user == nil {
		return
	}

	if err := s.identity.SendSignInLink(ctx, user.Email, s.signInRedirect); err != nil {
		s.logError(ctx, "send sign-in link", err)
	}
}

func (s *Service) logError(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(ctx, msg, err)
}
