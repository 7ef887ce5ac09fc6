package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/subscription"

	pkgstripe "github.com/danilompg/sitescope-backend/pkg/stripe"
)

// StripeCheckoutClient exposes the subset of Stripe operations required by the checkout service.
type StripeCheckoutClient interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetSession(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the checkout service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeCheckoutClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return checkoutsession.New(params)
}

func (w *stripeClientWrapper) GetSession(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return checkoutsession.Get(id, params)
}

func (w *stripeClientWrapper) GetSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	if params != nil {
		params.Context = ctx
	}
	return subscription.Get(id, params)
}
