package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/danilompg/sitescope-backend/api/responses"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
	"github.com/danilompg/sitescope-backend/pkg/logger"
	"github.com/danilompg/sitescope-backend/pkg/metrics"
)

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type stripeClient interface {
	SigningSecret() string
}

// StripeWebhook handles billing processor deliveries. Verification runs over
// the exact raw request bytes; any signature problem, including a missing
// header or an unconfigured secret, answers 400 so the processor marks the
// delivery failed without endless retries.
func StripeWebhook(svc StripeWebhookService, client stripeClient, webhookMetrics *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil || client.SigningSecret() == "" {
			webhookMetrics.IncRejected()
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignature, "webhook signing secret not configured"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			webhookMetrics.IncRejected()
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignature, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			webhookMetrics.IncRejected()
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeSignature, err, "verify signature"))
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("stripe event %s processed", event.ID))
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
