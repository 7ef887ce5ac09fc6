package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/danilompg/sitescope-backend/api/responses"
	"github.com/danilompg/sitescope-backend/pkg/config"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
	"github.com/danilompg/sitescope-backend/pkg/logger"
)

// SubscriptionChecker answers whether a user is entitled to gated features.
type SubscriptionChecker interface {
	HasActiveForUser(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RequireActiveSubscription gates paid features. Routes mounted outside this
// middleware (auth, webhooks, checkout, the public pages) bypass the check by
// construction.
func RequireActiveSubscription(checker SubscriptionChecker, siteCfg config.SiteConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	checkoutURL := strings.TrimRight(siteCfg.PublicBaseURL, "/") + "/checkout"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := uuid.Parse(UserIDFromContext(r.Context()))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session"))
				return
			}

			active, err := checker.HasActiveForUser(r.Context(), userID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check subscription"))
				return
			}
			if !active {
				appErr := pkgerrors.New(pkgerrors.CodeSubscription, "active subscription required").
					WithDetails(map[string]string{"checkout_url": checkoutURL})
				responses.WriteError(r.Context(), logg, w, appErr)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
