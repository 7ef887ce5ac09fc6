package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/danilompg/sitescope-backend/api/middleware"
	"github.com/danilompg/sitescope-backend/api/responses"
	"github.com/danilompg/sitescope-backend/api/validators"
	"github.com/danilompg/sitescope-backend/internal/checkout"
	"github.com/danilompg/sitescope-backend/pkg/config"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
	"github.com/danilompg/sitescope-backend/pkg/logger"
)

type createCheckoutPayload struct {
	Interval string `json:"interval" validate:"required,oneof=monthly annual"`
}

func sessionUserID(r *http.Request) (uuid.UUID, *pkgerrors.Error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	return userID, nil
}

// ListPlans returns the purchasable plan catalog.
func ListPlans(stripeCfg config.StripeConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, checkout.PlansFromConfig(stripeCfg))
	}
}

// CreateCheckoutSession starts a hosted checkout for the session user.
func CreateCheckoutSession(svc *checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, appErr := sessionUserID(r)
		if appErr != nil {
			responses.WriteError(ctx, logg, w, appErr)
			return
		}

		var payload createCheckoutPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.CreateSession(ctx, userID, middleware.EmailFromContext(ctx), payload.Interval)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// VerifyPayment confirms a completed checkout and records the subscription.
func VerifyPayment(svc *checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, appErr := sessionUserID(r)
		if appErr != nil {
			responses.WriteError(ctx, logg, w, appErr)
			return
		}

		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session_id is required"))
			return
		}

		result, err := svc.VerifySession(ctx, userID, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SubscriptionStatus answers the gating query for the session user.
func SubscriptionStatus(svc *checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, appErr := sessionUserID(r)
		if appErr != nil {
			responses.WriteError(ctx, logg, w, appErr)
			return
		}

		result, err := svc.Status(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
