package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/danilompg/sitescope-backend/api/responses"
	"github.com/danilompg/sitescope-backend/api/validators"
	"github.com/danilompg/sitescope-backend/internal/identity"
	"github.com/danilompg/sitescope-backend/internal/users"
	pkgauth "github.com/danilompg/sitescope-backend/pkg/auth"
	"github.com/danilompg/sitescope-backend/pkg/config"
	"github.com/danilompg/sitescope-backend/pkg/db/models"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
	"github.com/danilompg/sitescope-backend/pkg/logger"
)

type magicLinkPayload struct {
	Email string `json:"email" validate:"required,email"`
}

type sessionPayload struct {
	AccessToken string `json:"access_token" validate:"required"`
}

type userFinder interface {
	FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error)
}

type magicLinkSender interface {
	SendSignInLink(ctx context.Context, email, redirectTo string) error
}

type identityResolver interface {
	GetUser(ctx context.Context, accessToken string) (*identity.User, error)
}

// RequestMagicLink emails a one-time sign-in link through the identity
// provider's privileged client.
func RequestMagicLink(userRepo userFinder, sender magicLinkSender, siteCfg config.SiteConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sender == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity provider unavailable"))
			return
		}

		var payload magicLinkPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if _, err := userRepo.FindOrCreateByEmail(ctx, payload.Email); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prepare account"))
			return
		}

		if err := sender.SendSignInLink(ctx, payload.Email, siteCfg.VerifyRedirectURL()); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"sent": true})
	}
}

// CreateSession exchanges a provider-issued access token for an API session.
func CreateSession(userRepo userFinder, resolver identityResolver, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if resolver == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity provider unavailable"))
			return
		}

		var payload sessionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		providerUser, err := resolver.GetUser(ctx, payload.AccessToken)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := userRepo.FindOrCreateByEmail(ctx, providerUser.Email)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve account"))
			return
		}

		token, err := pkgauth.MintAccessToken(jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
			UserID: user.ID,
			Email:  user.Email,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"token": token,
			"user":  users.FromModel(user),
		})
	}
}
