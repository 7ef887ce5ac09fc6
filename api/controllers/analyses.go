package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/danilompg/sitescope-backend/api/responses"
	"github.com/danilompg/sitescope-backend/api/validators"
	"github.com/danilompg/sitescope-backend/internal/analyses"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
	"github.com/danilompg/sitescope-backend/pkg/logger"
)

type analyzePayload struct {
	URL string `json:"url" validate:"required"`
}

type saveAnalysisPayload struct {
	URL    string          `json:"url" validate:"required"`
	Scores json.RawMessage `json:"scores" validate:"required"`
}

// AnalyzeWebsite runs the external scoring pipeline for a website.
func AnalyzeWebsite(svc *analyses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analysis service unavailable"))
			return
		}

		userID, appErr := sessionUserID(r)
		if appErr != nil {
			responses.WriteError(ctx, logg, w, appErr)
			return
		}

		var payload analyzePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Analyze(ctx, userID, payload.URL)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SaveAnalysis stores a completed analysis in the user's history.
func SaveAnalysis(svc *analyses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analysis service unavailable"))
			return
		}

		userID, appErr := sessionUserID(r)
		if appErr != nil {
			responses.WriteError(ctx, logg, w, appErr)
			return
		}

		var payload saveAnalysisPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		saved, err := svc.Save(ctx, userID, payload.URL, payload.Scores)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, saved)
	}
}

// ListAnalyses returns the user's saved analyses, newest first.
func ListAnalyses(svc *analyses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analysis service unavailable"))
			return
		}

		userID, appErr := sessionUserID(r)
		if appErr != nil {
			responses.WriteError(ctx, logg, w, appErr)
			return
		}

		rows, err := svc.ListByUser(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
