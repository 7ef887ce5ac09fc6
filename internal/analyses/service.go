package analyses

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/danilompg/sitescope-backend/pkg/db/models"
	pkgerrors "github.com/danilompg/sitescope-backend/pkg/errors"
)

const defaultListLimit = 50

type analyzerClient interface {
	Analyze(ctx context.Context, websiteURL string, userID uuid.UUID) (json.RawMessage, error)
}

type repository interface {
	Create(ctx context.Context, analysis *models.Analysis) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Analysis, error)
}

// Service runs website analyses and manages their history.
type Service struct {
	repo     repository
	analyzer analyzerClient
}

// NewService wires the analyses service.
func NewService(repo repository, analyzer analyzerClient) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "analyses repo required")
	}
	if analyzer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "analyzer client required")
	}
	return &Service{repo: repo, analyzer: analyzer}, nil
}

// Analyze scores the website through the external pipeline. The result is not
// persisted; the client saves explicitly.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID, websiteURL string) (json.RawMessage, error) {
	normalized, err := normalizeURL(websiteURL)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Analyze(ctx, normalized, userID)
}

// Save persists an analysis result for the user.
func (s *Service) Save(ctx context.Context, userID uuid.UUID, websiteURL string, scores json.RawMessage) (*models.Analysis, error) {
	normalized, err := normalizeURL(websiteURL)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 || !json.Valid(scores) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scores payload must be valid JSON")
	}

	analysis := &models.Analysis{
		UserID:     userID,
		WebsiteURL: normalized,
		Scores:     scores,
	}
	if err := s.repo.Create(ctx, analysis); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist analysis")
	}
	return analysis, nil
}

// ListByUser returns the user's saved analyses, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Analysis, error) {
	rows, err := s.repo.ListByUser(ctx, userID, defaultListLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list analyses")
	}
	return rows, nil
}

func normalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "website url is required")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || !strings.Contains(parsed.Host, ".") {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "website url is invalid")
	}
	return parsed.String(), nil
}
