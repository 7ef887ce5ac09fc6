package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"

	"github.com/danilompg/sitescope-backend/pkg/db/models"
	"github.com/danilompg/sitescope-backend/pkg/enums"
	"github.com/danilompg/sitescope-backend/pkg/logger"
)

const (
	defaultReconcileLimit    = 100
	defaultReconcileLookback = 7 * 24 * time.Hour
)

type reconcileSubscriptionRepo interface {
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error)
	UpdateStatusByStripeID(ctx context.Context, stripeSubscriptionID string, status enums.SubscriptionStatus) (int64, error)
}

type stripeSubscriptionGetter interface {
	GetSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
}

// SubscriptionReconcileJobParams configures the subscription sync cron job.
type SubscriptionReconcileJobParams struct {
	Logger           *logger.Logger
	SubscriptionRepo reconcileSubscriptionRepo
	StripeClient     stripeSubscriptionGetter
	Limit            int
	Lookback         time.Duration
	Now              func() time.Time
}

// NewSubscriptionReconcileJob builds a reconciliation cron job that
// re-fetches processor state for rows webhooks have not touched recently.
func NewSubscriptionReconcileJob(params SubscriptionReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.SubscriptionRepo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if params.StripeClient == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultReconcileLookback
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	return &subscriptionReconcileJob{
		logg:     params.Logger,
		repo:     params.SubscriptionRepo,
		stripe:   params.StripeClient,
		now:      now,
		limit:    limit,
		lookback: lookback,
	}, nil
}

type subscriptionReconcileJob struct {
	logg     *logger.Logger
	repo     reconcileSubscriptionRepo
	stripe   stripeSubscriptionGetter
	now      func() time.Time
	limit    int
	lookback time.Duration
}

func (j *subscriptionReconcileJob) Name() string { return "subscription-reconcile" }

func (j *subscriptionReconcileJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.lookback)
	snapshot, err := j.repo.ListStale(ctx, cutoff, j.limit)
	if err != nil {
		return fmt.Errorf("list stale subscriptions: %w", err)
	}

	var errs error
	synced := 0
	for i := range snapshot {
		if err := j.reconcileSubscription(ctx, &snapshot[i]); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		synced++
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(snapshot),
		"synced":     synced,
	})
	j.logg.Info(reportCtx, "subscription reconcile loop complete")
	return errs
}

func (j *subscriptionReconcileJob) reconcileSubscription(ctx context.Context, sub *models.Subscription) error {
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"subscription_id":        sub.ID,
		"stripe_subscription_id": sub.StripeSubscriptionID,
	})
	if strings.TrimSpace(sub.StripeSubscriptionID) == "" {
		j.logg.Info(logCtx, "subscription missing processor id; skipping")
		return nil
	}

	remote, err := j.stripe.GetSubscription(logCtx, sub.StripeSubscriptionID, &stripe.SubscriptionParams{})
	if err != nil {
		return fmt.Errorf("fetch stripe subscription %s: %w", sub.StripeSubscriptionID, err)
	}
	if remote == nil {
		j.logg.Info(logCtx, "processor subscription not found; skipping")
		return nil
	}

	status := enums.SubscriptionStatusFromProcessor(string(remote.Status))
	if status == sub.Status {
		return nil
	}

	rows, err := j.repo.UpdateStatusByStripeID(logCtx, sub.StripeSubscriptionID, status)
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", sub.StripeSubscriptionID, err)
	}
	if rows == 0 {
		j.logg.Info(logCtx, "subscription removed from db; skipping")
		return nil
	}

	successCtx := j.logg.WithFields(logCtx, map[string]any{
		"processor_status": remote.Status,
		"status":           status,
	})
	j.logg.Info(successCtx, "subscription reconciled")
	return nil
}
