package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danilompg/sitescope-backend/pkg/db"
	"github.com/danilompg/sitescope-backend/pkg/db/models"
	"github.com/danilompg/sitescope-backend/pkg/enums"
)

// Repository exposes subscription persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a subscriptions repo bound to the provided GORM DB.
func NewRepository(gdb *gorm.DB) *Repository {
	return &Repository{db: gdb}
}

// Create inserts a new subscription row.
func (r *Repository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// FindByStripeID loads the subscription matching the processor's id.
// Returns (nil, nil) when no row exists.
func (r *Repository) FindByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		First(&sub).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// UpdateStatusByStripeID sets the status for the matching subscription and
// reports how many rows changed.
func (r *Repository) UpdateStatusByStripeID(ctx context.Context, stripeSubscriptionID string, status enums.SubscriptionStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Upsert creates the subscription or refreshes status/price/period on the
// existing row keyed by the processor's subscription id. A single INSERT ..
// ON CONFLICT keeps concurrent checkout verifications from racing the
// unique index.
func (r *Repository) Upsert(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_subscription_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":             sub.Status,
				"price_id":           sub.PriceID,
				"current_period_end": sub.CurrentPeriodEnd,
				"updated_at":         time.Now().UTC(),
			}),
		}).
		Create(sub).Error
}

// HasActiveForUser reports whether the user owns at least one active subscription.
func (r *Repository) HasActiveForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND status = ?", userID, enums.SubscriptionStatusActive).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindLatestForUser returns the most recently updated subscription for the
// user, or (nil, nil) when none exists.
func (r *Repository) FindLatestForUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&sub).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ListStale returns subscriptions not refreshed since the cutoff, oldest first.
func (r *Repository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	query := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
