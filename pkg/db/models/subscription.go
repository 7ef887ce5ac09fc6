package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/danilompg/sitescope-backend/pkg/enums"
)

// Subscription persists billing state per user. Rows are created by the
// checkout flow; the webhook reconciler only ever updates status in place.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID               uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	StripeSubscriptionID string                   `gorm:"column:stripe_subscription_id;not null;unique"`
	Status               enums.SubscriptionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	PriceID              *string                  `gorm:"column:price_id"`
	CurrentPeriodEnd     *time.Time               `gorm:"column:current_period_end"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
