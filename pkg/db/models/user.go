package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity. The identity provider owns
// authentication; this row links the provider identity to its Stripe customer.
type User struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email            string    `gorm:"type:text;not null;uniqueIndex"`
	StripeCustomerID *string   `gorm:"column:stripe_customer_id;index"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
