package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Analysis stores one saved website-analysis result. Scores is the opaque
// payload returned by the analyzer workflow (seo/performance/automation/
// usability plus free-form summary) and is never interpreted server-side.
type Analysis struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	WebsiteURL string          `gorm:"column:website_url;not null"`
	Scores     json.RawMessage `gorm:"column:scores;type:jsonb;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
