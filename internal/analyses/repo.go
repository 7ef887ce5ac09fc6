package analyses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danilompg/sitescope-backend/pkg/db/models"
)

// Repository exposes analysis persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an analyses repo bound to the provided GORM DB.
func NewRepository(gdb *gorm.DB) *Repository {
	return &Repository{db: gdb}
}

// Create inserts a new analysis row.
func (r *Repository) Create(ctx context.Context, analysis *models.Analysis) error {
	return r.db.WithContext(ctx).Create(analysis).Error
}

// ListByUser returns the user's analyses, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Analysis, error) {
	var rows []models.Analysis
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
