package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danilompg/sitescope-backend/pkg/db"
	"github.com/danilompg/sitescope-backend/pkg/db/models"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(gdb *gorm.DB) *Repository {
	return &Repository{db: gdb}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email. Returns
// (nil, nil) when no user exists.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID. Returns (nil, nil) when missing.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByStripeCustomerID resolves the user owning a billing customer id.
// Returns (nil, nil) when no user matches.
func (r *Repository) FindByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, nil
	}
	var user models.User
	err := r.db.WithContext(ctx).
		Where("stripe_customer_id = ?", customerID).
		First(&user).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// SetStripeCustomerID records the billing customer id on the user.
func (r *Repository) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("stripe_customer_id", customerID).Error
}

// FindOrCreateByEmail returns the existing user for the email or inserts a
// new one.
func (r *Repository) FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error) {
	existing, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return r.Create(ctx, CreateUserDTO{Email: email})
}
