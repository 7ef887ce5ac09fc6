package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danilompg/sitescope-backend/pkg/db/models"
)

// UserDTO is the transport shape returned to clients.
type UserDTO struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	StripeCustomerID *string   `json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email            string
	StripeCustomerID *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:               u.ID,
		Email:            u.Email,
		StripeCustomerID: u.StripeCustomerID,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:            strings.ToLower(strings.TrimSpace(c.Email)),
		StripeCustomerID: c.StripeCustomerID,
	}
}
