package dto

import (
	"time"

	"github.com/spec-kit/event-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string      `json:"nom" validate:"required,min=2"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"mot_de_passe" validate:"required,min=8"`
	Role     domain.Role `json:"role" validate:"required,oneof=organisateur participant"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"mot_de_passe" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID                 string                    `json:"id"`
	Name               string                    `json:"nom"`
	Email              string                    `json:"email"`
	Role               domain.Role               `json:"role"`
	VerificationStatus domain.VerificationStatus `json:"statut_verification"`
	Active             bool                      `json:"actif"`
	CreatedAt          time.Time                 `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:                 user.ID,
		Name:               user.Name,
		Email:              user.Email,
		Role:               user.Role,
		VerificationStatus: user.VerificationStatus,
		Active:             user.Active,
		CreatedAt:          user.CreatedAt,
	}
}
