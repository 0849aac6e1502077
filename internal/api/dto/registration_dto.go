package dto

import (
	"time"

	"github.com/spec-kit/event-service/internal/domain"
)

// ChangeRegistrationStatusRequest payload.
type ChangeRegistrationStatusRequest struct {
	Status domain.RegistrationStatus `json:"statut" validate:"required,oneof=confirmee annulee"`
}

// RegistrationResponse is the registration view.
type RegistrationResponse struct {
	ID            string                    `json:"id"`
	EventID       string                    `json:"evenement_id"`
	ParticipantID string                    `json:"participant_id"`
	Status        domain.RegistrationStatus `json:"statut"`
	RegisteredAt  time.Time                 `json:"date_inscription"`
}

// NewRegistrationResponse maps a domain registration.
func NewRegistrationResponse(reg *domain.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID:            reg.ID,
		EventID:       reg.EventID,
		ParticipantID: reg.ParticipantID,
		Status:        reg.Status,
		RegisteredAt:  reg.RegisteredAt,
	}
}
