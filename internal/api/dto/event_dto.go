package dto

import (
	"time"

	"github.com/spec-kit/event-service/internal/domain"
)

// CreateEventRequest payload.
type CreateEventRequest struct {
	Title       string    `json:"titre" validate:"required,min=3"`
	Description string    `json:"description"`
	Location    string    `json:"lieu"`
	StartsAt    time.Time `json:"date_debut" validate:"required"`
	EndsAt      time.Time `json:"date_fin" validate:"required"`
	Capacity    int       `json:"capacite" validate:"gte=0"`
}

// UpdateEventRequest payload; nil fields are untouched.
type UpdateEventRequest struct {
	Title       *string    `json:"titre"`
	Description *string    `json:"description"`
	Location    *string    `json:"lieu"`
	StartsAt    *time.Time `json:"date_debut"`
	EndsAt      *time.Time `json:"date_fin"`
	Capacity    *int       `json:"capacite"`
}

// ChangeEventStatusRequest payload.
type ChangeEventStatusRequest struct {
	Status domain.EventStatus `json:"statut" validate:"required,oneof=brouillon publie actif termine annule"`
}

// EventResponse is the event view.
type EventResponse struct {
	ID          string             `json:"id"`
	Key         string             `json:"cle"`
	OrganizerID string             `json:"organisateur_id"`
	Title       string             `json:"titre"`
	Description string             `json:"description"`
	Location    string             `json:"lieu"`
	StartsAt    time.Time          `json:"date_debut"`
	EndsAt      time.Time          `json:"date_fin"`
	Capacity    int                `json:"capacite"`
	Status      domain.EventStatus `json:"statut"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewEventResponse maps a domain event.
func NewEventResponse(event *domain.Event) EventResponse {
	return EventResponse{
		ID:          event.ID,
		Key:         event.Key,
		OrganizerID: event.OrganizerID,
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		StartsAt:    event.StartsAt,
		EndsAt:      event.EndsAt,
		Capacity:    event.Capacity,
		Status:      event.Status,
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}
