package events

import (
	"time"

	"github.com/spec-kit/event-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventVerificationRequested EventType = "verification_requested"
	EventVerificationDecided   EventType = "verification_decided"
	EventCreated               EventType = "event_created"
	EventStatusChanged         EventType = "event_status_changed"
	EventRegistrationCreated   EventType = "registration_created"
	EventRegistrationUpdated   EventType = "registration_status_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// VerificationRequestedPayload payload.
type VerificationRequestedPayload struct {
	RequestID     string                         `json:"request_id"`
	RequestType   domain.VerificationRequestType `json:"request_type"`
	DocumentCount int                            `json:"document_count"`
}

// VerificationDecidedPayload payload.
type VerificationDecidedPayload struct {
	RequestID string                           `json:"request_id"`
	Decision  domain.Decision                  `json:"decision"`
	NewStatus domain.VerificationRequestStatus `json:"new_status"`
	OwnerID   string                           `json:"owner_id"`
}

// EventCreatedPayload payload.
type EventCreatedPayload struct {
	OrganizerID string `json:"organizer_id"`
	Title       string `json:"title"`
}

// EventStatusChangedPayload payload.
type EventStatusChangedPayload struct {
	OldStatus domain.EventStatus `json:"old_status"`
	NewStatus domain.EventStatus `json:"new_status"`
}

// RegistrationPayload payload for registration events.
type RegistrationPayload struct {
	RegistrationID string                    `json:"registration_id"`
	EventID        string                    `json:"event_id"`
	ParticipantID  string                    `json:"participant_id"`
	Status         domain.RegistrationStatus `json:"status"`
}
