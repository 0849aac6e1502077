package domain

import "time"

// RegistrationStatus enumerates participant registration states.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "en_attente"
	RegistrationConfirmed RegistrationStatus = "confirmee"
	RegistrationCancelled RegistrationStatus = "annulee"
)

// Registration ties a participant to an event.
type Registration struct {
	ID            string
	EventID       string
	ParticipantID string
	Status        RegistrationStatus
	RegisteredAt  time.Time
}

// AttestationEligible reports whether an attestation may be generated for
// the registration given its event's status.
func (r *Registration) AttestationEligible(eventStatus EventStatus) bool {
	return r != nil && r.Status == RegistrationConfirmed && eventStatus == EventStatusCompleted
}
