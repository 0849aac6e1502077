package domain

import "time"

// EventStatus enumerates lifecycle states for events.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "brouillon"
	EventStatusPublished EventStatus = "publie"
	EventStatusActive    EventStatus = "actif"
	EventStatusCompleted EventStatus = "termine"
	EventStatusCancelled EventStatus = "annule"
)

// Event is the aggregate for organizer-created events.
type Event struct {
	ID          string
	Key         string
	OrganizerID string
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	Capacity    int
	Status      EventStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var allowedEventTransitions = map[EventStatus][]EventStatus{
	EventStatusDraft:     {EventStatusPublished, EventStatusCancelled},
	EventStatusPublished: {EventStatusActive, EventStatusCancelled},
	EventStatusActive:    {EventStatusCompleted, EventStatusCancelled},
	EventStatusCompleted: {},
	EventStatusCancelled: {},
}

// CanTransitionTo reports whether the status change is allowed.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, candidate := range allowedEventTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// VisibleToParticipants reports whether non-owners may see the event.
func (s EventStatus) VisibleToParticipants() bool {
	return s == EventStatusPublished || s == EventStatusActive || s == EventStatusCompleted
}
