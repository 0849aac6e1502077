package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/events"
	"github.com/spec-kit/event-service/internal/repository"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// RegistrationService coordinates participant registrations.
type RegistrationService struct {
	registrations repository.RegistrationRepository
	eventsRepo    repository.EventRepository
	audit         repository.AuditRepository
	dispatcher    events.Dispatcher
}

// RegistrationDependencies bundles repositories for the service.
type RegistrationDependencies struct {
	RegistrationRepo repository.RegistrationRepository
	EventRepo        repository.EventRepository
	AuditRepo        repository.AuditRepository
	Dispatcher       events.Dispatcher
}

// NewRegistrationService constructs the service.
func NewRegistrationService(deps RegistrationDependencies) *RegistrationService {
	return &RegistrationService{
		registrations: deps.RegistrationRepo,
		eventsRepo:    deps.EventRepo,
		audit:         deps.AuditRepo,
		dispatcher:    deps.Dispatcher,
	}
}

// Register enrolls a participant in a published or active event.
func (s *RegistrationService) Register(ctx context.Context, actor *domain.User, eventID string) (*domain.Registration, error) {
	if actor == nil || actor.Role != domain.RoleParticipant {
		return nil, apperrors.NewForbidden("participant role required")
	}

	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if event.Status != domain.EventStatusPublished && event.Status != domain.EventStatusActive {
		return nil, apperrors.NewConflict("event not open for registration", nil)
	}

	if event.Capacity > 0 {
		active, err := s.registrations.CountActiveByEvent(ctx, event.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if active >= int64(event.Capacity) {
			return nil, apperrors.NewConflict("event is full", nil)
		}
	}

	registration := &domain.Registration{
		EventID:       event.ID,
		ParticipantID: actor.ID,
		Status:        domain.RegistrationPending,
	}
	if err := s.registrations.Create(ctx, registration); err != nil {
		if errors.Is(err, repository.ErrDuplicateRegistration) {
			return nil, apperrors.NewConflict("already registered for this event", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventRegistrationCreated,
		SubjectID: registration.ID,
		Actor:     events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.RegistrationPayload{
			RegistrationID: registration.ID,
			EventID:        event.ID,
			ParticipantID:  actor.ID,
			Status:         registration.Status,
		},
	})
	return registration, nil
}

// UpdateStatus confirms or cancels a registration. The event organizer and
// admins may set either status; a participant may only cancel their own.
func (s *RegistrationService) UpdateStatus(ctx context.Context, actor *domain.User, registrationID string, status domain.RegistrationStatus) (*domain.Registration, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if status != domain.RegistrationConfirmed && status != domain.RegistrationCancelled {
		return nil, apperrors.NewValidationError("status must be confirmee or annulee", nil)
	}

	registration, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("registration", nil)
		}
		return nil, apperrors.MapError(err)
	}
	event, err := s.eventsRepo.GetByID(ctx, registration.EventID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	switch {
	case actor.Role == domain.RoleAdmin:
	case event.OrganizerID == actor.ID:
	case registration.ParticipantID == actor.ID && status == domain.RegistrationCancelled:
	default:
		return nil, apperrors.NewForbidden("not allowed to update this registration")
	}
	if registration.Status == status {
		return registration, nil
	}

	oldStatus := registration.Status
	if err := s.registrations.UpdateStatus(ctx, registration.ID, status); err != nil {
		return nil, apperrors.MapError(err)
	}
	registration.Status = status

	s.recordAudit(ctx, actor, registration.ID, oldStatus, status)
	s.publish(ctx, events.Event{
		Type:      events.EventRegistrationUpdated,
		SubjectID: registration.ID,
		Actor:     events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.RegistrationPayload{
			RegistrationID: registration.ID,
			EventID:        registration.EventID,
			ParticipantID:  registration.ParticipantID,
			Status:         status,
		},
	})
	return registration, nil
}

// ListOwn returns the participant's registrations.
func (s *RegistrationService) ListOwn(ctx context.Context, actor *domain.User, limit, offset int) ([]domain.Registration, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	result, err := s.registrations.ListByParticipant(ctx, actor.ID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// ListForEvent returns an event's registrations for its organizer or admins.
func (s *RegistrationService) ListForEvent(ctx context.Context, actor *domain.User, eventID string) ([]domain.Registration, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if actor.Role != domain.RoleAdmin && event.OrganizerID != actor.ID {
		return nil, apperrors.NewForbidden("not the event organizer")
	}
	result, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

func (s *RegistrationService) recordAudit(ctx context.Context, actor *domain.User, registrationID string, oldStatus, newStatus domain.RegistrationStatus) {
	if s.audit == nil {
		return
	}
	actorID := actor.ID
	_ = s.audit.Create(ctx, &domain.AuditEntry{
		ActorID:    &actorID,
		ActorRole:  actor.Role,
		Action:     domain.AuditRegistrationStatus,
		TargetType: "inscription",
		TargetID:   registrationID,
		OldValue:   map[string]any{"statut": oldStatus},
		NewValue:   map[string]any{"statut": newStatus},
	})
}

func (s *RegistrationService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
