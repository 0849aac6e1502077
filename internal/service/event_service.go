package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/events"
	"github.com/spec-kit/event-service/internal/repository"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// EventService coordinates event workflows, including the verification gate
// on creation and publication.
type EventService struct {
	eventsRepo repository.EventRepository
	users      repository.UserRepository
	audit      repository.AuditRepository
	dispatcher events.Dispatcher
}

// EventDependencies bundles repositories for the service.
type EventDependencies struct {
	EventRepo  repository.EventRepository
	UserRepo   repository.UserRepository
	AuditRepo  repository.AuditRepository
	Dispatcher events.Dispatcher
}

// EventCreateInput describes event creation payload.
type EventCreateInput struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	Capacity    int
}

// EventUpdateInput describes mutable event fields.
type EventUpdateInput struct {
	Title       *string
	Description *string
	Location    *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Capacity    *int
}

// EventListFilter describes listing filters before role scoping.
type EventListFilter struct {
	Statuses   []domain.EventStatus
	SearchTerm *string
	StartsFrom *time.Time
	StartsTo   *time.Time
	Limit      int
	Offset     int
}

// NewEventService constructs the service.
func NewEventService(deps EventDependencies) *EventService {
	return &EventService{
		eventsRepo: deps.EventRepo,
		users:      deps.UserRepo,
		audit:      deps.AuditRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create inserts a draft event for a verified organizer. The gate re-reads
// the organizer's verification status from storage; it never trusts the
// status carried by the caller's token or a previously loaded principal.
func (s *EventService) Create(ctx context.Context, actor *domain.User, input EventCreateInput) (*domain.Event, error) {
	if actor == nil || actor.Role != domain.RoleOrganisateur {
		return nil, apperrors.NewForbidden("organizer role required")
	}
	if err := s.checkGate(ctx, actor.ID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if !input.EndsAt.IsZero() && input.EndsAt.Before(input.StartsAt) {
		return nil, apperrors.NewValidationError("event ends before it starts", nil)
	}
	if input.Capacity < 0 {
		return nil, apperrors.NewValidationError("capacity cannot be negative", nil)
	}

	event := &domain.Event{
		Key:         generateEventKey(),
		OrganizerID: actor.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		Capacity:    input.Capacity,
		Status:      domain.EventStatusDraft,
	}
	if err := s.eventsRepo.Create(ctx, event); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventCreated,
		SubjectID: event.ID,
		Actor:     events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload:   events.EventCreatedPayload{OrganizerID: actor.ID, Title: event.Title},
	})
	return event, nil
}

// Update edits event fields. Owners and admins only; terminal events are
// immutable.
func (s *EventService) Update(ctx context.Context, actor *domain.User, eventID string, input EventUpdateInput) (*domain.Event, error) {
	event, err := s.getOwned(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == domain.EventStatusCompleted || event.Status == domain.EventStatusCancelled {
		return nil, apperrors.NewConflict("event can no longer be edited", nil)
	}

	if input.Title != nil {
		event.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		event.Description = strings.TrimSpace(*input.Description)
	}
	if input.Location != nil {
		event.Location = strings.TrimSpace(*input.Location)
	}
	if input.StartsAt != nil {
		event.StartsAt = *input.StartsAt
	}
	if input.EndsAt != nil {
		event.EndsAt = *input.EndsAt
	}
	if input.Capacity != nil {
		if *input.Capacity < 0 {
			return nil, apperrors.NewValidationError("capacity cannot be negative", nil)
		}
		event.Capacity = *input.Capacity
	}
	if event.Title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if !event.EndsAt.IsZero() && event.EndsAt.Before(event.StartsAt) {
		return nil, apperrors.NewValidationError("event ends before it starts", nil)
	}

	if err := s.eventsRepo.Update(ctx, event); err != nil {
		return nil, apperrors.MapError(err)
	}
	return event, nil
}

// ChangeStatus moves the event along its lifecycle. Publication re-checks
// the verification gate against storage.
func (s *EventService) ChangeStatus(ctx context.Context, actor *domain.User, eventID string, next domain.EventStatus) (*domain.Event, error) {
	event, err := s.getOwned(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	if !event.Status.CanTransitionTo(next) {
		return nil, apperrors.NewConflict("invalid status transition",
			map[string]any{"from": event.Status, "to": next})
	}
	if next == domain.EventStatusPublished && actor.Role != domain.RoleAdmin {
		if err := s.checkGate(ctx, actor.ID); err != nil {
			return nil, err
		}
	}

	oldStatus := event.Status
	event.Status = next
	if err := s.eventsRepo.Update(ctx, event); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAudit(ctx, actor, event.ID, oldStatus, next)
	s.publish(ctx, events.Event{
		Type:      events.EventStatusChanged,
		SubjectID: event.ID,
		Actor:     events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload:   events.EventStatusChangedPayload{OldStatus: oldStatus, NewStatus: next},
	})
	return event, nil
}

// Get returns one event subject to role visibility.
func (s *EventService) Get(ctx context.Context, actor *domain.User, eventID string) (*domain.Event, error) {
	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !s.canSee(actor, event) {
		return nil, apperrors.NewNotFound("event", nil)
	}
	return event, nil
}

// List returns events scoped by role: admins see all, organizers their own,
// participants only publicly visible statuses.
func (s *EventService) List(ctx context.Context, actor *domain.User, filter EventListFilter) ([]domain.Event, error) {
	repoFilter := repository.EventFilter{
		Statuses:   filter.Statuses,
		SearchTerm: filter.SearchTerm,
		StartsFrom: filter.StartsFrom,
		StartsTo:   filter.StartsTo,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}

	switch {
	case actor == nil:
		return nil, apperrors.NewUnauthorized("authentication required")
	case actor.Role == domain.RoleAdmin:
		// no scoping
	case actor.Role == domain.RoleOrganisateur:
		repoFilter.OrganizerID = &actor.ID
	default:
		repoFilter.Statuses = visibleStatuses(filter.Statuses)
	}

	result, err := s.eventsRepo.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

func (s *EventService) checkGate(ctx context.Context, userID string) error {
	fresh, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !fresh.CanOrganize() {
		return apperrors.NewForbidden("account not verified for event creation")
	}
	return nil
}

func (s *EventService) getOwned(ctx context.Context, actor *domain.User, eventID string) (*domain.Event, error) {
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
	return event, nil
}

func (s *EventService) canSee(actor *domain.User, event *domain.Event) bool {
	if actor == nil {
		return false
	}
	if actor.Role == domain.RoleAdmin || event.OrganizerID == actor.ID {
		return true
	}
	return event.Status.VisibleToParticipants()
}

func (s *EventService) recordAudit(ctx context.Context, actor *domain.User, eventID string, oldStatus, newStatus domain.EventStatus) {
	if s.audit == nil {
		return
	}
	actorID := actor.ID
	_ = s.audit.Create(ctx, &domain.AuditEntry{
		ActorID:    &actorID,
		ActorRole:  actor.Role,
		Action:     domain.AuditEventStatusChanged,
		TargetType: "evenement",
		TargetID:   eventID,
		OldValue:   map[string]any{"statut": oldStatus},
		NewValue:   map[string]any{"statut": newStatus},
	})
}

func (s *EventService) publish(ctx context.Context, event events.Event) {
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

func visibleStatuses(requested []domain.EventStatus) []domain.EventStatus {
	if len(requested) == 0 {
		return []domain.EventStatus{
			domain.EventStatusPublished,
			domain.EventStatusActive,
			domain.EventStatusCompleted,
		}
	}
	filtered := make([]domain.EventStatus, 0, len(requested))
	for _, status := range requested {
		if status.VisibleToParticipants() {
			filtered = append(filtered, status)
		}
	}
	if len(filtered) == 0 {
		return []domain.EventStatus{domain.EventStatusPublished}
	}
	return filtered
}

func generateEventKey() string {
	return "EVT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
