package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/events"
)

type registrationFixture struct {
	service     *RegistrationService
	repo        *fakeRegistrationRepo
	eventsRepo  *fakeEventRepo
	audit       *fakeAuditRepo
	dispatcher  *recordingDispatcher
	organizer   *domain.User
	participant *domain.User
	admin       *domain.User
	event       *domain.Event
}

func newRegistrationFixture(t *testing.T, eventStatus domain.EventStatus, capacity int) *registrationFixture {
	t.Helper()
	organizer := &domain.User{ID: "org-1", Role: domain.RoleOrganisateur, Active: true}
	participant := &domain.User{ID: "p-1", Role: domain.RoleParticipant, Active: true}
	admin := &domain.User{ID: "adm-1", Role: domain.RoleAdmin, Active: true}

	event := &domain.Event{
		ID:          "evt-1",
		Key:         "EVT-ABCD1234",
		OrganizerID: organizer.ID,
		Title:       "Tournoi",
		StartsAt:    time.Now().Add(24 * time.Hour),
		EndsAt:      time.Now().Add(30 * time.Hour),
		Capacity:    capacity,
		Status:      eventStatus,
	}

	repo := newFakeRegistrationRepo()
	eventsRepo := newFakeEventRepo(event)
	audit := &fakeAuditRepo{}
	dispatcher := &recordingDispatcher{}

	return &registrationFixture{
		service: NewRegistrationService(RegistrationDependencies{
			RegistrationRepo: repo,
			EventRepo:        eventsRepo,
			AuditRepo:        audit,
			Dispatcher:       dispatcher,
		}),
		repo:        repo,
		eventsRepo:  eventsRepo,
		audit:       audit,
		dispatcher:  dispatcher,
		organizer:   organizer,
		participant: participant,
		admin:       admin,
		event:       event,
	}
}

func TestRegisterEnrollsParticipant(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusPublished, 10)

	registration, err := fx.service.Register(context.Background(), fx.participant, fx.event.ID)
	require.NoError(t, err)

	assert.Equal(t, fx.event.ID, registration.EventID)
	assert.Equal(t, fx.participant.ID, registration.ParticipantID)
	assert.Equal(t, domain.RegistrationPending, registration.Status)
	assert.Contains(t, fx.dispatcher.types(), events.EventRegistrationCreated)
}

func TestRegisterRequiresParticipantRole(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusPublished, 10)

	_, err := fx.service.Register(context.Background(), fx.organizer, fx.event.ID)
	requireDomainCode(t, err, http.StatusForbidden)
}

func TestRegisterRejectsClosedEvents(t *testing.T) {
	for _, status := range []domain.EventStatus{
		domain.EventStatusDraft,
		domain.EventStatusCompleted,
		domain.EventStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			fx := newRegistrationFixture(t, status, 10)
			_, err := fx.service.Register(context.Background(), fx.participant, fx.event.ID)
			requireDomainCode(t, err, http.StatusConflict)
		})
	}
}

func TestRegisterAcceptsActiveEvents(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusActive, 10)

	_, err := fx.service.Register(context.Background(), fx.participant, fx.event.ID)
	require.NoError(t, err)
}

func TestRegisterEnforcesCapacity(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusPublished, 1)

	_, err := fx.service.Register(context.Background(), fx.participant, fx.event.ID)
	require.NoError(t, err)

	other := &domain.User{ID: "p-2", Role: domain.RoleParticipant, Active: true}
	_, err = fx.service.Register(context.Background(), other, fx.event.ID)
	requireDomainCode(t, err, http.StatusConflict)
}

func TestRegisterCancelledSeatsFreeCapacity(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusPublished, 1)

	registration, err := fx.service.Register(context.Background(), fx.participant, fx.event.ID)
	require.NoError(t, err)
	_, err = fx.service.UpdateStatus(context.Background(), fx.participant, registration.ID, domain.RegistrationCancelled)
	require.NoError(t, err)

	other := &domain.User{ID: "p-2", Role: domain.RoleParticipant, Active: true}
	_, err = fx.service.Register(context.Background(), other, fx.event.ID)
	require.NoError(t, err)
}

func TestRegisterUnlimitedCapacity(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusPublished, 0)

	for i := 0; i < 5; i++ {
		p := &domain.User{ID: "p-" + string(rune('a'+i)), Role: domain.RoleParticipant, Active: true}
		_, err := fx.service.Register(context.Background(), p, fx.event.ID)
		require.NoError(t, err)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusPublished, 10)

	_, err := fx.service.Register(context.Background(), fx.participant, fx.event.ID)
	require.NoError(t, err)

	_, err = fx.service.Register(context.Background(), fx.participant, fx.event.ID)
	requireDomainCode(t, err, http.StatusConflict)
}

func TestUpdateStatusParticipantMayOnlyCancelOwn(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusPublished, 10)

	registration, err := fx.service.Register(context.Background(), fx.participant, fx.event.ID)
	require.NoError(t, err)

	// A participant cannot confirm, even their own registration.
	_, err = fx.service.UpdateStatus(context.Background(), fx.participant, registration.ID, domain.RegistrationConfirmed)
	requireDomainCode(t, err, http.StatusForbidden)

	// Another participant cannot touch it at all.
	other := &domain.User{ID: "p-2", Role: domain.RoleParticipant, Active: true}
	_, err = fx.service.UpdateStatus(context.Background(), other, registration.ID, domain.RegistrationCancelled)
	requireDomainCode(t, err, http.StatusForbidden)

	cancelled, err := fx.service.UpdateStatus(context.Background(), fx.participant, registration.ID, domain.RegistrationCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationCancelled, cancelled.Status)
}

func TestUpdateStatusOrganizerConfirms(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusPublished, 10)

	registration, err := fx.service.Register(context.Background(), fx.participant, fx.event.ID)
	require.NoError(t, err)

	confirmed, err := fx.service.UpdateStatus(context.Background(), fx.organizer, registration.ID, domain.RegistrationConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationConfirmed, confirmed.Status)
	assert.Contains(t, fx.audit.actions(), domain.AuditRegistrationStatus)
}

func TestUpdateStatusIdempotentOnSameValue(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusPublished, 10)

	registration, err := fx.service.Register(context.Background(), fx.participant, fx.event.ID)
	require.NoError(t, err)
	_, err = fx.service.UpdateStatus(context.Background(), fx.organizer, registration.ID, domain.RegistrationConfirmed)
	require.NoError(t, err)

	before := len(fx.audit.actions())
	again, err := fx.service.UpdateStatus(context.Background(), fx.organizer, registration.ID, domain.RegistrationConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationConfirmed, again.Status)
	assert.Equal(t, before, len(fx.audit.actions()))
}

func TestUpdateStatusValidatesValue(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusPublished, 10)

	_, err := fx.service.UpdateStatus(context.Background(), fx.admin, "reg-1", domain.RegistrationPending)
	requireDomainCode(t, err, http.StatusBadRequest)
}

func TestListForEventRestrictedToOwnerOrAdmin(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusPublished, 10)

	_, err := fx.service.Register(context.Background(), fx.participant, fx.event.ID)
	require.NoError(t, err)

	_, err = fx.service.ListForEvent(context.Background(), fx.participant, fx.event.ID)
	requireDomainCode(t, err, http.StatusForbidden)

	list, err := fx.service.ListForEvent(context.Background(), fx.organizer, fx.event.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = fx.service.ListForEvent(context.Background(), fx.admin, fx.event.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListOwnReturnsParticipantRegistrations(t *testing.T) {
	fx := newRegistrationFixture(t, domain.EventStatusPublished, 10)

	_, err := fx.service.Register(context.Background(), fx.participant, fx.event.ID)
	require.NoError(t, err)

	list, err := fx.service.ListOwn(context.Background(), fx.participant, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, fx.event.ID, list[0].EventID)
}
