package service

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/event-service/internal/domain"
)

type attestationFixture struct {
	service      *AttestationService
	organizer    *domain.User
	participant  *domain.User
	admin        *domain.User
	event        *domain.Event
	registration *domain.Registration
}

func newAttestationFixture(t *testing.T, eventStatus domain.EventStatus, regStatus domain.RegistrationStatus) *attestationFixture {
	t.Helper()
	organizer := &domain.User{ID: "org-1", Name: "Marie Dupont", Role: domain.RoleOrganisateur, Active: true}
	participant := &domain.User{ID: "p-1", Name: "Jean Martin", Role: domain.RoleParticipant, Active: true}
	admin := &domain.User{ID: "adm-1", Role: domain.RoleAdmin, Active: true}

	event := &domain.Event{
		ID:          "evt-1",
		Key:         "EVT-ABCD1234",
		OrganizerID: organizer.ID,
		Title:       "Tournoi de printemps",
		Location:    "Gymnase municipal",
		StartsAt:    time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		EndsAt:      time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
		Status:      eventStatus,
	}
	registration := &domain.Registration{
		ID:            "reg-1",
		EventID:       event.ID,
		ParticipantID: participant.ID,
		Status:        regStatus,
		RegisteredAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	return &attestationFixture{
		service: NewAttestationService(
			newFakeRegistrationRepo(registration),
			newFakeEventRepo(event),
			newFakeUserRepo(organizer, participant, admin),
		),
		organizer:    organizer,
		participant:  participant,
		admin:        admin,
		event:        event,
		registration: registration,
	}
}

func TestGenerateAttestationProducesPDF(t *testing.T) {
	fx := newAttestationFixture(t, domain.EventStatusCompleted, domain.RegistrationConfirmed)

	var buf bytes.Buffer
	require.NoError(t, fx.service.Generate(context.Background(), fx.participant, fx.registration.ID, &buf))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestGenerateAttestationAllowsOrganizerAndAdmin(t *testing.T) {
	for _, actor := range []string{"organizer", "admin"} {
		t.Run(actor, func(t *testing.T) {
			fx := newAttestationFixture(t, domain.EventStatusCompleted, domain.RegistrationConfirmed)
			user := fx.organizer
			if actor == "admin" {
				user = fx.admin
			}
			var buf bytes.Buffer
			require.NoError(t, fx.service.Generate(context.Background(), user, fx.registration.ID, &buf))
		})
	}
}

func TestGenerateAttestationForbidsStrangers(t *testing.T) {
	fx := newAttestationFixture(t, domain.EventStatusCompleted, domain.RegistrationConfirmed)
	stranger := &domain.User{ID: "p-2", Role: domain.RoleParticipant, Active: true}

	var buf bytes.Buffer
	err := fx.service.Generate(context.Background(), stranger, fx.registration.ID, &buf)
	requireDomainCode(t, err, http.StatusForbidden)
}

func TestGenerateAttestationRequiresCompletedEvent(t *testing.T) {
	for _, status := range []domain.EventStatus{
		domain.EventStatusPublished,
		domain.EventStatusActive,
		domain.EventStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			fx := newAttestationFixture(t, status, domain.RegistrationConfirmed)
			var buf bytes.Buffer
			err := fx.service.Generate(context.Background(), fx.participant, fx.registration.ID, &buf)
			requireDomainCode(t, err, http.StatusConflict)
		})
	}
}

func TestGenerateAttestationRequiresConfirmedRegistration(t *testing.T) {
	for _, status := range []domain.RegistrationStatus{
		domain.RegistrationPending,
		domain.RegistrationCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			fx := newAttestationFixture(t, domain.EventStatusCompleted, status)
			var buf bytes.Buffer
			err := fx.service.Generate(context.Background(), fx.participant, fx.registration.ID, &buf)
			requireDomainCode(t, err, http.StatusConflict)
		})
	}
}

func TestGenerateAttestationUnknownRegistration(t *testing.T) {
	fx := newAttestationFixture(t, domain.EventStatusCompleted, domain.RegistrationConfirmed)

	var buf bytes.Buffer
	err := fx.service.Generate(context.Background(), fx.admin, "missing", &buf)
	requireDomainCode(t, err, http.StatusNotFound)
}
