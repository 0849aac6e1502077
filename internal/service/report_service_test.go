package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/event-service/internal/domain"
)

type reportFixture struct {
	service     *ReportService
	organizer   *domain.User
	participant *domain.User
	admin       *domain.User
	event       *domain.Event
	repo        *fakeRegistrationRepo
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	organizer := &domain.User{ID: "org-1", Name: "Marie Dupont", Email: "marie@example.com", Role: domain.RoleOrganisateur, Active: true}
	participant := &domain.User{ID: "p-1", Name: "Jean Martin", Email: "jean@example.com", Role: domain.RoleParticipant, Active: true}
	admin := &domain.User{ID: "adm-1", Name: "Admin", Role: domain.RoleAdmin, Active: true}
	users := newFakeUserRepo(organizer, participant, admin)

	event := &domain.Event{
		ID:          "evt-1",
		Key:         "EVT-ABCD1234",
		OrganizerID: organizer.ID,
		Title:       "Tournoi",
		Status:      domain.EventStatusPublished,
	}
	eventsRepo := newFakeEventRepo(event)
	repo := newFakeRegistrationRepo()
	verifications := newFakeVerificationRepo(users)

	return &reportFixture{
		service: NewReportService(ReportDependencies{
			UserRepo:         users,
			EventRepo:        eventsRepo,
			RegistrationRepo: repo,
			VerificationRepo: verifications,
			Cache:            nil,
			Logger:           zap.NewNop(),
		}),
		organizer:   organizer,
		participant: participant,
		admin:       admin,
		event:       event,
		repo:        repo,
	}
}

func TestExportRegistrationsCSV(t *testing.T) {
	fx := newReportFixture(t)
	reg := &domain.Registration{
		EventID:       fx.event.ID,
		ParticipantID: fx.participant.ID,
		Status:        domain.RegistrationConfirmed,
		RegisteredAt:  time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, fx.repo.Create(context.Background(), reg))

	var buf bytes.Buffer
	require.NoError(t, fx.service.ExportRegistrationsCSV(context.Background(), fx.organizer, fx.event.ID, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{"registration_id", "event_key", "participant", "email", "statut", "date_inscription"}, records[0])
	row := records[1]
	assert.Equal(t, reg.ID, row[0])
	assert.Equal(t, "EVT-ABCD1234", row[1])
	assert.Equal(t, "Jean Martin", row[2])
	assert.Equal(t, "jean@example.com", row[3])
	assert.Equal(t, "confirmee", row[4])
}

func TestExportRegistrationsCSVEmptyEvent(t *testing.T) {
	fx := newReportFixture(t)

	var buf bytes.Buffer
	require.NoError(t, fx.service.ExportRegistrationsCSV(context.Background(), fx.admin, fx.event.ID, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestExportRegistrationsCSVRestricted(t *testing.T) {
	fx := newReportFixture(t)

	var buf bytes.Buffer
	err := fx.service.ExportRegistrationsCSV(context.Background(), fx.participant, fx.event.ID, &buf)
	requireDomainCode(t, err, http.StatusForbidden)
	assert.Zero(t, buf.Len())
}

func TestDashboardStatsRequiresAdmin(t *testing.T) {
	fx := newReportFixture(t)

	_, err := fx.service.DashboardStats(context.Background(), fx.organizer)
	requireDomainCode(t, err, http.StatusForbidden)
}

func TestDashboardStatsCountsResources(t *testing.T) {
	fx := newReportFixture(t)

	stats, err := fx.service.DashboardStats(context.Background(), fx.admin)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.UsersByRole[domain.RoleOrganisateur])
	assert.Equal(t, int64(1), stats.UsersByRole[domain.RoleParticipant])
	assert.Equal(t, int64(1), stats.EventsByStatus[domain.EventStatusPublished])
	assert.Zero(t, stats.PendingRequests)
}
