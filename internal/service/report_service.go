package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/persistence"
	"github.com/spec-kit/event-service/internal/repository"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

const (
	statsCacheKey = "admin:stats"
	// statsCacheTTL mirrors the 30s dashboard poll cadence.
	statsCacheTTL = 30 * time.Second
)

// DashboardStats aggregates the admin dashboard counters.
type DashboardStats struct {
	UsersByRole     map[domain.Role]int64        `json:"users_by_role"`
	EventsByStatus  map[domain.EventStatus]int64 `json:"events_by_status"`
	PendingRequests int64                        `json:"pending_verification_requests"`
}

// ReportService produces CSV exports and dashboard counters.
type ReportService struct {
	users         repository.UserRepository
	eventsRepo    repository.EventRepository
	registrations repository.RegistrationRepository
	verifications repository.VerificationRepository
	cache         *persistence.Redis
	logger        *zap.Logger
}

// ReportDependencies bundles requirements for the service.
type ReportDependencies struct {
	UserRepo         repository.UserRepository
	EventRepo        repository.EventRepository
	RegistrationRepo repository.RegistrationRepository
	VerificationRepo repository.VerificationRepository
	Cache            *persistence.Redis
	Logger           *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	return &ReportService{
		users:         deps.UserRepo,
		eventsRepo:    deps.EventRepo,
		registrations: deps.RegistrationRepo,
		verifications: deps.VerificationRepo,
		cache:         deps.Cache,
		logger:        deps.Logger,
	}
}

// ExportRegistrationsCSV streams an event's registrations as CSV. Owner or
// admin only.
func (s *ReportService) ExportRegistrationsCSV(ctx context.Context, actor *domain.User, eventID string, w io.Writer) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("event", nil)
		}
		return apperrors.MapError(err)
	}
	if actor.Role != domain.RoleAdmin && event.OrganizerID != actor.ID {
		return apperrors.NewForbidden("not the event organizer")
	}

	registrations, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return apperrors.MapError(err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"registration_id", "event_key", "participant", "email", "statut", "date_inscription"}); err != nil {
		return apperrors.MapError(err)
	}
	for _, reg := range registrations {
		participant, err := s.users.GetByID(ctx, reg.ParticipantID)
		if err != nil {
			return apperrors.MapError(err)
		}
		record := []string{
			reg.ID,
			event.Key,
			participant.Name,
			participant.Email,
			string(reg.Status),
			reg.RegisteredAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return apperrors.MapError(err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// DashboardStats returns the admin counters, served from the Redis cache
// when fresh. Cache failures fall through to the database.
func (s *ReportService) DashboardStats(ctx context.Context, actor *domain.User) (*DashboardStats, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}

	if cached, err := s.cache.GetCached(ctx, statsCacheKey); err == nil {
		var stats DashboardStats
		if unmarshalErr := json.Unmarshal([]byte(cached), &stats); unmarshalErr == nil {
			return &stats, nil
		}
	} else if !errors.Is(err, goredis.Nil) {
		s.logger.Warn("stats cache read failed", zap.Error(err))
	}

	usersByRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	eventsByStatus, err := s.eventsRepo.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	pending, err := s.verifications.CountPending(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &DashboardStats{
		UsersByRole:     usersByRole,
		EventsByStatus:  eventsByStatus,
		PendingRequests: pending,
	}
	if encoded, err := json.Marshal(stats); err == nil {
		if cacheErr := s.cache.SetCached(ctx, statsCacheKey, string(encoded), statsCacheTTL); cacheErr != nil {
			s.logger.Warn("stats cache write failed", zap.Error(cacheErr))
		}
	}
	return stats, nil
}
