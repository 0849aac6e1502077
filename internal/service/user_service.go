package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/repository"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// UserService covers admin moderation of accounts.
type UserService struct {
	users repository.UserRepository
	audit repository.AuditRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, audit repository.AuditRepository) *UserService {
	return &UserService{users: users, audit: audit}
}

// List returns accounts, optionally filtered by role. Admin only.
func (s *UserService) List(ctx context.Context, actor *domain.User, role *domain.Role, limit, offset int) ([]domain.User, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	result, err := s.users.List(ctx, role, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// SetActive suspends or reinstates an account. Admin only; admins cannot
// suspend themselves.
func (s *UserService) SetActive(ctx context.Context, actor *domain.User, userID string, active bool) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	if actor.ID == userID {
		return apperrors.NewConflict("cannot moderate own account", nil)
	}
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}
	s.recordAudit(ctx, actor, userID, map[string]any{"actif": !active}, map[string]any{"actif": active})
	return nil
}

// Delete removes an account; registrations, verification requests and audit
// entries cascade. Admin only.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, userID string) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	if actor.ID == userID {
		return apperrors.NewConflict("cannot moderate own account", nil)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}
	s.recordAudit(ctx, actor, userID, nil, map[string]any{"deleted": true})
	return nil
}

func (s *UserService) recordAudit(ctx context.Context, actor *domain.User, userID string, oldValue, newValue map[string]any) {
	if s.audit == nil {
		return
	}
	actorID := actor.ID
	_ = s.audit.Create(ctx, &domain.AuditEntry{
		ActorID:    &actorID,
		ActorRole:  actor.Role,
		Action:     domain.AuditUserModerated,
		TargetType: "utilisateur",
		TargetID:   userID,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
}
