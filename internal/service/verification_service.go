package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/events"
	"github.com/spec-kit/event-service/internal/repository"
	"github.com/spec-kit/event-service/internal/upload"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

var allowedDocumentExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".pdf":  {},
}

// DocumentInput is one uploaded file offered with a submission.
type DocumentInput struct {
	Type     domain.DocumentType
	FileName string
	Size     int64
	Content  io.Reader
}

// DocumentOutcome reports per-document acceptance so the submitter knows
// exactly which files were stored and why the others were not.
type DocumentOutcome struct {
	Type       domain.DocumentType `json:"type"`
	FileName   string              `json:"file_name"`
	Accepted   bool                `json:"accepted"`
	Reason     string              `json:"reason,omitempty"`
	StoredName string              `json:"-"`
}

// SubmissionInput describes a verification request submission.
type SubmissionInput struct {
	Comment       string
	Supplementary domain.SupplementaryInfo
	Documents     []DocumentInput
}

// SubmissionResult bundles the created request with document outcomes.
type SubmissionResult struct {
	Request   *domain.VerificationRequest
	Documents []DocumentOutcome
}

// VerificationService governs the organizer verification workflow.
type VerificationService struct {
	users      repository.UserRepository
	requests   repository.VerificationRepository
	audit      repository.AuditRepository
	store      upload.Store
	dispatcher events.Dispatcher
	maxBytes   int64
}

// VerificationDependencies bundles requirements for the service.
type VerificationDependencies struct {
	UserRepo         repository.UserRepository
	VerificationRepo repository.VerificationRepository
	AuditRepo        repository.AuditRepository
	Store            upload.Store
	Dispatcher       events.Dispatcher
	MaxUploadBytes   int64
}

// NewVerificationService constructs the service.
func NewVerificationService(deps VerificationDependencies) *VerificationService {
	return &VerificationService{
		users:      deps.UserRepo,
		requests:   deps.VerificationRepo,
		audit:      deps.AuditRepo,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		maxBytes:   deps.MaxUploadBytes,
	}
}

// Submit files a verification request of type organisateur for the actor.
// At most one pending request per user and type can exist; a duplicate
// submission returns a conflict and creates nothing. The identity document
// is mandatory: if it is missing or fails validation the whole submission is
// rejected and nothing is persisted.
func (s *VerificationService) Submit(ctx context.Context, actor *domain.User, input SubmissionInput) (*SubmissionResult, error) {
	if actor == nil || actor.Role != domain.RoleOrganisateur {
		return nil, apperrors.NewForbidden("organizer role required")
	}
	if actor.VerificationStatus == domain.VerificationVerified {
		return nil, apperrors.NewConflict("account already verified", nil)
	}

	outcomes := s.validateDocuments(input.Documents)
	if !identityAccepted(outcomes) {
		return nil, apperrors.NewValidationError("identity document required",
			map[string]any{"documents": outcomes})
	}

	pending, err := s.requests.HasPendingRequest(ctx, actor.ID, domain.RequestTypeOrganisateur)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if pending {
		return nil, apperrors.NewConflict("verification request already pending", nil)
	}

	stored, err := s.storeAccepted(input.Documents, outcomes)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	request := &domain.VerificationRequest{
		UserID:  actor.ID,
		Type:    domain.RequestTypeOrganisateur,
		Status:  domain.RequestStatusPending,
		Comment: strings.TrimSpace(input.Comment),
	}
	if !input.Supplementary.IsEmpty() {
		supp := input.Supplementary
		request.Supplementary = &supp
	}

	for i := range outcomes {
		if !outcomes[i].Accepted {
			continue
		}
		request.Documents = append(request.Documents, domain.VerificationDocument{
			Type:         outcomes[i].Type,
			OriginalName: outcomes[i].FileName,
			StoredName:   outcomes[i].StoredName,
		})
	}

	// Request and document rows commit together; on any failure the stored
	// files are discarded so nothing survives a partial submission.
	if err := s.requests.CreateRequest(ctx, request); err != nil {
		s.discardStored(stored)
		if errors.Is(err, repository.ErrDuplicatePending) {
			return nil, apperrors.NewConflict("verification request already pending", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if err := s.users.StampVerificationRequest(ctx, actor.ID); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAudit(ctx, actor, domain.AuditVerificationSubmitted, "demande_verification", request.ID,
		nil, map[string]any{"statut": request.Status, "documents": len(request.Documents)})
	s.publish(ctx, events.Event{
		Type:      events.EventVerificationRequested,
		SubjectID: request.ID,
		Actor:     events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.VerificationRequestedPayload{
			RequestID:     request.ID,
			RequestType:   request.Type,
			DocumentCount: len(request.Documents),
		},
	})

	return &SubmissionResult{Request: request, Documents: outcomes}, nil
}

// Decide applies an admin verdict. The request and user status change commit
// in one transaction; a request that already left en_attente yields a
// conflict and no writes.
func (s *VerificationService) Decide(ctx context.Context, admin *domain.User, requestID string, decision domain.Decision) (*domain.VerificationRequest, error) {
	if admin == nil || admin.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if !decision.Valid() {
		return nil, apperrors.NewValidationError("decision must be approve or reject", nil)
	}

	request, err := s.requests.Decide(ctx, repository.DecisionInput{
		RequestID: requestID,
		AdminID:   admin.ID,
		Decision:  decision,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyDecided):
			return nil, apperrors.NewConflict("request already decided", nil)
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("verification request", nil)
		default:
			return nil, apperrors.MapError(err)
		}
	}

	s.recordAudit(ctx, admin, domain.AuditVerificationDecided, "demande_verification", request.ID,
		map[string]any{"statut": domain.RequestStatusPending},
		map[string]any{"statut": request.Status, "decision": decision})
	s.publish(ctx, events.Event{
		Type:      events.EventVerificationDecided,
		SubjectID: request.ID,
		Actor:     events.Actor{UserID: admin.ID, Role: admin.Role},
		Payload: events.VerificationDecidedPayload{
			RequestID: request.ID,
			Decision:  decision,
			NewStatus: request.Status,
			OwnerID:   request.UserID,
		},
	})

	return request, nil
}

// IsVerified answers the polling endpoint with a fresh read from storage.
func (s *VerificationService) IsVerified(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return user.VerificationStatus == domain.VerificationVerified, nil
}

// ListRequests returns requests for the admin review surface.
func (s *VerificationService) ListRequests(ctx context.Context, admin *domain.User, filter repository.VerificationRequestFilter) ([]domain.VerificationRequest, error) {
	if admin == nil || admin.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	requests, err := s.requests.ListRequests(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// ListOwnRequests returns the actor's submission history.
func (s *VerificationService) ListOwnRequests(ctx context.Context, actor *domain.User) ([]domain.VerificationRequest, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	requests, err := s.requests.ListRequests(ctx, repository.VerificationRequestFilter{
		UserID: &actor.ID,
		Limit:  50,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

func (s *VerificationService) validateDocuments(docs []DocumentInput) []DocumentOutcome {
	outcomes := make([]DocumentOutcome, 0, len(docs))
	for _, doc := range docs {
		outcome := DocumentOutcome{Type: doc.Type, FileName: doc.FileName}
		ext := strings.ToLower(filepath.Ext(doc.FileName))
		switch {
		case doc.Type != domain.DocumentIdentity && doc.Type != domain.DocumentClubCard && doc.Type != domain.DocumentAddressProof:
			outcome.Reason = "unknown document type"
		case ext == "":
			outcome.Reason = "missing file extension"
		case !extensionAllowed(ext):
			outcome.Reason = fmt.Sprintf("extension %s not allowed", ext)
		case doc.Size <= 0:
			outcome.Reason = "empty file"
		case doc.Size > s.maxBytes:
			outcome.Reason = fmt.Sprintf("file exceeds %d bytes", s.maxBytes)
		default:
			outcome.Accepted = true
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *VerificationService) storeAccepted(docs []DocumentInput, outcomes []DocumentOutcome) ([]string, error) {
	var stored []string
	for i := range outcomes {
		if !outcomes[i].Accepted {
			continue
		}
		name, err := s.store.Save(upload.VerificationSubdir, docs[i].FileName, docs[i].Content)
		if err != nil {
			s.discardStored(stored)
			return nil, fmt.Errorf("store document %s: %w", docs[i].FileName, err)
		}
		outcomes[i].StoredName = name
		stored = append(stored, name)
	}
	return stored, nil
}

func (s *VerificationService) discardStored(names []string) {
	for _, name := range names {
		_ = s.store.Remove(upload.VerificationSubdir, name)
	}
}

func (s *VerificationService) recordAudit(ctx context.Context, actor *domain.User, action domain.AuditAction, targetType, targetID string, oldValue, newValue map[string]any) {
	if s.audit == nil {
		return
	}
	actorID := actor.ID
	_ = s.audit.Create(ctx, &domain.AuditEntry{
		ActorID:    &actorID,
		ActorRole:  actor.Role,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
}

func (s *VerificationService) publish(ctx context.Context, event events.Event) {
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

func extensionAllowed(ext string) bool {
	_, ok := allowedDocumentExtensions[ext]
	return ok
}

func identityAccepted(outcomes []DocumentOutcome) bool {
	for _, outcome := range outcomes {
		if outcome.Type == domain.DocumentIdentity && outcome.Accepted {
			return true
		}
	}
	return false
}
