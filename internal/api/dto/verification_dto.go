package dto

import (
	"time"

	"github.com/spec-kit/event-service/internal/domain"
)

// DocumentOutcomeResponse reports what happened to one uploaded file.
type DocumentOutcomeResponse struct {
	Type     domain.DocumentType `json:"type"`
	FileName string              `json:"file_name"`
	Accepted bool                `json:"accepted"`
	Reason   string              `json:"reason,omitempty"`
}

// VerificationDocumentResponse describes a stored document.
type VerificationDocumentResponse struct {
	ID           string              `json:"id"`
	Type         domain.DocumentType `json:"type"`
	OriginalName string              `json:"nom_original"`
	CreatedAt    time.Time           `json:"created_at"`
}

// VerificationRequestResponse is the full request view.
type VerificationRequestResponse struct {
	ID            string                           `json:"id"`
	UserID        string                           `json:"utilisateur_id"`
	Type          domain.VerificationRequestType   `json:"type_demande"`
	Status        domain.VerificationRequestStatus `json:"statut"`
	Comment       string                           `json:"commentaire,omitempty"`
	Supplementary *domain.SupplementaryInfo        `json:"infos_complementaires,omitempty"`
	AdminID       *string                          `json:"admin_id,omitempty"`
	SubmittedAt   time.Time                        `json:"date_soumission"`
	DecidedAt     *time.Time                       `json:"date_decision,omitempty"`
	Documents     []VerificationDocumentResponse   `json:"documents"`
}

// DecisionRequest payload for admin verdicts.
type DecisionRequest struct {
	Decision domain.Decision `json:"decision" validate:"required,oneof=approve reject"`
}

// StatusResponse answers the organizer dashboard poll.
type StatusResponse struct {
	Verified bool `json:"verified"`
}

// NewVerificationRequestResponse maps a domain request.
func NewVerificationRequestResponse(req *domain.VerificationRequest) VerificationRequestResponse {
	docs := make([]VerificationDocumentResponse, 0, len(req.Documents))
	for _, doc := range req.Documents {
		docs = append(docs, VerificationDocumentResponse{
			ID:           doc.ID,
			Type:         doc.Type,
			OriginalName: doc.OriginalName,
			CreatedAt:    doc.CreatedAt,
		})
	}
	return VerificationRequestResponse{
		ID:            req.ID,
		UserID:        req.UserID,
		Type:          req.Type,
		Status:        req.Status,
		Comment:       req.Comment,
		Supplementary: req.Supplementary,
		AdminID:       req.AdminID,
		SubmittedAt:   req.SubmittedAt,
		DecidedAt:     req.DecidedAt,
		Documents:     docs,
	}
}
