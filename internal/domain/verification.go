package domain

import "time"

// VerificationRequestType identifies what a request asks to verify.
type VerificationRequestType string

const (
	RequestTypeOrganisateur VerificationRequestType = "organisateur"
	// RequestTypeCarteAdhesion is modeled in the schema but has no submission
	// or decision flow yet; submissions of this type are rejected.
	RequestTypeCarteAdhesion VerificationRequestType = "carte_adhesion"
)

// VerificationRequestStatus enumerates request lifecycle states.
type VerificationRequestStatus string

const (
	RequestStatusPending  VerificationRequestStatus = "en_attente"
	RequestStatusApproved VerificationRequestStatus = "approuvee"
	RequestStatusRejected VerificationRequestStatus = "rejetee"
)

// DocumentType tags an uploaded justification document.
type DocumentType string

const (
	DocumentIdentity     DocumentType = "piece_identite"
	DocumentClubCard     DocumentType = "carte_club"
	DocumentAddressProof DocumentType = "justificatif_domicile"
)

// SupplementaryInfo carries optional structured fields on a request.
// Persisted as a single JSONB blob when any field is non-empty.
type SupplementaryInfo struct {
	ClubName   string `json:"club_name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Experience string `json:"experience,omitempty"`
	Motivation string `json:"motivation,omitempty"`
}

// IsEmpty reports whether every field is blank.
func (s SupplementaryInfo) IsEmpty() bool {
	return s.ClubName == "" && s.Phone == "" && s.Experience == "" && s.Motivation == ""
}

// VerificationRequest is one submitted bundle of justification. It is
// created pending, decided exactly once, and never deleted.
type VerificationRequest struct {
	ID            string
	UserID        string
	Type          VerificationRequestType
	Status        VerificationRequestStatus
	Comment       string
	Supplementary *SupplementaryInfo
	AdminID       *string
	SubmittedAt   time.Time
	DecidedAt     *time.Time
	Documents     []VerificationDocument
}

// VerificationDocument is one stored file attached to a request. Immutable;
// removed only when the owning request is deleted (FK cascade).
type VerificationDocument struct {
	ID           string
	RequestID    string
	Type         DocumentType
	OriginalName string
	StoredName   string
	CreatedAt    time.Time
}

// Decision is an admin verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// RequestStatus maps a decision to the resulting request status.
func (d Decision) RequestStatus() VerificationRequestStatus {
	if d == DecisionApprove {
		return RequestStatusApproved
	}
	return RequestStatusRejected
}

// UserStatus maps a decision to the resulting user verification status.
func (d Decision) UserStatus() VerificationStatus {
	if d == DecisionApprove {
		return VerificationVerified
	}
	return VerificationRejected
}

// Valid reports whether the decision value is one of the two verdicts.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}
