package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleOrganisateur Role = "organisateur"
	RoleParticipant  Role = "participant"
)

// VerificationStatus controls whether an organizer may create events.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "en_attente"
	VerificationVerified VerificationStatus = "verifie"
	VerificationRejected VerificationStatus = "rejete"
)

// User is the domain model for all accounts.
type User struct {
	ID                  string
	Name                string
	Email               string
	PasswordHash        string
	Role                Role
	VerificationStatus  VerificationStatus
	VerificationAskedAt *time.Time
	VerifiedAt          *time.Time
	VerifiedByAdminID   *string
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CanOrganize reports whether the account passes the event-creation gate.
// Callers must check it against a fresh read from storage, never against
// session or token state.
func (u *User) CanOrganize() bool {
	if u == nil || !u.Active {
		return false
	}
	return u.Role == RoleOrganisateur && u.VerificationStatus == VerificationVerified
}
