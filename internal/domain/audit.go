package domain

import "time"

// AuditAction captures what changed in an audit entry.
type AuditAction string

const (
	AuditVerificationSubmitted AuditAction = "VERIFICATION_SUBMITTED"
	AuditVerificationDecided   AuditAction = "VERIFICATION_DECIDED"
	AuditEventStatusChanged    AuditAction = "EVENT_STATUS_CHANGE"
	AuditRegistrationStatus    AuditAction = "REGISTRATION_STATUS_CHANGE"
	AuditUserModerated         AuditAction = "USER_MODERATED"
)

// AuditEntry is an immutable trail record.
type AuditEntry struct {
	ID         string
	ActorID    *string
	ActorRole  Role
	Action     AuditAction
	TargetType string
	TargetID   string
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
