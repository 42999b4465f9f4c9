package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "vetting/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so the compiler rejects passing a
// VerificationID where a UserID is expected.
//
// Usage: construct via the Parse* functions at trust boundaries (handlers,
// store row mapping). Direct conversion from uuid.UUID is fine inside the
// process when the value was generated locally.
type (
	UserID         uuid.UUID
	VerificationID uuid.UUID
	AuditEntryID   uuid.UUID
	DocumentID     uuid.UUID
	EducationID    uuid.UUID
	JobID          uuid.UUID
)

// maxIDLength bounds input before parsing; canonical UUIDs are 36 chars and
// the braced/urn forms accepted by uuid.Parse are at most 45.
const maxIDLength = 45

func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return parsed, nil
}

// ParseUserID parses a user identifier. Errors carry CodeInvalidInput.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseVerificationID parses a verification record identifier.
func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parseUUID(s, "verification id")
	return VerificationID(u), err
}

// ParseAuditEntryID parses an audit log entry identifier.
func ParseAuditEntryID(s string) (AuditEntryID, error) {
	u, err := parseUUID(s, "audit entry id")
	return AuditEntryID(u), err
}

// ParseDocumentID parses an identity document identifier.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document id")
	return DocumentID(u), err
}

// ParseEducationID parses an education record identifier.
func ParseEducationID(s string) (EducationID, error) {
	u, err := parseUUID(s, "education id")
	return EducationID(u), err
}

// ParseJobID parses a job history entry identifier.
func ParseJobID(s string) (JobID, error) {
	u, err := parseUUID(s, "job id")
	return JobID(u), err
}

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id AuditEntryID) String() string   { return uuid.UUID(id).String() }
func (id DocumentID) String() string     { return uuid.UUID(id).String() }
func (id EducationID) String() string    { return uuid.UUID(id).String() }
func (id JobID) String() string          { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as canonical UUID strings in JSON.
func (id UserID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id VerificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id AuditEntryID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id DocumentID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id EducationID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id JobID) MarshalText() ([]byte, error)          { return uuid.UUID(id).MarshalText() }

// NewVerificationID and friends generate fresh random identifiers.
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }
func NewAuditEntryID() AuditEntryID     { return AuditEntryID(uuid.New()) }
func NewDocumentID() DocumentID         { return DocumentID(uuid.New()) }
func NewEducationID() EducationID       { return EducationID(uuid.New()) }
func NewJobID() JobID                   { return JobID(uuid.New()) }
