package models

import (
	"strings"
	"time"

	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
)

// Status is the overall verification state of a user.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusSubmitted     Status = "submitted"
	StatusVerified      Status = "verified"
	StatusRejected      Status = "rejected"
	StatusInfoRequested Status = "info_requested"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusDraft, StatusSubmitted, StatusVerified, StatusRejected, StatusInfoRequested:
		return st, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "invalid verification status")
	}
}

func (s Status) IsValid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// AwaitingUser reports whether the user has to act before review continues.
func (s Status) AwaitingUser() bool {
	return s == StatusRejected || s == StatusInfoRequested
}

// InReview reports whether the record has been handed to reviewers.
func (s Status) InReview() bool {
	return s == StatusSubmitted || s == StatusVerified
}

func (s Status) String() string { return string(s) }

// Record tracks one user's verification. RejectionReason also carries the
// message of an info request.
type Record struct {
	ID              id.VerificationID `json:"id"`
	UserID          id.UserID         `json:"user_id"`
	Status          Status            `json:"status"`
	SubmittedAt     *time.Time        `json:"submitted_at,omitempty"`
	VerifiedAt      *time.Time        `json:"verified_at,omitempty"`
	VerifiedBy      *id.UserID        `json:"verified_by,omitempty"`
	RejectionReason *string           `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewDraft constructs a draft record for userID.
func NewDraft(verificationID id.VerificationID, userID id.UserID, now time.Time) *Record {
	return &Record{
		ID:        verificationID,
		UserID:    userID,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplySubmission hands the record to reviewers. Each Apply returns the
// status the record had before.
func (r *Record) ApplySubmission(now time.Time) Status {
	prev := r.Status
	r.Status = StatusSubmitted
	r.SubmittedAt = &now
	r.RejectionReason = nil
	r.UpdatedAt = now
	return prev
}

func (r *Record) ApplyApproval(admin id.UserID, now time.Time) Status {
	prev := r.Status
	r.Status = StatusVerified
	r.VerifiedAt = &now
	r.VerifiedBy = &admin
	r.RejectionReason = nil
	r.UpdatedAt = now
	return prev
}

// ApplyRejection stamps VerifiedAt and VerifiedBy with the decision time and
// the deciding admin.
func (r *Record) ApplyRejection(admin id.UserID, reason string, now time.Time) Status {
	prev := r.Status
	r.Status = StatusRejected
	r.VerifiedAt = &now
	r.VerifiedBy = &admin
	r.RejectionReason = &reason
	r.UpdatedAt = now
	return prev
}

func (r *Record) ApplyInfoRequest(reason string, now time.Time) Status {
	prev := r.Status
	r.Status = StatusInfoRequested
	r.RejectionReason = &reason
	r.UpdatedAt = now
	return prev
}

// Validate checks the record invariants.
func (r *Record) Validate() error {
	if !r.Status.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown verification status")
	}
	if r.UserID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "verification user required")
	}
	if (r.RejectionReason != nil) != r.Status.AwaitingUser() {
		return dErrors.New(dErrors.CodeInvariantViolation, "rejection reason must be set exactly when rejected or info requested")
	}
	return nil
}
