package models

import (
	"time"

	id "vetting/pkg/domain"
)

// Action is an admin decision recorded in the audit log.
type Action string

const (
	ActionApproved      Action = "approved"
	ActionRejected      Action = "rejected"
	ActionInfoRequested Action = "info_requested"
)

// RequiresReason reports whether the decision needs a non-empty reason.
func (a Action) RequiresReason() bool {
	return a == ActionRejected || a == ActionInfoRequested
}

// Target is the status a decision moves a record to.
func (a Action) Target() Status {
	switch a {
	case ActionApproved:
		return StatusVerified
	case ActionRejected:
		return StatusRejected
	default:
		return StatusInfoRequested
	}
}

// AuditLogEntry is one admin decision against a verification record.
type AuditLogEntry struct {
	ID             id.AuditEntryID   `json:"id"`
	VerificationID id.VerificationID `json:"verification_id"`
	AdminID        id.UserID         `json:"admin_id"`
	Action         Action            `json:"action"`
	PreviousStatus Status            `json:"previous_status"`
	NewStatus      Status            `json:"new_status"`
	Reason         *string           `json:"reason,omitempty"`
	IPAddress      string            `json:"ip_address,omitempty"`
	Device         string            `json:"device,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}
