package models

import (
	"strings"

	sectionmodels "vetting/internal/sections/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
)

// SubmitRequest carries the final identity document for submission.
type SubmitRequest struct {
	DocumentType  string  `json:"document_type"`
	FrontImageURL string  `json:"front_image_url"`
	BackImageURL  *string `json:"back_image_url,omitempty"`
}

func (r *SubmitRequest) Normalize() {
	r.DocumentType = strings.ToLower(strings.TrimSpace(r.DocumentType))
	r.FrontImageURL = strings.TrimSpace(r.FrontImageURL)
	if r.BackImageURL != nil {
		v := strings.TrimSpace(*r.BackImageURL)
		r.BackImageURL = &v
	}
}

func (r *SubmitRequest) Validate() error {
	r.Normalize()
	if r.DocumentType == "" {
		return dErrors.New(dErrors.CodeValidation, "document_type is required")
	}
	if !sectionmodels.DocumentType(r.DocumentType).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid document type")
	}
	if r.FrontImageURL == "" {
		return dErrors.New(dErrors.CodeValidation, "front_image_url is required")
	}
	return nil
}

// Draft converts the request into a document draft.
func (r *SubmitRequest) Draft() sectionmodels.DocumentDraft {
	front := r.FrontImageURL
	return sectionmodels.DocumentDraft{
		DocumentType:  sectionmodels.DocumentType(r.DocumentType),
		FrontImageURL: &front,
		BackImageURL:  r.BackImageURL,
	}
}

// DecisionRequest is the body of approve, reject and request-info. Reason is
// the optional note for approvals.
type DecisionRequest struct {
	Reason string `json:"reason"`
}

func (r *DecisionRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if len(r.Reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason is too long")
	}
	return nil
}

const (
	maxReasonLength = 2000
	maxBulkIDs      = 500
)

// BulkActionName is the verb accepted by the bulk endpoint.
type BulkActionName string

const (
	BulkApprove     BulkActionName = "approve"
	BulkReject      BulkActionName = "reject"
	BulkRequestInfo BulkActionName = "request_info"
)

// ParseBulkAction maps a bulk verb to the decision it applies.
func ParseBulkAction(s string) (Action, error) {
	switch BulkActionName(strings.ToLower(strings.TrimSpace(s))) {
	case BulkApprove:
		return ActionApproved, nil
	case BulkReject:
		return ActionRejected, nil
	case BulkRequestInfo:
		return ActionInfoRequested, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "action must be approve, reject or request_info")
	}
}

type BulkActionRequest struct {
	IDs    []string `json:"ids"`
	Action string   `json:"action"`
	Reason string   `json:"reason"`
}

func (r *BulkActionRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if len(r.IDs) > maxBulkIDs {
		return dErrors.New(dErrors.CodeValidation, "too many ids")
	}
	if len(r.Reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason is too long")
	}
	return nil
}

// BulkItemError describes why one id in a bulk action failed.
type BulkItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type BulkResult struct {
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Total     int             `json:"total"`
	Errors    []BulkItemError `json:"errors"`
}

// ListFilter selects records for the admin queue.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Normalize clamps paging to sane bounds.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// QueueEntry is a record with the owner's display fields.
type QueueEntry struct {
	Record    *Record     `json:"record"`
	UserEmail string      `json:"user_email"`
	UserName  string      `json:"user_name"`
	UserType  id.UserType `json:"user_type"`
}

type Page struct {
	Items  []QueueEntry `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}
