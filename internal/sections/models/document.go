package models

import (
	"slices"
	"strings"
	"time"

	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
)

// DocumentType is the kind of identity document uploaded.
type DocumentType string

const (
	DocumentPassport        DocumentType = "passport"
	DocumentNationalID      DocumentType = "national_id"
	DocumentDriversLicense  DocumentType = "drivers_license"
	DocumentResidencePermit DocumentType = "residence_permit"
)

var documentLabels = map[DocumentType]string{
	DocumentPassport:        "Passport",
	DocumentNationalID:      "National ID",
	DocumentDriversLicense:  "Driver's License",
	DocumentResidencePermit: "Residence Permit",
}

// Label is the display name. An empty type reads "Document".
func (t DocumentType) Label() string {
	if label, ok := documentLabels[t]; ok {
		return label
	}
	if t == "" {
		return "Document"
	}
	return string(t)
}

func (t DocumentType) IsValid() bool {
	_, ok := documentLabels[t]
	return ok
}

// DocumentStatus is the document-level review state, independent of the
// verification record status.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusVerified DocumentStatus = "verified"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// Side names one face of a document.
type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideFront:
		return SideFront, nil
	case SideBack:
		return SideBack, nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "side must be front or back")
	}
}

// IdentityDocument is one uploaded identity document. A user's current
// document is the one with the latest CreatedAt.
type IdentityDocument struct {
	ID            id.DocumentID  `json:"id"`
	UserID        id.UserID      `json:"user_id"`
	DocumentType  DocumentType   `json:"document_type"`
	FrontImageURL *string        `json:"front_image_url,omitempty"`
	BackImageURL  *string        `json:"back_image_url,omitempty"`
	Status        DocumentStatus `json:"status"`
	SubmittedAt   *time.Time     `json:"submitted_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewIdentityDocument creates a pending document draft.
func NewIdentityDocument(userID id.UserID, now time.Time) *IdentityDocument {
	return &IdentityDocument{
		ID:        id.NewDocumentID(),
		UserID:    userID,
		Status:    DocumentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d *IdentityDocument) HasFront() bool {
	return d != nil && d.FrontImageURL != nil && present(*d.FrontImageURL)
}

func (d *IdentityDocument) HasBack() bool {
	return d != nil && d.BackImageURL != nil && present(*d.BackImageURL)
}

// IsComplete holds when both images are present.
func (d *IdentityDocument) IsComplete() bool {
	return d.HasFront() && d.HasBack()
}

// ApplyDraft overwrites the document fields from a draft. Nil URLs clear the
// corresponding image. It returns the previous image URLs the document no
// longer references.
func (d *IdentityDocument) ApplyDraft(draft DocumentDraft, now time.Time) []string {
	prev := []*string{d.FrontImageURL, d.BackImageURL}
	d.DocumentType = draft.DocumentType
	d.FrontImageURL = normalizeURL(draft.FrontImageURL)
	d.BackImageURL = normalizeURL(draft.BackImageURL)
	d.UpdatedAt = now

	var dropped []string
	for _, u := range prev {
		if u == nil || *u == "" || d.references(*u) || slices.Contains(dropped, *u) {
			continue
		}
		dropped = append(dropped, *u)
	}
	return dropped
}

func (d *IdentityDocument) references(url string) bool {
	return (d.FrontImageURL != nil && *d.FrontImageURL == url) ||
		(d.BackImageURL != nil && *d.BackImageURL == url)
}

// ApplySubmission marks the document as submitted for review.
func (d *IdentityDocument) ApplySubmission(now time.Time) {
	d.Status = DocumentStatusPending
	d.SubmittedAt = &now
	d.UpdatedAt = now
}

// ClearBack removes the back image and returns the URL that was removed.
func (d *IdentityDocument) ClearBack(now time.Time) *string {
	prev := d.BackImageURL
	d.BackImageURL = nil
	d.UpdatedAt = now
	return prev
}

// DocumentDraft is the mutable part of a document as edited in the wizard.
type DocumentDraft struct {
	DocumentType  DocumentType `json:"document_type"`
	FrontImageURL *string      `json:"front_image_url,omitempty"`
	BackImageURL  *string      `json:"back_image_url,omitempty"`
}

func normalizeURL(u *string) *string {
	if u == nil {
		return nil
	}
	v := strings.TrimSpace(*u)
	if v == "" {
		return nil
	}
	return &v
}
