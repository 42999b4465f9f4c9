// Package service exposes the wizard sections (personal info, education,
// identity document and job history) as draft upserts.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"vetting/internal/blob"
	"vetting/internal/sections/evaluator"
	"vetting/internal/sections/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/audit"
	"vetting/pkg/platform/sentinel"
	"vetting/pkg/requestcontext"
)

type PersonalInfoStore interface {
	FindPersonalInfo(ctx context.Context, userID id.UserID) (*models.PersonalInfo, error)
	SavePersonalInfo(ctx context.Context, info *models.PersonalInfo) error
}

type EducationStore interface {
	FindEducation(ctx context.Context, userID id.UserID) (*models.Education, error)
	SaveEducation(ctx context.Context, edu *models.Education) error
}

// DocumentStore is also what the submit transaction needs to replace the
// current document.
type DocumentStore interface {
	CurrentDocument(ctx context.Context, userID id.UserID) (*models.IdentityDocument, error)
	SaveDocument(ctx context.Context, doc *models.IdentityDocument) error
	DeleteDocument(ctx context.Context, userID id.UserID, docID id.DocumentID) error
}

type JobStore interface {
	ListJobs(ctx context.Context, userID id.UserID) ([]models.JobEntry, error)
	ReplaceJobs(ctx context.Context, userID id.UserID, jobs []models.JobEntry) error
}

type Store interface {
	PersonalInfoStore
	EducationStore
	DocumentStore
	JobStore
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

type Service struct {
	store          Store
	blobs          blob.Store
	keyPrefix      string
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithKeyPrefix sets the object key prefix for uploaded images.
func WithKeyPrefix(prefix string) Option {
	return func(s *Service) {
		s.keyPrefix = prefix
	}
}

func New(store Store, blobs blob.Store, opts ...Option) *Service {
	s := &Service{store: store, blobs: blobs, keyPrefix: "identity-documents", logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get loads every section. Missing sections are left nil (or empty for jobs).
func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.Sections, error) {
	out := &models.Sections{}

	personal, err := s.store.FindPersonalInfo(ctx, userID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load personal info")
	}
	out.PersonalInfo = personal

	edu, err := s.store.FindEducation(ctx, userID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load education")
	}
	out.Education = edu

	doc, err := s.store.CurrentDocument(ctx, userID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity document")
	}
	out.Document = doc

	jobs, err := s.store.ListJobs(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load job history")
	}
	out.JobHistory = jobs

	return out, nil
}

// Completeness loads the sections and evaluates them for the user type.
func (s *Service) Completeness(ctx context.Context, userID id.UserID, userType id.UserType) (*models.Sections, models.Completeness, error) {
	sections, err := s.Get(ctx, userID)
	if err != nil {
		return nil, models.Completeness{}, err
	}
	return sections, evaluator.Evaluate(*sections, userType), nil
}

func (s *Service) SavePersonalInfo(ctx context.Context, userID id.UserID, req *models.PersonalInfoRequest) (*models.PersonalInfo, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	info := req.ToModel(userID, requestcontext.Now(ctx))
	if err := s.store.SavePersonalInfo(ctx, info); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save personal info")
	}
	s.emitSaved(ctx, userID, "personal_info")
	return info, nil
}

func (s *Service) SaveEducation(ctx context.Context, userID id.UserID, req *models.EducationRequest) (*models.Education, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	edu := req.ToModel(userID, requestcontext.Now(ctx))
	if err := s.store.SaveEducation(ctx, edu); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save education")
	}
	s.emitSaved(ctx, userID, "education")
	return edu, nil
}

func (s *Service) ReplaceJobHistory(ctx context.Context, userID id.UserID, req *models.JobHistoryRequest) ([]models.JobEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	jobs := req.ToModels(userID)
	if err := s.store.ReplaceJobs(ctx, userID, jobs); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save job history")
	}
	s.emitSaved(ctx, userID, "job_history")
	return jobs, nil
}

// SaveDocumentDraft writes the draft into the current document, creating one
// when the user has none. Images the draft replaces are deleted from storage
// once the save succeeds.
func (s *Service) SaveDocumentDraft(ctx context.Context, userID id.UserID, draft models.DocumentDraft) (*models.IdentityDocument, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	doc, err := s.store.CurrentDocument(ctx, userID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		doc = models.NewIdentityDocument(userID, now)
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity document")
	}
	dropped := doc.ApplyDraft(draft, now)
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save identity document")
	}
	for _, url := range dropped {
		s.deleteBlob(ctx, &url)
	}
	s.emitSaved(ctx, userID, "document")
	return doc, nil
}

// RemoveDocumentImage removes one side. Removing the front deletes the whole
// document and both blobs; removing the back clears only the back image.
// It returns the remaining document, or nil when it was deleted.
func (s *Service) RemoveDocumentImage(ctx context.Context, userID id.UserID, side models.Side) (*models.IdentityDocument, error) {
	doc, err := s.store.CurrentDocument(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity document")
	}

	var removed []*string
	switch side {
	case models.SideFront:
		if err := s.store.DeleteDocument(ctx, userID, doc.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete identity document")
		}
		removed = []*string{doc.FrontImageURL, doc.BackImageURL}
		doc = nil
	case models.SideBack:
		removed = []*string{doc.ClearBack(requestcontext.Now(ctx))}
		if err := s.store.SaveDocument(ctx, doc); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save identity document")
		}
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "side must be front or back")
	}

	for _, url := range removed {
		s.deleteBlob(ctx, url)
	}
	s.emit(ctx, audit.Event{
		UserID:  userID,
		Subject: string(side),
		Action:  string(audit.EventDocumentImageRemoved),
	})
	return doc, nil
}

// UploadDocumentImage stores one side's image and returns its URL. It does
// not touch the document record; the wizard saves the URL as a draft.
func (s *Service) UploadDocumentImage(ctx context.Context, userID id.UserID, side models.Side, contentType string, body io.Reader) (string, error) {
	ext, ok := blob.ExtensionFor(contentType)
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported image content type")
	}
	url, err := s.blobs.Put(ctx, blob.Key(s.keyPrefix, userID, string(side), ext), contentType, body)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to upload image")
	}
	return url, nil
}

// ReplaceCurrentDocument overwrites the current document with the submitted
// images and marks it pending review.
func (s *Service) ReplaceCurrentDocument(ctx context.Context, userID id.UserID, draft models.DocumentDraft) (*models.IdentityDocument, error) {
	return ReplaceCurrentDocument(ctx, s.store, userID, draft)
}

// ReplaceCurrentDocument is the store-level form used inside the submit
// transaction.
func ReplaceCurrentDocument(ctx context.Context, store DocumentStore, userID id.UserID, draft models.DocumentDraft) (*models.IdentityDocument, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	doc, err := store.CurrentDocument(ctx, userID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		doc = models.NewIdentityDocument(userID, now)
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity document")
	}
	doc.ApplyDraft(draft, now)
	doc.ApplySubmission(now)
	if err := store.SaveDocument(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save identity document")
	}
	return doc, nil
}

func (s *Service) deleteBlob(ctx context.Context, url *string) {
	if url == nil || *url == "" {
		return
	}
	if err := s.blobs.Delete(ctx, *url); err != nil {
		s.logger.WarnContext(ctx, "failed to delete document image",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func (s *Service) emitSaved(ctx context.Context, userID id.UserID, section string) {
	s.emit(ctx, audit.Event{
		UserID:  userID,
		Subject: section,
		Action:  string(audit.EventSectionSaved),
	})
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", event.RequestID,
			"action", event.Action,
			"error", err,
		)
	}
}
