package store

import (
	"context"
	"sync"

	"vetting/internal/sections/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
)

// InMemorySectionStore keeps each section in its own map. Documents are kept
// per user in insertion order; the current one is the latest CreatedAt.
type InMemorySectionStore struct {
	mu        sync.RWMutex
	personal  map[id.UserID]models.PersonalInfo
	education map[id.UserID]models.Education
	documents map[id.UserID][]models.IdentityDocument
	jobs      map[id.UserID][]models.JobEntry
}

func NewInMemory() *InMemorySectionStore {
	return &InMemorySectionStore{
		personal:  make(map[id.UserID]models.PersonalInfo),
		education: make(map[id.UserID]models.Education),
		documents: make(map[id.UserID][]models.IdentityDocument),
		jobs:      make(map[id.UserID][]models.JobEntry),
	}
}

func (s *InMemorySectionStore) FindPersonalInfo(_ context.Context, userID id.UserID) (*models.PersonalInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.personal[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemorySectionStore) SavePersonalInfo(_ context.Context, info *models.PersonalInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personal[info.UserID] = *info
	return nil
}

func (s *InMemorySectionStore) FindEducation(_ context.Context, userID id.UserID) (*models.Education, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.education[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}

// SaveEducation replaces the user's education record, keeping the existing ID.
func (s *InMemorySectionStore) SaveEducation(_ context.Context, edu *models.Education) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.education[edu.UserID]; ok {
		edu.ID = existing.ID
	}
	s.education[edu.UserID] = *edu
	return nil
}

func (s *InMemorySectionStore) CurrentDocument(_ context.Context, userID id.UserID) (*models.IdentityDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.documents[userID]
	if len(docs) == 0 {
		return nil, sentinel.ErrNotFound
	}
	current := docs[0]
	for _, d := range docs[1:] {
		if !d.CreatedAt.Before(current.CreatedAt) {
			current = d
		}
	}
	return copyDocument(current), nil
}

// SaveDocument inserts the document or replaces the one with the same ID.
func (s *InMemorySectionStore) SaveDocument(_ context.Context, doc *models.IdentityDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *copyDocument(*doc)
	docs := s.documents[doc.UserID]
	for i := range docs {
		if docs[i].ID == doc.ID {
			docs[i] = stored
			return nil
		}
	}
	s.documents[doc.UserID] = append(docs, stored)
	return nil
}

func (s *InMemorySectionStore) DeleteDocument(_ context.Context, userID id.UserID, docID id.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.documents[userID]
	for i := range docs {
		if docs[i].ID == docID {
			s.documents[userID] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemorySectionStore) ListJobs(_ context.Context, userID id.UserID) ([]models.JobEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := s.jobs[userID]
	out := make([]models.JobEntry, len(jobs))
	copy(out, jobs)
	return out, nil
}

func (s *InMemorySectionStore) ReplaceJobs(_ context.Context, userID id.UserID, jobs []models.JobEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(jobs) == 0 {
		delete(s.jobs, userID)
		return nil
	}
	stored := make([]models.JobEntry, len(jobs))
	copy(stored, jobs)
	s.jobs[userID] = stored
	return nil
}

func copyDocument(d models.IdentityDocument) *models.IdentityDocument {
	out := d
	if d.FrontImageURL != nil {
		v := *d.FrontImageURL
		out.FrontImageURL = &v
	}
	if d.BackImageURL != nil {
		v := *d.BackImageURL
		out.BackImageURL = &v
	}
	if d.SubmittedAt != nil {
		v := *d.SubmittedAt
		out.SubmittedAt = &v
	}
	return &out
}
