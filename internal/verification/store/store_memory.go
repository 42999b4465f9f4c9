package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"vetting/internal/verification/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
)

// InMemoryRecordStore keeps verification records keyed by ID with a unique
// index on user.
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records map[id.VerificationID]models.Record
	byUser  map[id.UserID]id.VerificationID
}

func NewInMemoryRecords() *InMemoryRecordStore {
	return &InMemoryRecordStore{
		records: make(map[id.VerificationID]models.Record),
		byUser:  make(map[id.UserID]id.VerificationID),
	}
}

func (s *InMemoryRecordStore) FindByID(_ context.Context, verificationID id.VerificationID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[verificationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRecord(r), nil
}

func (s *InMemoryRecordStore) FindByUser(_ context.Context, userID id.UserID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vid, ok := s.byUser[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRecord(s.records[vid]), nil
}

// Save inserts or updates by ID. A second record for the same user is a
// conflict.
func (s *InMemoryRecordStore) Save(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byUser[record.UserID]; ok && existing != record.ID {
		return sentinel.ErrConflict
	}
	s.records[record.ID] = *copyRecord(*record)
	s.byUser[record.UserID] = record.ID
	return nil
}

// List returns records most recently updated first, plus the unpaged total.
func (s *InMemoryRecordStore) List(_ context.Context, filter models.ListFilter) ([]*models.Record, int, error) {
	s.mu.RLock()
	matched := make([]models.Record, 0, len(s.records))
	for _, r := range s.records {
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		matched = append(matched, r)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	out := make([]*models.Record, 0, end-start)
	for _, r := range matched[start:end] {
		out = append(out, copyRecord(r))
	}
	return out, total, nil
}

func (s *InMemoryRecordStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *InMemoryRecordStore) CountByStatus(_ context.Context, status models.Status) (int, error) {
	return s.count(func(r models.Record) bool { return r.Status == status }), nil
}

// CountVerifiedSince counts verified records whose approval is at or after since.
func (s *InMemoryRecordStore) CountVerifiedSince(_ context.Context, since time.Time) (int, error) {
	return s.count(func(r models.Record) bool {
		return r.Status == models.StatusVerified && r.VerifiedAt != nil && !r.VerifiedAt.Before(since)
	}), nil
}

// CountRejectedSince counts rejected records last updated at or after since.
func (s *InMemoryRecordStore) CountRejectedSince(_ context.Context, since time.Time) (int, error) {
	return s.count(func(r models.Record) bool {
		return r.Status == models.StatusRejected && !r.UpdatedAt.Before(since)
	}), nil
}

func (s *InMemoryRecordStore) count(match func(models.Record) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.records {
		if match(r) {
			n++
		}
	}
	return n
}

func copyRecord(r models.Record) *models.Record {
	out := r
	if r.SubmittedAt != nil {
		v := *r.SubmittedAt
		out.SubmittedAt = &v
	}
	if r.VerifiedAt != nil {
		v := *r.VerifiedAt
		out.VerifiedAt = &v
	}
	if r.VerifiedBy != nil {
		v := *r.VerifiedBy
		out.VerifiedBy = &v
	}
	if r.RejectionReason != nil {
		v := *r.RejectionReason
		out.RejectionReason = &v
	}
	return &out
}

// InMemoryAuditLogStore is the append-only decision log.
type InMemoryAuditLogStore struct {
	mu      sync.RWMutex
	entries map[id.VerificationID][]models.AuditLogEntry
}

func NewInMemoryAuditLog() *InMemoryAuditLogStore {
	return &InMemoryAuditLogStore{entries: make(map[id.VerificationID][]models.AuditLogEntry)}
}

func (s *InMemoryAuditLogStore) Append(_ context.Context, entry *models.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *entry
	if entry.Reason != nil {
		v := *entry.Reason
		stored.Reason = &v
	}
	s.entries[entry.VerificationID] = append(s.entries[entry.VerificationID], stored)
	return nil
}

// ListByVerification returns entries oldest first.
func (s *InMemoryAuditLogStore) ListByVerification(_ context.Context, verificationID id.VerificationID) ([]models.AuditLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[verificationID]
	out := make([]models.AuditLogEntry, len(entries))
	copy(out, entries)
	return out, nil
}
