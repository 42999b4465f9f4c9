package store

import (
	"context"
	"sync"
	"time"

	"vetting/internal/users/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
)

// InMemoryUserStore keeps users in a map. Returned users are copies.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[id.UserID]models.User
}

func NewInMemory() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[id.UserID]models.User)}
}

func (s *InMemoryUserStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

// ListByIDs returns the users that exist, keyed by ID. Missing IDs are skipped.
func (s *InMemoryUserStore) ListByIDs(_ context.Context, ids []id.UserID) (map[id.UserID]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.UserID]*models.User, len(ids))
	for _, userID := range ids {
		if u, ok := s.users[userID]; ok {
			out[userID] = &u
		}
	}
	return out, nil
}

func (s *InMemoryUserStore) MarkVerified(_ context.Context, userID id.UserID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.ApplyVerified(now)
	s.users[userID] = u
	return nil
}
