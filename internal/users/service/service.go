package service

import (
	"context"
	"errors"

	"vetting/internal/users/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/sentinel"
)

type Store interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	ListByIDs(ctx context.Context, ids []id.UserID) (map[id.UserID]*models.User, error)
}

// Service is the read side of users used by the other modules.
type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// UserType returns which verification sections apply to the user.
func (s *Service) UserType(ctx context.Context, userID id.UserID) (id.UserType, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Type, nil
}

func (s *Service) ListByIDs(ctx context.Context, ids []id.UserID) (map[id.UserID]*models.User, error) {
	users, err := s.store.ListByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load users")
	}
	return users, nil
}
