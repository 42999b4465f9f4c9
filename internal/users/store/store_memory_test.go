package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vetting/internal/users/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemoryUserStore
	now   time.Time
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func (s *InMemoryUserStoreSuite) newUser(email string) *models.User {
	u, err := models.NewUser(id.UserID(uuid.New()), email, "Jane", "Doe", id.RoleUser, id.UserTypeApplicant, s.now)
	s.Require().NoError(err)
	return u
}

func (s *InMemoryUserStoreSuite) TestLookup() {
	s.Run("returns user by ID when exists", func() {
		u := s.newUser("Jane.Doe@Example.com ")
		s.Require().NoError(s.store.Save(context.Background(), u))

		found, err := s.store.FindByID(context.Background(), u.ID)
		s.Require().NoError(err)
		s.Equal("jane.doe@example.com", found.Email)
		s.Equal("Jane Doe", found.DisplayName())
	})

	s.Run("missing user is ErrNotFound", func() {
		_, err := s.store.FindByID(context.Background(), id.UserID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned user is a copy", func() {
		u := s.newUser("copy@example.com")
		s.Require().NoError(s.store.Save(context.Background(), u))
		found, err := s.store.FindByID(context.Background(), u.ID)
		s.Require().NoError(err)
		found.Email = "mutated@example.com"

		again, err := s.store.FindByID(context.Background(), u.ID)
		s.Require().NoError(err)
		s.Equal("copy@example.com", again.Email)
	})
}

func (s *InMemoryUserStoreSuite) TestMarkVerified() {
	u := s.newUser("verify@example.com")
	s.Require().NoError(s.store.Save(context.Background(), u))

	later := s.now.Add(time.Hour)
	s.Require().NoError(s.store.MarkVerified(context.Background(), u.ID, later))

	found, err := s.store.FindByID(context.Background(), u.ID)
	s.Require().NoError(err)
	s.True(found.Verified)
	s.Equal(later, found.UpdatedAt)

	err = s.store.MarkVerified(context.Background(), id.UserID(uuid.New()), later)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryUserStoreSuite) TestListByIDsSkipsMissing() {
	a := s.newUser("a@example.com")
	b := s.newUser("b@example.com")
	s.Require().NoError(s.store.Save(context.Background(), a))
	s.Require().NoError(s.store.Save(context.Background(), b))

	got, err := s.store.ListByIDs(context.Background(), []id.UserID{a.ID, id.UserID(uuid.New()), b.ID})
	s.Require().NoError(err)
	s.Len(got, 2)
	s.Equal("a@example.com", got[a.ID].Email)
}

func (s *InMemoryUserStoreSuite) TestSeed() {
	s.Require().NoError(Seed(context.Background(), s.store, s.now))
	admin, err := s.store.FindByID(context.Background(), SeedAdminID)
	s.Require().NoError(err)
	s.Equal(id.RoleAdmin, admin.Role)

	applicant, err := s.store.FindByID(context.Background(), SeedApplicantID)
	s.Require().NoError(err)
	s.True(applicant.Type.RequiresHistory())
}

func (s *InMemoryUserStoreSuite) TestSeedKeepsExistingUsers() {
	ctx := context.Background()
	s.Require().NoError(Seed(ctx, s.store, s.now))
	s.Require().NoError(s.store.MarkVerified(ctx, SeedApplicantID, s.now))

	s.Require().NoError(Seed(ctx, s.store, s.now.Add(time.Hour)))

	applicant, err := s.store.FindByID(ctx, SeedApplicantID)
	s.Require().NoError(err)
	s.True(applicant.Verified)
}
