package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vetting/internal/blob"
	"vetting/internal/progress/models"
	sectionmodels "vetting/internal/sections/models"
	sectionservice "vetting/internal/sections/service"
	sectionstore "vetting/internal/sections/store"
	usermodels "vetting/internal/users/models"
	userservice "vetting/internal/users/service"
	userstore "vetting/internal/users/store"
	verificationmodels "vetting/internal/verification/models"
	verificationstore "vetting/internal/verification/store"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/requestcontext"
)

type memoryCache struct {
	mu    sync.Mutex
	stats *models.Stats
	sets  int
	err   error
}

func (c *memoryCache) Get(context.Context) (*models.Stats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	if c.stats == nil {
		return nil, false, nil
	}
	cp := *c.stats
	return &cp, true, nil
}

func (c *memoryCache) Set(_ context.Context, stats *models.Stats, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *stats
	c.stats = &cp
	c.sets++
	return nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.stats = nil
	return nil
}

type failingCounter struct {
	*verificationstore.InMemoryRecordStore
}

func (failingCounter) Count(context.Context) (int, error) {
	return 0, errors.New("connection reset")
}

type ServiceSuite struct {
	suite.Suite
	records  *verificationstore.InMemoryRecordStore
	sections *sectionstore.InMemorySectionStore
	users    *userstore.InMemoryUserStore
	cache    *memoryCache
	svc      *Service
	ctx      context.Context
	now      time.Time
	admin    id.Caller
}

func (s *ServiceSuite) SetupTest() {
	s.records = verificationstore.NewInMemoryRecords()
	s.sections = sectionstore.NewInMemory()
	s.users = userstore.NewInMemory()
	s.cache = &memoryCache{}
	sections := sectionservice.New(s.sections, blob.NewMemoryStore("https://blobs.test"))
	s.svc = New(s.records, s.records, sections, userservice.New(s.users),
		WithCache(s.cache, time.Minute),
	)
	s.now = time.Date(2026, 5, 11, 14, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.admin = id.Caller{UserID: id.UserID(uuid.New()), Role: id.RoleAdmin}
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) seed(status verificationmodels.Status, decidedAt time.Time) {
	r := verificationmodels.NewDraft(id.NewVerificationID(), id.UserID(uuid.New()), decidedAt)
	switch status {
	case verificationmodels.StatusSubmitted:
		r.ApplySubmission(decidedAt)
	case verificationmodels.StatusVerified:
		r.ApplyApproval(s.admin.UserID, decidedAt)
	case verificationmodels.StatusRejected:
		r.ApplyRejection(s.admin.UserID, "no", decidedAt)
	case verificationmodels.StatusInfoRequested:
		r.ApplyInfoRequest("more", decidedAt)
	}
	s.Require().NoError(s.records.Save(s.ctx, r))
}

func (s *ServiceSuite) newUser(userType id.UserType) id.Caller {
	userID := id.UserID(uuid.New())
	u, err := usermodels.NewUser(userID, userID.String()+"@example.com", "", "", id.RoleUser, userType, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Save(s.ctx, u))
	return id.Caller{UserID: userID, Role: id.RoleUser}
}

func (s *ServiceSuite) TestStatsWindows() {
	for i := 1; i <= 5; i++ {
		s.seed(verificationmodels.StatusVerified, s.now.Add(-time.Duration(i)*time.Hour))
	}
	s.seed(verificationmodels.StatusVerified, s.now.Add(-10*24*time.Hour))
	s.seed(verificationmodels.StatusVerified, s.now.Add(-10*24*time.Hour))
	s.seed(verificationmodels.StatusRejected, s.now.Add(-3*24*time.Hour))
	s.seed(verificationmodels.StatusRejected, s.now.Add(-time.Hour))
	s.seed(verificationmodels.StatusSubmitted, s.now)
	s.seed(verificationmodels.StatusSubmitted, s.now)
	s.seed(verificationmodels.StatusInfoRequested, s.now)

	stats, err := s.svc.Stats(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Equal(5, stats.ApprovedToday)
	s.Equal(5, stats.ApprovedThisWeek)
	s.Equal(1, stats.RejectedToday)
	s.Equal(2, stats.RejectedThisWeek)
	s.Equal(2, stats.Pending)
	s.Equal(1, stats.AwaitingResponse)
	s.Equal(12, stats.Total)
	s.GreaterOrEqual(stats.ApprovedThisWeek, stats.ApprovedToday)
	s.Equal(s.now, stats.GeneratedAt)
}

func (s *ServiceSuite) TestStatsCache() {
	s.seed(verificationmodels.StatusSubmitted, s.now)

	first, err := s.svc.Stats(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Equal(1, first.Pending)
	s.Equal(1, s.cache.sets)

	s.seed(verificationmodels.StatusSubmitted, s.now)
	cached, err := s.svc.Stats(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Equal(1, cached.Pending)

	refreshed, err := s.svc.Refresh(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, refreshed.Pending)

	again, err := s.svc.Stats(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Equal(2, again.Pending)
}

func (s *ServiceSuite) TestInvalidateStatsForcesRecompute() {
	s.seed(verificationmodels.StatusSubmitted, s.now)
	_, err := s.svc.Stats(s.ctx, s.admin)
	s.Require().NoError(err)

	s.seed(verificationmodels.StatusSubmitted, s.now)
	s.svc.InvalidateStats(s.ctx)

	stats, err := s.svc.Stats(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Equal(2, stats.Pending)
	s.Equal(2, s.cache.sets)
}

func (s *ServiceSuite) TestInvalidateStatsToleratesCacheErrors() {
	s.cache.err = errors.New("redis down")
	s.NotPanics(func() { s.svc.InvalidateStats(s.ctx) })

	s.NotPanics(func() { New(s.records, s.records, nil, nil).InvalidateStats(s.ctx) })
}

func (s *ServiceSuite) TestStatsCacheErrorFallsBack() {
	s.cache.err = errors.New("redis down")
	s.seed(verificationmodels.StatusSubmitted, s.now)
	stats, err := s.svc.Stats(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Equal(1, stats.Pending)
}

func (s *ServiceSuite) TestStatsRequiresAdmin() {
	_, err := s.svc.Stats(s.ctx, s.newUser(id.UserTypeEmployee))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.svc.Stats(s.ctx, id.Caller{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestStatsStoreFailure() {
	svc := New(failingCounter{s.records}, s.records, nil, nil)
	_, err := svc.Stats(s.ctx, s.admin)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestProgress() {
	s.Run("draft without a record follows completeness", func() {
		user := s.newUser(id.UserTypeEmployee)
		p, err := s.svc.Progress(s.ctx, user, user.UserID)
		s.Require().NoError(err)
		s.Equal(verificationmodels.StatusDraft, p.Status)
		s.Equal(models.StepCurrent, p.Steps[1].State)
		s.Equal(models.StepPending, p.Steps[2].State)

		err = s.sections.SavePersonalInfo(s.ctx, &sectionmodels.PersonalInfo{
			UserID: user.UserID, FirstName: "A", LastName: "B", Gender: "female",
		})
		s.Require().NoError(err)
		p, err = s.svc.Progress(s.ctx, user, user.UserID)
		s.Require().NoError(err)
		s.Equal(models.StepCompleted, p.Steps[1].State)
		s.Equal(models.StepCurrent, p.Steps[2].State)
	})

	s.Run("submitted record", func() {
		user := s.newUser(id.UserTypeApplicant)
		r := verificationmodels.NewDraft(id.NewVerificationID(), user.UserID, s.now)
		r.ApplySubmission(s.now)
		s.Require().NoError(s.records.Save(s.ctx, r))

		p, err := s.svc.Progress(s.ctx, s.admin, user.UserID)
		s.Require().NoError(err)
		s.Equal(verificationmodels.StatusSubmitted, p.Status)
		s.Equal(models.StepCurrent, p.Steps[3].State)
	})

	s.Run("other users are forbidden", func() {
		a := s.newUser(id.UserTypeEmployee)
		b := s.newUser(id.UserTypeEmployee)
		_, err := s.svc.Progress(s.ctx, a, b.UserID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
