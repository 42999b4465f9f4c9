package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vetting/internal/verification/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
)

type InMemoryRecordStoreSuite struct {
	suite.Suite
	store *InMemoryRecordStore
	ctx   context.Context
	now   time.Time
	admin id.UserID
}

func (s *InMemoryRecordStoreSuite) SetupTest() {
	s.store = NewInMemoryRecords()
	s.ctx = context.Background()
	s.now = time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC)
	s.admin = id.UserID(uuid.New())
}

func TestInMemoryRecordStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryRecordStoreSuite))
}

func (s *InMemoryRecordStoreSuite) save(at time.Time, apply func(r *models.Record)) *models.Record {
	r := models.NewDraft(id.NewVerificationID(), id.UserID(uuid.New()), at)
	if apply != nil {
		apply(r)
	}
	s.Require().NoError(s.store.Save(s.ctx, r))
	return r
}

func (s *InMemoryRecordStoreSuite) TestLookup() {
	r := s.save(s.now, nil)

	byID, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.UserID, byID.UserID)

	byUser, err := s.store.FindByUser(s.ctx, r.UserID)
	s.Require().NoError(err)
	s.Equal(r.ID, byUser.ID)

	_, err = s.store.FindByID(s.ctx, id.NewVerificationID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryRecordStoreSuite) TestOneRecordPerUser() {
	r := s.save(s.now, nil)
	dup := models.NewDraft(id.NewVerificationID(), r.UserID, s.now)
	s.ErrorIs(s.store.Save(s.ctx, dup), sentinel.ErrConflict)
}

func (s *InMemoryRecordStoreSuite) TestReturnsCopies() {
	r := s.save(s.now, func(r *models.Record) { r.ApplyInfoRequest("more", s.now) })
	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	*got.RejectionReason = "mutated"

	again, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal("more", *again.RejectionReason)
}

func (s *InMemoryRecordStoreSuite) TestListPaging() {
	for i := range 5 {
		s.save(s.now.Add(time.Duration(i)*time.Minute), func(r *models.Record) { r.ApplySubmission(r.CreatedAt) })
	}
	s.save(s.now, nil)

	submitted := models.StatusSubmitted
	page, total, err := s.store.List(s.ctx, models.ListFilter{Status: &submitted, Limit: 2, Offset: 1})
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Require().Len(page, 2)
	s.True(page[0].UpdatedAt.After(page[1].UpdatedAt))

	all, total, err := s.store.List(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Equal(6, total)
	s.Len(all, 6)

	beyond, _, err := s.store.List(s.ctx, models.ListFilter{Offset: 10, Limit: 5})
	s.Require().NoError(err)
	s.Empty(beyond)
}

func (s *InMemoryRecordStoreSuite) TestCounts() {
	today := s.now.Add(-time.Hour)
	tenDaysAgo := s.now.Add(-10 * 24 * time.Hour)

	for range 5 {
		s.save(today, func(r *models.Record) { r.ApplyApproval(s.admin, today) })
	}
	for range 2 {
		s.save(tenDaysAgo, func(r *models.Record) { r.ApplyApproval(s.admin, tenDaysAgo) })
	}
	s.save(today, func(r *models.Record) { r.ApplyRejection(s.admin, "no", today) })
	s.save(today, func(r *models.Record) { r.ApplyInfoRequest("more", today) })
	s.save(today, func(r *models.Record) { r.ApplySubmission(today) })

	n, err := s.store.CountVerifiedSince(s.ctx, s.now.Add(-7*24*time.Hour))
	s.Require().NoError(err)
	s.Equal(5, n)

	n, err = s.store.CountVerifiedSince(s.ctx, tenDaysAgo)
	s.Require().NoError(err)
	s.Equal(7, n)

	n, err = s.store.CountRejectedSince(s.ctx, s.now.Add(-2*time.Hour))
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.store.CountByStatus(s.ctx, models.StatusInfoRequested)
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(10, n)
}

func TestInMemoryAuditLogStore(t *testing.T) {
	ctx := context.Background()
	log := NewInMemoryAuditLog()
	vid := id.NewVerificationID()
	reason := "blurry"

	first := &models.AuditLogEntry{ID: id.NewAuditEntryID(), VerificationID: vid, Action: models.ActionRejected, Reason: &reason}
	second := &models.AuditLogEntry{ID: id.NewAuditEntryID(), VerificationID: vid, Action: models.ActionApproved}
	if err := log.Append(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := log.Append(ctx, second); err != nil {
		t.Fatal(err)
	}
	reason = "changed"

	entries, err := log.ListByVerification(ctx, vid)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Action != models.ActionRejected || *entries[0].Reason != "blurry" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
