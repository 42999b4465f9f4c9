// Package service computes review progress for users and dashboard counts
// for admins.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"vetting/internal/progress"
	"vetting/internal/progress/metrics"
	"vetting/internal/progress/models"
	sectionmodels "vetting/internal/sections/models"
	verificationmodels "vetting/internal/verification/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/audit"
	"vetting/pkg/platform/sentinel"
	"vetting/pkg/requestcontext"
)

const defaultCacheTTL = time.Minute

// Counter answers the count queries behind the dashboard.
type Counter interface {
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status verificationmodels.Status) (int, error)
	CountVerifiedSince(ctx context.Context, since time.Time) (int, error)
	CountRejectedSince(ctx context.Context, since time.Time) (int, error)
}

type RecordFinder interface {
	FindByUser(ctx context.Context, userID id.UserID) (*verificationmodels.Record, error)
}

type SectionEvaluator interface {
	Completeness(ctx context.Context, userID id.UserID, userType id.UserType) (*sectionmodels.Sections, sectionmodels.Completeness, error)
}

type UserTypes interface {
	UserType(ctx context.Context, userID id.UserID) (id.UserType, error)
}

// StatsCache is optional; without one every Stats call hits the store.
type StatsCache interface {
	Get(ctx context.Context) (*models.Stats, bool, error)
	Set(ctx context.Context, stats *models.Stats, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

type Service struct {
	counter  Counter
	records  RecordFinder
	sections SectionEvaluator
	users    UserTypes

	cache          StatsCache
	cacheTTL       time.Duration
	location       *time.Location
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithCache(cache StatsCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithLocation sets the zone whose calendar day bounds "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(counter Counter, records RecordFinder, sections SectionEvaluator, users UserTypes, opts ...Option) *Service {
	s := &Service{
		counter:  counter,
		records:  records,
		sections: sections,
		users:    users,
		cacheTTL: defaultCacheTTL,
		location: time.UTC,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns the dashboard counts, served from the cache when fresh.
// Cache failures fall back to the store.
func (s *Service) Stats(ctx context.Context, caller id.Caller) (*models.Stats, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.metrics.IncrementCacheLookup("error")
			s.logger.WarnContext(ctx, "stats cache read failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		case ok:
			s.metrics.IncrementCacheLookup("hit")
			return cached, nil
		default:
			s.metrics.IncrementCacheLookup("miss")
		}
	}
	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, stats)
	return stats, nil
}

// InvalidateStats drops the cached counts after a status change so the next
// Stats call recomputes. Failures are logged; the TTL bounds the staleness.
func (s *Service) InvalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "stats cache invalidation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

// Refresh recomputes the counts and replaces the cached copy. It runs from
// the scheduler without a caller.
func (s *Service) Refresh(ctx context.Context) (*models.Stats, error) {
	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, stats)
	if s.auditPublisher != nil {
		if err := s.auditPublisher.Emit(ctx, audit.Event{
			Action:  string(audit.EventStatsRefreshed),
			Subject: "dashboard",
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event", "error", err)
		}
	}
	return stats, nil
}

func (s *Service) compute(ctx context.Context) (*models.Stats, error) {
	start := time.Now()
	defer s.metrics.ObserveCompute(start)

	now := requestcontext.Now(ctx)
	today, lastWeek := progress.Windows(now, s.location)
	stats := &models.Stats{GeneratedAt: now}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.counter.CountByStatus(ctx, verificationmodels.StatusSubmitted)
		stats.Pending = n
		return err
	})
	g.Go(func() error {
		n, err := s.counter.CountByStatus(ctx, verificationmodels.StatusInfoRequested)
		stats.AwaitingResponse = n
		return err
	})
	g.Go(func() error {
		n, err := s.counter.CountVerifiedSince(ctx, today)
		stats.ApprovedToday = n
		return err
	})
	g.Go(func() error {
		n, err := s.counter.CountVerifiedSince(ctx, lastWeek)
		stats.ApprovedThisWeek = n
		return err
	})
	g.Go(func() error {
		n, err := s.counter.CountRejectedSince(ctx, today)
		stats.RejectedToday = n
		return err
	})
	g.Go(func() error {
		n, err := s.counter.CountRejectedSince(ctx, lastWeek)
		stats.RejectedThisWeek = n
		return err
	})
	g.Go(func() error {
		n, err := s.counter.Count(ctx)
		stats.Total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute stats")
	}

	// The counts are separate queries; a decision landing between them must
	// not leave today above the week.
	if stats.ApprovedThisWeek < stats.ApprovedToday {
		stats.ApprovedThisWeek = stats.ApprovedToday
	}
	if stats.RejectedThisWeek < stats.RejectedToday {
		stats.RejectedThisWeek = stats.RejectedToday
	}
	return stats, nil
}

func (s *Service) store(ctx context.Context, stats *models.Stats) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, stats, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "stats cache write failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

// Progress returns the review stepper for userID. Users may only read their
// own progress; admins may read anyone's.
func (s *Service) Progress(ctx context.Context, caller id.Caller, userID id.UserID) (*models.Progress, error) {
	if err := caller.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if caller.UserID != userID && !caller.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot view another user's progress")
	}

	status := verificationmodels.StatusDraft
	record, err := s.records.FindByUser(ctx, userID)
	switch {
	case err == nil:
		status = record.Status
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}

	userType, err := s.users.UserType(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, completeness, err := s.sections.Completeness(ctx, userID, userType)
	if err != nil {
		return nil, err
	}
	return &models.Progress{
		Status:       status,
		Steps:        progress.Stepper(status, completeness),
		Completeness: completeness,
	}, nil
}
