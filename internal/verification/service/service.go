// Package service moves verification records between statuses and writes the
// admin audit trail in the same transaction as each decision.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	sectionservice "vetting/internal/sections/service"
	usermodels "vetting/internal/users/models"
	"vetting/internal/verification/events"
	"vetting/internal/verification/export"
	"vetting/internal/verification/metrics"
	"vetting/internal/verification/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/audit"
	"vetting/pkg/platform/sentinel"
	strutil "vetting/pkg/platform/strings"
	"vetting/pkg/requestcontext"
)

const (
	msgNotFound     = "Verification not found"
	maxExportRows   = 10000
	tracerName      = "vetting/verification"
	actionSubmitted = "submitted"
)

type RecordReader interface {
	FindByID(ctx context.Context, verificationID id.VerificationID) (*models.Record, error)
	FindByUser(ctx context.Context, userID id.UserID) (*models.Record, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Record, int, error)
}

type AuditLogReader interface {
	ListByVerification(ctx context.Context, verificationID id.VerificationID) ([]models.AuditLogEntry, error)
}

type UserDirectory interface {
	ListByIDs(ctx context.Context, ids []id.UserID) (map[id.UserID]*usermodels.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, event events.StatusChanged) error
}

// StatsInvalidator is told after every committed status change.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

type Service struct {
	tx       TxRunner
	records  RecordReader
	auditLog AuditLogReader
	users    UserDirectory

	logger         *slog.Logger
	auditPublisher AuditPublisher
	events         EventPublisher
	stats          StatsInvalidator
	metrics        *metrics.Metrics
	tracer         trace.Tracer
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

// WithEventPublisher enables status change events on the broker.
func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.events = publisher
	}
}

func WithStatsInvalidator(stats StatsInvalidator) Option {
	return func(s *Service) {
		s.stats = stats
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(tx TxRunner, records RecordReader, auditLog AuditLogReader, users UserDirectory, opts ...Option) *Service {
	s := &Service{
		tx:       tx,
		records:  records,
		auditLog: auditLog,
		users:    users,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit replaces the caller's current identity document with the final
// images and hands the record to reviewers. Resubmission is allowed from any
// status.
func (s *Service) Submit(ctx context.Context, caller id.Caller, userID id.UserID, req *models.SubmitRequest) (*models.Record, error) {
	start := time.Now()
	defer s.metrics.ObserveOperation("submit", start)
	ctx, span := s.tracer.Start(ctx, "verification.submit", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	if err := caller.RequireAuthenticated(); err != nil {
		return nil, s.fail(span, err)
	}
	if caller.UserID != userID {
		return nil, s.fail(span, dErrors.New(dErrors.CodeForbidden, "cannot submit verification for another user"))
	}
	if err := req.Validate(); err != nil {
		return nil, s.fail(span, err)
	}

	now := requestcontext.Now(ctx)
	var (
		record *models.Record
		prev   models.Status
	)
	err := s.tx.RunInTx(WithTxKey(ctx, userID.String()), func(ctx context.Context, stores Stores) error {
		if _, err := sectionservice.ReplaceCurrentDocument(ctx, stores.Documents, userID, req.Draft()); err != nil {
			return err
		}
		r, err := loadOrCreate(ctx, stores.Records, userID, now)
		if err != nil {
			return err
		}
		prev = r.ApplySubmission(now)
		if err := stores.Records.Save(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification")
		}
		record = r
		return nil
	})
	if err != nil {
		s.metrics.IncrementTransition(actionSubmitted, "failure")
		return nil, s.fail(span, err)
	}

	s.metrics.IncrementTransition(actionSubmitted, "success")
	s.emit(ctx, audit.Event{
		UserID:   userID,
		Subject:  record.ID.String(),
		Action:   string(audit.EventVerificationSubmitted),
		Decision: string(models.StatusSubmitted),
	})
	s.publish(ctx, record, userID, actionSubmitted, prev, "")
	s.invalidateStats(ctx)
	s.logger.InfoContext(ctx, "verification submitted",
		"request_id", requestcontext.RequestID(ctx),
		"verification_id", record.ID,
		"user_id", userID,
		"previous_status", prev,
	)
	return record, nil
}

// Approve marks the record verified and flips the owner's verified flag. The
// note is optional.
func (s *Service) Approve(ctx context.Context, caller id.Caller, verificationID id.VerificationID, note string) (*models.Record, error) {
	return s.decide(ctx, caller, verificationID, models.ActionApproved, note)
}

// Reject requires a non-blank reason.
func (s *Service) Reject(ctx context.Context, caller id.Caller, verificationID id.VerificationID, reason string) (*models.Record, error) {
	return s.decide(ctx, caller, verificationID, models.ActionRejected, reason)
}

// RequestInfo asks the user for more information; reason carries the message.
func (s *Service) RequestInfo(ctx context.Context, caller id.Caller, verificationID id.VerificationID, reason string) (*models.Record, error) {
	return s.decide(ctx, caller, verificationID, models.ActionInfoRequested, reason)
}

func (s *Service) decide(ctx context.Context, caller id.Caller, verificationID id.VerificationID, action models.Action, reason string) (*models.Record, error) {
	start := time.Now()
	defer s.metrics.ObserveOperation(string(action), start)
	ctx, span := s.tracer.Start(ctx, "verification."+string(action), trace.WithAttributes(
		attribute.String("verification.id", verificationID.String()),
		attribute.String("admin.id", caller.UserID.String()),
	))
	defer span.End()

	if err := caller.RequireAdmin(); err != nil {
		return nil, s.fail(span, err)
	}
	reason = strings.TrimSpace(reason)
	if action.RequiresReason() && reason == "" {
		return nil, s.fail(span, dErrors.New(dErrors.CodeValidation, "reason is required"))
	}

	record, err := s.applyDecision(ctx, caller, verificationID, action, reason)
	if err != nil {
		s.metrics.IncrementTransition(string(action), "failure")
		return nil, s.fail(span, err)
	}
	s.metrics.IncrementTransition(string(action), "success")
	return record, nil
}

// applyDecision runs one admin decision in its own transaction and fires the
// post-commit side effects. Callers have already checked role and reason.
func (s *Service) applyDecision(ctx context.Context, caller id.Caller, verificationID id.VerificationID, action models.Action, reason string) (*models.Record, error) {
	now := requestcontext.Now(ctx)
	var (
		record *models.Record
		prev   models.Status
	)
	err := s.tx.RunInTx(WithTxKey(ctx, verificationID.String()), func(ctx context.Context, stores Stores) error {
		r, err := stores.Records.FindByID(ctx, verificationID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, msgNotFound)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
		}

		switch action {
		case models.ActionApproved:
			prev = r.ApplyApproval(caller.UserID, now)
		case models.ActionRejected:
			prev = r.ApplyRejection(caller.UserID, reason, now)
		case models.ActionInfoRequested:
			prev = r.ApplyInfoRequest(reason, now)
		default:
			return dErrors.New(dErrors.CodeValidation, "unsupported action")
		}
		if err := r.Validate(); err != nil {
			return err
		}
		// The owner flag goes first: the memory tx cannot undo the writes below.
		if action == models.ActionApproved {
			if err := stores.Users.MarkVerified(ctx, r.UserID, now); err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.New(dErrors.CodeNotFound, "user not found")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark user verified")
			}
		}
		if err := stores.Records.Save(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification")
		}

		entry := &models.AuditLogEntry{
			ID:             id.NewAuditEntryID(),
			VerificationID: r.ID,
			AdminID:        caller.UserID,
			Action:         action,
			PreviousStatus: prev,
			NewStatus:      r.Status,
			IPAddress:      requestcontext.ClientIP(ctx),
			Device:         requestcontext.Device(ctx),
			CreatedAt:      now,
		}
		if reason != "" {
			entry.Reason = &reason
		}
		if err := stores.AuditLog.Append(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write audit log")
		}

		record = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		UserID:   record.UserID,
		Subject:  record.ID.String(),
		Action:   string(decisionEvent(action)),
		Decision: string(record.Status),
		Reason:   reason,
		ActorID:  caller.UserID.String(),
	})
	s.publish(ctx, record, caller.UserID, string(action), prev, reason)
	s.invalidateStats(ctx)
	s.logger.InfoContext(ctx, "verification decided",
		"request_id", requestcontext.RequestID(ctx),
		"verification_id", record.ID,
		"admin_id", caller.UserID,
		"action", action,
		"previous_status", prev,
		"new_status", record.Status,
	)
	return record, nil
}

// BulkAction applies one decision to many records. Role, action and reason
// are checked before any item; each item then runs in its own transaction and
// failures are collected rather than aborting the batch.
func (s *Service) BulkAction(ctx context.Context, caller id.Caller, ids []string, actionName, reason string) (*models.BulkResult, error) {
	start := time.Now()
	defer s.metrics.ObserveOperation("bulk", start)
	ctx, span := s.tracer.Start(ctx, "verification.bulk")
	defer span.End()

	if err := caller.RequireAdmin(); err != nil {
		return nil, s.fail(span, err)
	}
	action, err := models.ParseBulkAction(actionName)
	if err != nil {
		return nil, s.fail(span, err)
	}
	reason = strings.TrimSpace(reason)
	if action.RequiresReason() && reason == "" {
		return nil, s.fail(span, dErrors.New(dErrors.CodeValidation, "reason is required for reject and request_info"))
	}

	ids = strutil.NormalizeIDs(ids)
	if len(ids) == 0 {
		return nil, s.fail(span, dErrors.New(dErrors.CodeValidation, "ids must not be empty"))
	}
	parsed := make([]id.VerificationID, len(ids))
	for i, raw := range ids {
		vid, err := id.ParseVerificationID(raw)
		if err != nil {
			return nil, s.fail(span, dErrors.New(dErrors.CodeValidation, "invalid verification id: "+raw))
		}
		parsed[i] = vid
	}
	span.SetAttributes(
		attribute.String("bulk.action", string(action)),
		attribute.Int("bulk.size", len(parsed)),
	)
	s.metrics.ObserveBulkBatchSize(len(parsed))

	result := &models.BulkResult{Total: len(parsed), Errors: []models.BulkItemError{}}
	for i, vid := range parsed {
		if _, err := s.applyDecision(ctx, caller, vid, action, reason); err != nil {
			s.metrics.IncrementTransition(string(action), "failure")
			result.Failed++
			result.Errors = append(result.Errors, models.BulkItemError{ID: ids[i], Error: dErrors.MessageOf(err)})
			s.logger.WarnContext(ctx, "bulk item failed",
				"request_id", requestcontext.RequestID(ctx),
				"verification_id", ids[i],
				"action", action,
				"error", err,
			)
			continue
		}
		s.metrics.IncrementTransition(string(action), "success")
		result.Succeeded++
	}

	s.emit(ctx, audit.Event{
		UserID:   caller.UserID,
		Subject:  string(action),
		Action:   string(audit.EventBulkActionCompleted),
		Decision: bulkDecision(result),
		Reason:   reason,
		ActorID:  caller.UserID.String(),
	})
	return result, nil
}

// GetMine returns the caller's record, or an unsaved draft (zero ID) when
// none exists yet.
func (s *Service) GetMine(ctx context.Context, caller id.Caller) (*models.Record, error) {
	if err := caller.RequireAuthenticated(); err != nil {
		return nil, err
	}
	r, err := s.records.FindByUser(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.NewDraft(id.VerificationID{}, caller.UserID, requestcontext.Now(ctx)), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return r, nil
}

// EnsureDraft persists a draft record for the caller on first interaction.
func (s *Service) EnsureDraft(ctx context.Context, caller id.Caller) (*models.Record, error) {
	if err := caller.RequireAuthenticated(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	var record *models.Record
	err := s.tx.RunInTx(WithTxKey(ctx, caller.UserID.String()), func(ctx context.Context, stores Stores) error {
		r, err := stores.Records.FindByUser(ctx, caller.UserID)
		if err == nil {
			record = r
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
		}
		r = models.NewDraft(id.NewVerificationID(), caller.UserID, now)
		if err := stores.Records.Save(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create verification")
		}
		record = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) Get(ctx context.Context, caller id.Caller, verificationID id.VerificationID) (*models.Record, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	r, err := s.records.FindByID(ctx, verificationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return r, nil
}

// History returns the decisions taken on a record, oldest first.
func (s *Service) History(ctx context.Context, caller id.Caller, verificationID id.VerificationID) ([]models.AuditLogEntry, error) {
	if _, err := s.Get(ctx, caller, verificationID); err != nil {
		return nil, err
	}
	entries, err := s.auditLog.ListByVerification(ctx, verificationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit log")
	}
	return entries, nil
}

// List returns one page of the review queue with owner details.
func (s *Service) List(ctx context.Context, caller id.Caller, filter models.ListFilter) (*models.Page, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	filter.Normalize()
	entries, total, err := s.queue(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.Page{Items: entries, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Export writes the filtered queue as a spreadsheet, ignoring paging.
func (s *Service) Export(ctx context.Context, caller id.Caller, filter models.ListFilter, w io.Writer) error {
	if err := caller.RequireAdmin(); err != nil {
		return err
	}
	filter.Limit = maxExportRows
	filter.Offset = 0
	entries, _, err := s.queue(ctx, filter)
	if err != nil {
		return err
	}
	if err := export.WriteQueue(w, entries); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to export verifications")
	}
	subject := "all"
	if filter.Status != nil {
		subject = string(*filter.Status)
	}
	s.emit(ctx, audit.Event{
		UserID:   caller.UserID,
		Subject:  subject,
		Action:   string(audit.EventVerificationsExported),
		Decision: strconv.Itoa(len(entries)),
		ActorID:  caller.UserID.String(),
	})
	return nil
}

func (s *Service) queue(ctx context.Context, filter models.ListFilter) ([]models.QueueEntry, int, error) {
	records, total, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verifications")
	}
	userIDs := make([]id.UserID, 0, len(records))
	for _, r := range records {
		userIDs = append(userIDs, r.UserID)
	}
	users, err := s.users.ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load users")
	}
	entries := make([]models.QueueEntry, 0, len(records))
	for _, r := range records {
		entry := models.QueueEntry{Record: r}
		if u, ok := users[r.UserID]; ok {
			entry.UserEmail = u.Email
			entry.UserName = u.DisplayName()
			entry.UserType = u.Type
		}
		entries = append(entries, entry)
	}
	return entries, total, nil
}

func loadOrCreate(ctx context.Context, records RecordStore, userID id.UserID, now time.Time) (*models.Record, error) {
	r, err := records.FindByUser(ctx, userID)
	if err == nil {
		return r, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.NewDraft(id.NewVerificationID(), userID, now), nil
	}
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
}

func decisionEvent(action models.Action) audit.AuditEvent {
	switch action {
	case models.ActionApproved:
		return audit.EventVerificationApproved
	case models.ActionRejected:
		return audit.EventVerificationRejected
	default:
		return audit.EventVerificationInfoRequested
	}
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	return err
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}
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

// publish sends the status change to the broker. Failures are logged and
// counted; the transition has already committed.
func (s *Service) publish(ctx context.Context, r *models.Record, actor id.UserID, action string, prev models.Status, reason string) {
	if s.events == nil {
		return
	}
	err := s.events.PublishStatusChanged(ctx, events.StatusChanged{
		VerificationID: r.ID,
		UserID:         r.UserID,
		ActorID:        actor,
		Action:         action,
		PreviousStatus: prev,
		NewStatus:      r.Status,
		Reason:         reason,
		OccurredAt:     r.UpdatedAt,
	})
	if err != nil {
		s.metrics.IncrementPublishFailure()
		s.logger.WarnContext(ctx, "failed to publish status event",
			"request_id", requestcontext.RequestID(ctx),
			"verification_id", r.ID,
			"error", err,
		)
	}
}

func bulkDecision(result *models.BulkResult) string {
	return strconv.Itoa(result.Succeeded) + "/" + strconv.Itoa(result.Total)
}
