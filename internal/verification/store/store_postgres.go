package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vetting/internal/verification/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
	txcontext "vetting/pkg/platform/tx"
)

// PostgresRecordStore persists verification records. Lookups inside a
// transaction lock the row.
type PostgresRecordStore struct {
	db *sql.DB
}

func NewPostgresRecords(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

const recordColumns = `id, user_id, status, submitted_at, verified_at, verified_by, rejection_reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		r           models.Record
		rawID       uuid.UUID
		rawUser     uuid.UUID
		status      string
		submittedAt sql.NullTime
		verifiedAt  sql.NullTime
		verifiedBy  uuid.NullUUID
		reason      sql.NullString
	)
	if err := row.Scan(&rawID, &rawUser, &status, &submittedAt, &verifiedAt, &verifiedBy, &reason, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ID = id.VerificationID(rawID)
	r.UserID = id.UserID(rawUser)
	r.Status = models.Status(status)
	if submittedAt.Valid {
		t := submittedAt.Time
		r.SubmittedAt = &t
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		r.VerifiedAt = &t
	}
	if verifiedBy.Valid {
		v := id.UserID(verifiedBy.UUID)
		r.VerifiedBy = &v
	}
	if reason.Valid {
		v := reason.String
		r.RejectionReason = &v
	}
	return &r, nil
}

func (s *PostgresRecordStore) findOne(ctx context.Context, where string, arg any) (*models.Record, error) {
	c, inTx := txcontext.Conn(ctx, s.db)
	query := `SELECT ` + recordColumns + ` FROM verification_records WHERE ` + where
	if inTx {
		query += ` FOR UPDATE`
	}
	r, err := scanRecord(c.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification record: %w", err)
	}
	return r, nil
}

func (s *PostgresRecordStore) FindByID(ctx context.Context, verificationID id.VerificationID) (*models.Record, error) {
	return s.findOne(ctx, `id = $1`, uuid.UUID(verificationID))
}

func (s *PostgresRecordStore) FindByUser(ctx context.Context, userID id.UserID) (*models.Record, error) {
	return s.findOne(ctx, `user_id = $1`, uuid.UUID(userID))
}

func (s *PostgresRecordStore) Save(ctx context.Context, record *models.Record) error {
	c, _ := txcontext.Conn(ctx, s.db)
	var verifiedBy uuid.NullUUID
	if record.VerifiedBy != nil {
		verifiedBy = uuid.NullUUID{UUID: uuid.UUID(*record.VerifiedBy), Valid: true}
	}
	_, err := c.ExecContext(ctx, `
		INSERT INTO verification_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			submitted_at = EXCLUDED.submitted_at,
			verified_at = EXCLUDED.verified_at,
			verified_by = EXCLUDED.verified_by,
			rejection_reason = EXCLUDED.rejection_reason,
			updated_at = EXCLUDED.updated_at
	`, uuid.UUID(record.ID), uuid.UUID(record.UserID), string(record.Status),
		nullTime(record.SubmittedAt), nullTime(record.VerifiedAt), verifiedBy,
		nullString(record.RejectionReason), record.CreatedAt, record.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save verification record: %w", err)
	}
	return nil
}

func (s *PostgresRecordStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Record, int, error) {
	c, _ := txcontext.Conn(ctx, s.db)
	var status any
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	var limit any
	if filter.Limit > 0 {
		limit = filter.Limit
	}

	var total int
	if err := c.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verification_records WHERE ($1::text IS NULL OR status = $1)`, status,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count verification records: %w", err)
	}

	rows, err := c.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM verification_records
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY updated_at DESC, id
		LIMIT $2 OFFSET $3
	`, status, limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list verification records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan verification record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate verification records: %w", err)
	}
	return out, total, nil
}

func (s *PostgresRecordStore) countWhere(ctx context.Context, where string, args ...any) (int, error) {
	c, _ := txcontext.Conn(ctx, s.db)
	var n int
	if err := c.QueryRowContext(ctx, `SELECT COUNT(*) FROM verification_records WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count verification records: %w", err)
	}
	return n, nil
}

func (s *PostgresRecordStore) Count(ctx context.Context) (int, error) {
	return s.countWhere(ctx, `TRUE`)
}

func (s *PostgresRecordStore) CountByStatus(ctx context.Context, status models.Status) (int, error) {
	return s.countWhere(ctx, `status = $1`, string(status))
}

func (s *PostgresRecordStore) CountVerifiedSince(ctx context.Context, since time.Time) (int, error) {
	return s.countWhere(ctx, `status = $1 AND verified_at >= $2`, string(models.StatusVerified), since)
}

func (s *PostgresRecordStore) CountRejectedSince(ctx context.Context, since time.Time) (int, error) {
	return s.countWhere(ctx, `status = $1 AND updated_at >= $2`, string(models.StatusRejected), since)
}

// PostgresAuditLogStore persists admin decisions.
type PostgresAuditLogStore struct {
	db *sql.DB
}

func NewPostgresAuditLog(db *sql.DB) *PostgresAuditLogStore {
	return &PostgresAuditLogStore{db: db}
}

func (s *PostgresAuditLogStore) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	c, _ := txcontext.Conn(ctx, s.db)
	_, err := c.ExecContext(ctx, `
		INSERT INTO verification_audit_log
			(id, verification_id, admin_id, action, previous_status, new_status, reason, ip_address, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uuid.UUID(entry.ID), uuid.UUID(entry.VerificationID), uuid.UUID(entry.AdminID), string(entry.Action),
		string(entry.PreviousStatus), string(entry.NewStatus), nullString(entry.Reason),
		entry.IPAddress, entry.Device, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit log entry: %w", err)
	}
	return nil
}

func (s *PostgresAuditLogStore) ListByVerification(ctx context.Context, verificationID id.VerificationID) ([]models.AuditLogEntry, error) {
	c, _ := txcontext.Conn(ctx, s.db)
	rows, err := c.QueryContext(ctx, `
		SELECT id, admin_id, action, previous_status, new_status, reason, ip_address, device, created_at
		FROM verification_audit_log
		WHERE verification_id = $1
		ORDER BY created_at, id
	`, uuid.UUID(verificationID))
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	defer rows.Close()

	var out []models.AuditLogEntry
	for rows.Next() {
		var (
			e        models.AuditLogEntry
			rawID    uuid.UUID
			rawAdmin uuid.UUID
			action   string
			prev     string
			next     string
			reason   sql.NullString
		)
		if err := rows.Scan(&rawID, &rawAdmin, &action, &prev, &next, &reason, &e.IPAddress, &e.Device, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log entry: %w", err)
		}
		e.ID = id.AuditEntryID(rawID)
		e.VerificationID = verificationID
		e.AdminID = id.UserID(rawAdmin)
		e.Action = models.Action(action)
		e.PreviousStatus = models.Status(prev)
		e.NewStatus = models.Status(next)
		if reason.Valid {
			v := reason.String
			e.Reason = &v
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}
	return out, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
