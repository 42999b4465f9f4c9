package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vetting/internal/sections/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
	txcontext "vetting/pkg/platform/tx"
)

// PostgresSectionStore persists wizard sections in PostgreSQL.
type PostgresSectionStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresSectionStore {
	return &PostgresSectionStore{db: db}
}

func (s *PostgresSectionStore) conn(ctx context.Context) txcontext.Querier {
	q, _ := txcontext.Conn(ctx, s.db)
	return q
}

func (s *PostgresSectionStore) FindPersonalInfo(ctx context.Context, userID id.UserID) (*models.PersonalInfo, error) {
	var (
		p   models.PersonalInfo
		dob sql.NullTime
	)
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT first_name, last_name, gender, date_of_birth, phone, address, updated_at
		FROM personal_info WHERE user_id = $1
	`, uuid.UUID(userID)).Scan(&p.FirstName, &p.LastName, &p.Gender, &dob, &p.Phone, &p.Address, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find personal info: %w", err)
	}
	p.UserID = userID
	p.DateOfBirth = timePtr(dob)
	return &p, nil
}

func (s *PostgresSectionStore) SavePersonalInfo(ctx context.Context, info *models.PersonalInfo) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO personal_info (user_id, first_name, last_name, gender, date_of_birth, phone, address, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			gender = EXCLUDED.gender,
			date_of_birth = EXCLUDED.date_of_birth,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			updated_at = EXCLUDED.updated_at
	`, uuid.UUID(info.UserID), info.FirstName, info.LastName, info.Gender,
		nullTime(info.DateOfBirth), info.Phone, info.Address, info.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save personal info: %w", err)
	}
	return nil
}

func (s *PostgresSectionStore) FindEducation(ctx context.Context, userID id.UserID) (*models.Education, error) {
	var (
		e     models.Education
		rawID uuid.UUID
		level string
		year  sql.NullInt64
	)
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, level, school_name, degree, field_of_study, graduation_year, updated_at
		FROM education WHERE user_id = $1
	`, uuid.UUID(userID)).Scan(&rawID, &level, &e.SchoolName, &e.Degree, &e.FieldOfStudy, &year, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find education: %w", err)
	}
	e.ID = id.EducationID(rawID)
	e.UserID = userID
	e.Level = models.EducationLevel(level)
	if year.Valid {
		y := int(year.Int64)
		e.GraduationYear = &y
	}
	return &e, nil
}

// SaveEducation upserts on user_id so a user keeps a single record; the
// stored ID is written back into edu.
func (s *PostgresSectionStore) SaveEducation(ctx context.Context, edu *models.Education) error {
	var year any
	if edu.GraduationYear != nil {
		year = *edu.GraduationYear
	}
	var rawID uuid.UUID
	err := s.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO education (id, user_id, level, school_name, degree, field_of_study, graduation_year, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			level = EXCLUDED.level,
			school_name = EXCLUDED.school_name,
			degree = EXCLUDED.degree,
			field_of_study = EXCLUDED.field_of_study,
			graduation_year = EXCLUDED.graduation_year,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`, uuid.UUID(edu.ID), uuid.UUID(edu.UserID), string(edu.Level), edu.SchoolName, edu.Degree,
		edu.FieldOfStudy, year, edu.UpdatedAt).Scan(&rawID)
	if err != nil {
		return fmt.Errorf("save education: %w", err)
	}
	edu.ID = id.EducationID(rawID)
	return nil
}

func (s *PostgresSectionStore) CurrentDocument(ctx context.Context, userID id.UserID) (*models.IdentityDocument, error) {
	var (
		d         models.IdentityDocument
		rawID     uuid.UUID
		docType   string
		status    string
		front     sql.NullString
		back      sql.NullString
		submitted sql.NullTime
	)
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, document_type, front_image_url, back_image_url, status, submitted_at, created_at, updated_at
		FROM identity_documents
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, uuid.UUID(userID)).Scan(&rawID, &docType, &front, &back, &status, &submitted, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find current document: %w", err)
	}
	d.ID = id.DocumentID(rawID)
	d.UserID = userID
	d.DocumentType = models.DocumentType(docType)
	d.Status = models.DocumentStatus(status)
	d.FrontImageURL = stringPtr(front)
	d.BackImageURL = stringPtr(back)
	d.SubmittedAt = timePtr(submitted)
	return &d, nil
}

func (s *PostgresSectionStore) SaveDocument(ctx context.Context, doc *models.IdentityDocument) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO identity_documents (id, user_id, document_type, front_image_url, back_image_url, status, submitted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			document_type = EXCLUDED.document_type,
			front_image_url = EXCLUDED.front_image_url,
			back_image_url = EXCLUDED.back_image_url,
			status = EXCLUDED.status,
			submitted_at = EXCLUDED.submitted_at,
			updated_at = EXCLUDED.updated_at
	`, uuid.UUID(doc.ID), uuid.UUID(doc.UserID), string(doc.DocumentType), nullString(doc.FrontImageURL),
		nullString(doc.BackImageURL), string(doc.Status), nullTime(doc.SubmittedAt), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *PostgresSectionStore) DeleteDocument(ctx context.Context, userID id.UserID, docID id.DocumentID) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`DELETE FROM identity_documents WHERE id = $1 AND user_id = $2`, uuid.UUID(docID), uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresSectionStore) ListJobs(ctx context.Context, userID id.UserID) ([]models.JobEntry, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT id, company, title, start_date, end_date, is_current, description
		FROM job_entries WHERE user_id = $1
		ORDER BY position
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.JobEntry
	for rows.Next() {
		var (
			j          models.JobEntry
			rawID      uuid.UUID
			start, end sql.NullTime
		)
		if err := rows.Scan(&rawID, &j.Company, &j.Title, &start, &end, &j.Current, &j.Description); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.ID = id.JobID(rawID)
		j.UserID = userID
		j.StartDate = timePtr(start)
		j.EndDate = timePtr(end)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// ReplaceJobs swaps the user's job list. It joins the context transaction when
// present and otherwise opens its own.
func (s *PostgresSectionStore) ReplaceJobs(ctx context.Context, userID id.UserID, jobs []models.JobEntry) error {
	if _, ok := txcontext.From(ctx); ok {
		return s.replaceJobs(ctx, userID, jobs)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace jobs: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := s.replaceJobs(txcontext.WithTx(ctx, tx), userID, jobs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace jobs: %w", err)
	}
	return nil
}

func (s *PostgresSectionStore) replaceJobs(ctx context.Context, userID id.UserID, jobs []models.JobEntry) error {
	conn := s.conn(ctx)
	if _, err := conn.ExecContext(ctx, `DELETE FROM job_entries WHERE user_id = $1`, uuid.UUID(userID)); err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}
	for i, j := range jobs {
		_, err := conn.ExecContext(ctx, `
			INSERT INTO job_entries (id, user_id, position, company, title, start_date, end_date, is_current, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, uuid.UUID(j.ID), uuid.UUID(userID), i, j.Company, j.Title,
			nullTime(j.StartDate), nullTime(j.EndDate), j.Current, j.Description)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
