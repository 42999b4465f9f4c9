package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vetting/internal/users/models"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/sentinel"
	txcontext "vetting/pkg/platform/tx"
)

// PostgresUserStore persists users in PostgreSQL. Calls join the transaction
// carried in the context, if any.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) conn(ctx context.Context) txcontext.Querier {
	q, _ := txcontext.Conn(ctx, s.db)
	return q
}

func (s *PostgresUserStore) Save(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, first_name, last_name, role, user_type, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role = EXCLUDED.role,
			user_type = EXCLUDED.user_type,
			verified = EXCLUDED.verified,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Email, user.FirstName, user.LastName,
		string(user.Role), string(user.Type), user.Verified, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

const userColumns = `id, email, first_name, last_name, role, user_type, verified, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u        models.User
		rawID    uuid.UUID
		role     string
		userType string
	)
	if err := row.Scan(&rawID, &u.Email, &u.FirstName, &u.LastName, &role, &userType, &u.Verified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ID = id.UserID(rawID)
	u.Role = id.Role(role)
	u.Type = id.UserType(userType)
	return &u, nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) ListByIDs(ctx context.Context, ids []id.UserID) (map[id.UserID]*models.User, error) {
	out := make(map[id.UserID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]string, len(ids))
	for i, userID := range ids {
		raw[i] = userID.String()
	}
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[])`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list users by ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func (s *PostgresUserStore) MarkVerified(ctx context.Context, userID id.UserID, now time.Time) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE users SET verified = TRUE, updated_at = $2 WHERE id = $1`, uuid.UUID(userID), now)
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
