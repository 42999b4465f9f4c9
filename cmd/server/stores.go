package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"vetting/internal/platform/config"
	"vetting/internal/platform/postgres"
	sectionservice "vetting/internal/sections/service"
	sectionstore "vetting/internal/sections/store"
	usermodels "vetting/internal/users/models"
	userstore "vetting/internal/users/store"
	verificationmodels "vetting/internal/verification/models"
	verificationservice "vetting/internal/verification/service"
	verificationstore "vetting/internal/verification/store"
	id "vetting/pkg/domain"
	"vetting/pkg/platform/audit"
	auditmemory "vetting/pkg/platform/audit/store/memory"
	auditpostgres "vetting/pkg/platform/audit/store/postgres"
)

type userStore interface {
	Save(ctx context.Context, user *usermodels.User) error
	FindByID(ctx context.Context, userID id.UserID) (*usermodels.User, error)
	ListByIDs(ctx context.Context, ids []id.UserID) (map[id.UserID]*usermodels.User, error)
}

type recordStore interface {
	verificationservice.RecordReader
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status verificationmodels.Status) (int, error)
	CountVerifiedSince(ctx context.Context, since time.Time) (int, error)
	CountRejectedSince(ctx context.Context, since time.Time) (int, error)
}

// storage is the persistence backing the services: Postgres when a database
// URL is configured, in-memory otherwise.
type storage struct {
	db       *sql.DB
	users    userStore
	sections sectionservice.Store
	records  recordStore
	auditLog verificationservice.AuditLogReader
	audit    audit.Store
	tx       verificationservice.TxRunner
}

func openStorage(ctx context.Context, cfg config.Server, log *slog.Logger) (*storage, error) {
	if cfg.DatabaseURL == "" {
		log.Info("no DATABASE_URL set, using in-memory stores")
		users := userstore.NewInMemory()
		sections := sectionstore.NewInMemory()
		records := verificationstore.NewInMemoryRecords()
		auditLog := verificationstore.NewInMemoryAuditLog()
		return &storage{
			users:    users,
			sections: sections,
			records:  records,
			auditLog: auditLog,
			audit:    auditmemory.NewInMemoryStore(),
			tx: verificationservice.NewShardedTx(verificationservice.Stores{
				Records:   records,
				AuditLog:  auditLog,
				Users:     users,
				Documents: sections,
			}),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("connected to postgres")
	return &storage{
		db:       db,
		users:    userstore.NewPostgres(db),
		sections: sectionstore.NewPostgres(db),
		records:  verificationstore.NewPostgresRecords(db),
		auditLog: verificationstore.NewPostgresAuditLog(db),
		audit:    auditpostgres.New(db),
		tx:       newVerificationPostgresTx(db),
	}, nil
}

func (s *storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
