package main

import (
	"context"
	"database/sql"
	"time"

	sectionstore "vetting/internal/sections/store"
	userstore "vetting/internal/users/store"
	verificationservice "vetting/internal/verification/service"
	verificationstore "vetting/internal/verification/store"
	dErrors "vetting/pkg/domain-errors"
	txcontext "vetting/pkg/platform/tx"
)

const defaultVerificationTxTimeout = 5 * time.Second

// verificationPostgresTx runs a verification transition in one SQL
// transaction. The stores pick the transaction up from the context.
type verificationPostgresTx struct {
	db      *sql.DB
	stores  verificationservice.Stores
	timeout time.Duration
}

func newVerificationPostgresTx(db *sql.DB) *verificationPostgresTx {
	return &verificationPostgresTx{
		db: db,
		stores: verificationservice.Stores{
			Records:   verificationstore.NewPostgresRecords(db),
			AuditLog:  verificationstore.NewPostgresAuditLog(db),
			Users:     userstore.NewPostgres(db),
			Documents: sectionstore.NewPostgres(db),
		},
	}
}

func (t *verificationPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores verificationservice.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultVerificationTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), t.stores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
