// Package tx carries an open *sql.Tx through a context so Postgres stores
// called inside RunInTx join it instead of using the pool.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

// Querier is the part of *sql.DB and *sql.Tx the stores need.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx returns ctx unchanged when tx is nil.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, tx)
}

func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(ctxKey{}).(*sql.Tx)
	return tx, ok
}

// Conn returns the transaction carried by ctx, falling back to db. inTx
// reports which one was picked; row locks only make sense inside a tx.
func Conn(ctx context.Context, db *sql.DB) (q Querier, inTx bool) {
	if tx, ok := From(ctx); ok {
		return tx, true
	}
	return db, false
}
