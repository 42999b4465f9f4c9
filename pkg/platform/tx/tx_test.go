package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnWithoutTxUsesPool(t *testing.T) {
	db := &sql.DB{}
	q, inTx := Conn(context.Background(), db)
	assert.False(t, inTx)
	assert.Same(t, db, q)
}

func TestConnPrefersContextTx(t *testing.T) {
	tx := &sql.Tx{}
	ctx := WithTx(context.Background(), tx)

	q, inTx := Conn(ctx, &sql.DB{})
	assert.True(t, inTx)
	assert.Same(t, tx, q)
}

func TestWithNilTxLeavesContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil))
	_, ok := From(ctx)
	assert.False(t, ok)
}
