package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	sectionservice "vetting/internal/sections/service"
	"vetting/internal/verification/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
)

type RecordStore interface {
	FindByID(ctx context.Context, verificationID id.VerificationID) (*models.Record, error)
	FindByUser(ctx context.Context, userID id.UserID) (*models.Record, error)
	Save(ctx context.Context, record *models.Record) error
}

type AuditLogStore interface {
	Append(ctx context.Context, entry *models.AuditLogEntry) error
}

type UserVerifier interface {
	MarkVerified(ctx context.Context, userID id.UserID, now time.Time) error
}

// Stores are the writers available inside a transaction.
type Stores struct {
	Records   RecordStore
	AuditLog  AuditLogStore
	Users     UserVerifier
	Documents sectionservice.DocumentStore
}

// TxRunner runs fn atomically. The context passed to fn must be used for all
// store calls so SQL implementations can join the transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// numShards spreads in-memory transactions over independent locks keyed by
// the record or user they touch.
const numShards = 64

const defaultTxTimeout = 5 * time.Second

// ShardedTx serializes in-memory transactions that share a key.
type ShardedTx struct {
	shards  [numShards]sync.Mutex
	stores  Stores
	timeout time.Duration
}

func NewShardedTx(stores Stores) *ShardedTx {
	return &ShardedTx{stores: stores, timeout: defaultTxTimeout}
}

func (t *ShardedTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx, t.stores)
}

func (t *ShardedTx) selectShard(ctx context.Context) int {
	key, ok := ctx.Value(txKeyCtx).(string)
	if !ok || key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % numShards)
}

type txKey struct{}

var txKeyCtx = txKey{}

// WithTxKey names the entity a transaction works on.
func WithTxKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, txKeyCtx, key)
}
