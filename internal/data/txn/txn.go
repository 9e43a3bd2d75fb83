package txn

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"gorm.io/gorm"

	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
)

// Stage budgets for transactional paths. Every bounded transaction sets
// these as SET LOCAL so a stuck statement or lock wait fails fast instead of
// holding a pool connection.
const (
	StatementTimeout = 6 * time.Second
	LockTimeout      = 2 * time.Second
)

// Runner is the shared transaction boundary primitive for service writes.
type Runner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
	// InBoundedTx opens a transaction with statement and lock timeouts
	// applied for its duration.
	InBoundedTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormRunner struct {
	db *gorm.DB
}

func NewGormRunner(db *gorm.DB) Runner {
	return &gormRunner{db: db}
}

func (r *gormRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

func (r *gormRunner) InBoundedTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", StatementTimeout.Milliseconds())).Error; err != nil {
			return fmt.Errorf("set statement_timeout: %w", err)
		}
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", LockTimeout.Milliseconds())).Error; err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// LockKey hashes a string onto the signed 64-bit space Postgres advisory
// locks take. FNV-1a; the value only needs to be stable, not secret.
func LockKey(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

// AdvisoryXactLock takes a transaction-scoped advisory lock keyed by the
// given string. The lock releases on commit or rollback; concurrent holders
// of the same key serialize.
func AdvisoryXactLock(dbc dbctx.Context, key string) error {
	if dbc.Tx == nil {
		return fmt.Errorf("advisory lock requires a transaction")
	}
	return dbc.Tx.WithContext(dbc.Ctx).
		Exec("SELECT pg_advisory_xact_lock(?)", LockKey(key)).Error
}
