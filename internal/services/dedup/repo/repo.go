// Package repo provides the Postgres dedup store
package repo

import (
	"context"
	"time"

	"flexcode/internal/modkit/repokit"
	perr "flexcode/internal/platform/errors"
	"flexcode/internal/platform/store"
	dom "flexcode/internal/services/dedup/domain"
)

// Schema creates the processed_messages table when missing
const Schema = `
CREATE TABLE IF NOT EXISTS processed_messages (
	message_id   text        PRIMARY KEY,
	processed_at timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS processed_messages_processed_at_idx
	ON processed_messages (processed_at);
`

type (
	// PG is a Postgres implementation of the dedup store
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[dom.Store] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) dom.Store { return &queries{q: q} }

// migrateLockKey serializes schema setup across api and poller processes
const migrateLockKey = 0x666c6578 // "flex"

// MigrationLock takes a transaction-scoped advisory lock before Schema runs
func MigrationLock(ctx context.Context, q repokit.Queryer) error {
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrateLockKey); err != nil {
		return perr.FromPostgres(err, "dedup migrate lock")
	}
	return nil
}

// Migrate applies Schema in one transaction under MigrationLock
func Migrate(ctx context.Context, tx repokit.TxRunner) error {
	locked := repokit.WithBeginHooks(tx, MigrationLock)
	return repokit.WithTx(ctx, locked, func(q repokit.Queryer) error {
		if _, err := q.Exec(ctx, Schema); err != nil {
			return perr.FromPostgres(err, "dedup migrate")
		}
		return nil
	})
}

// Get returns when id was processed
func (r *queries) Get(ctx context.Context, id string) (time.Time, bool, error) {
	const sql = `SELECT processed_at FROM processed_messages WHERE message_id = $1`
	at, ok, err := store.Scalar[time.Time](ctx, r.q, sql, id)
	if err != nil {
		return time.Time{}, false, perr.FromPostgres(err, "dedup get")
	}
	return at.UTC(), ok, nil
}

// Put upserts a processed record
func (r *queries) Put(ctx context.Context, rec dom.Record) error {
	const sql = `
INSERT INTO processed_messages (message_id, processed_at)
VALUES ($1, $2)
ON CONFLICT (message_id) DO UPDATE SET processed_at = EXCLUDED.processed_at`
	if err := store.ExecOne(ctx, r.q, sql, rec.MessageID, rec.ProcessedAt.UTC()); err != nil {
		return perr.FromPostgres(err, "dedup put")
	}
	return nil
}

// Evict drops expired rows, then the oldest rows beyond maxCount
func (r *queries) Evict(ctx context.Context, cutoff time.Time, maxCount int) (int, error) {
	n := 0
	if !cutoff.IsZero() {
		ct, err := r.q.Exec(ctx, `DELETE FROM processed_messages WHERE processed_at < $1`, cutoff.UTC())
		if err != nil {
			return n, perr.FromPostgres(err, "dedup evict age")
		}
		n += int(ct.RowsAffected())
	}
	if maxCount > 0 {
		const sql = `
DELETE FROM processed_messages
WHERE message_id IN (
	SELECT message_id FROM processed_messages
	ORDER BY processed_at DESC, message_id DESC
	OFFSET $1
)`
		ct, err := r.q.Exec(ctx, sql, maxCount)
		if err != nil {
			return n, perr.FromPostgres(err, "dedup evict count")
		}
		n += int(ct.RowsAffected())
	}
	return n, nil
}

// Len counts retained rows
func (r *queries) Len(ctx context.Context) (int, error) {
	n, _, err := store.Scalar[int](ctx, r.q, `SELECT count(*) FROM processed_messages`)
	if err != nil {
		return 0, perr.FromPostgres(err, "dedup len")
	}
	return n, nil
}
