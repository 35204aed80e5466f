// Package store owns the optional Postgres pool behind the dedup tracker
package store

import (
	"context"
	"errors"
	"fmt"

	"flexcode/internal/platform/logger"
	"flexcode/internal/platform/store/pg"
)

// Row is one scanned result row
type Row interface {
	Scan(dest ...any) error
}

// CommandTag reports what a write touched
type CommandTag interface {
	RowsAffected() int64
}

// RowQuerier is the surface repos write against. Both the pool and an open
// transaction satisfy it
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner is a RowQuerier that can also open a transaction
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Config selects and tunes the backends Open brings up
type Config struct {
	PG PGConfig
}

// PGConfig configures the Postgres pool
type PGConfig struct {
	Enabled  bool
	URL      string
	MaxConns int32
	LogSQL   bool
	SlowMs   int
}

// Store holds whichever backends were enabled. The zero value is a valid
// store with nothing attached
type Store struct {
	Log logger.Logger

	// PG is nil unless Config.PG.Enabled
	PG TxRunner

	db *DB
}

// Option adjusts a Store before backends open
type Option func(*Store)

// WithLogger sets the logger handed to the SQL tracer
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.Log = l }
}

// Open brings up the enabled backends and waits until they answer
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		o(s)
	}
	if !cfg.PG.Enabled {
		return s, nil
	}
	pcfg := pg.Config{URL: cfg.PG.URL, MaxConns: cfg.PG.MaxConns}
	if cfg.PG.LogSQL {
		pcfg.Tracer = pg.NewTracer(s.Log, cfg.PG.SlowMs)
	}
	pool, err := pg.Open(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: %w", err)
	}
	s.db = NewDB(pool)
	s.PG = s.db
	return s, nil
}

// Guard pings every attached backend
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	if s.db == nil {
		return nil
	}
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("pg: %w", err)
	}
	return nil
}

// Close releases every attached backend
func (s *Store) Close(context.Context) error {
	if s != nil && s.db != nil {
		s.db.Close()
	}
	return nil
}
