// Package pg opens the pgx pool and traces its queries through zerolog
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures Open
type Config struct {
	URL      string
	MaxConns int32

	// Tracer is attached to every connection when set
	Tracer pgx.QueryTracer

	// Attempts and Backoff bound the startup ping loop. Zero means 10
	// attempts starting at 200ms, doubling up to 2s
	Attempts int
	Backoff  time.Duration
}

const maxBackoff = 2 * time.Second

// Open parses cfg, builds the pool and pings until the server answers
func Open(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.Tracer != nil {
		pcfg.ConnConfig.Tracer = cfg.Tracer
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := WaitReady(ctx, pool.Ping, cfg.Attempts, cfg.Backoff); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// WaitReady calls ping until it succeeds, attempts run out or ctx ends.
// The delay doubles after each failure, capped at 2s
func WaitReady(ctx context.Context, ping func(context.Context) error, attempts int, backoff time.Duration) error {
	if attempts <= 0 {
		attempts = 10
	}
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	var err error
	for i := 0; i < attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = ping(pctx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
	return fmt.Errorf("ping failed after %d attempts: %w", attempts, err)
}
