package pg

import (
	"context"
	"strings"
	"time"

	"flexcode/internal/platform/logger"

	"github.com/jackc/pgx/v5"
)

// Tracer logs every query with its duration. Queries at or above the slow
// threshold log at warn
type Tracer struct {
	log  logger.Logger
	slow time.Duration
	now  func() time.Time
}

// NewTracer builds a Tracer. slowMs <= 0 disables the slow flag
func NewTracer(log logger.Logger, slowMs int) *Tracer {
	return &Tracer{
		log:  log.With().Str("component", "pg").Logger(),
		slow: time.Duration(slowMs) * time.Millisecond,
		now:  time.Now,
	}
}

type startKey struct{}

type started struct {
	at  time.Time
	sql string
}

// TraceQueryStart implements pgx.QueryTracer
func (t *Tracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, startKey{}, started{at: t.now(), sql: data.SQL})
}

// TraceQueryEnd implements pgx.QueryTracer
func (t *Tracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	st, ok := ctx.Value(startKey{}).(started)
	if !ok {
		return
	}
	took := t.now().Sub(st.at)
	slow := t.slow > 0 && took >= t.slow
	ev := t.log.Info()
	switch {
	case data.Err != nil:
		ev = t.log.Error().Err(data.Err)
	case slow:
		ev = t.log.Warn()
	}
	ev.Str("sql", squash(st.sql)).
		Int64("rows", data.CommandTag.RowsAffected()).
		Dur("took", took).
		Bool("slow", slow).
		Msg("pg query")
}

// squash collapses runs of whitespace so multi-line SQL logs on one line
func squash(sql string) string { return strings.Join(strings.Fields(sql), " ") }
