package store

import (
	"context"
	"errors"

	perr "flexcode/internal/platform/errors"

	"github.com/jackc/pgx/v5"
)

// ExecOne runs a write that must touch exactly one row. Any other count is a
// Conflict
func ExecOne(ctx context.Context, q RowQuerier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if n := tag.RowsAffected(); n != 1 {
		return perr.Newf(perr.ErrorCodeConflict, "%d rows affected, want 1", n)
	}
	return nil
}

// Scalar scans the first column of the first row into a T. found is false,
// with no error, when the query matched nothing
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (v T, found bool, err error) {
	err = q.QueryRow(ctx, sql, args...).Scan(&v)
	switch {
	case err == nil:
		return v, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		err = nil
	}
	var zero T
	return zero, false, err
}
