package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	perr "flexcode/internal/platform/errors"

	"github.com/jackc/pgx/v5"
)

type rows int64

func (r rows) RowsAffected() int64 { return int64(r) }

type scripted struct {
	affected rows
	execErr  error
	scan     func(dest ...any) error
	sql      string
}

func (s *scripted) Exec(_ context.Context, sql string, _ ...any) (CommandTag, error) {
	s.sql = sql
	return s.affected, s.execErr
}

func (s *scripted) QueryRow(_ context.Context, sql string, _ ...any) Row {
	s.sql = sql
	return rowFunc(s.scan)
}

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

func TestExecOne(t *testing.T) {
	down := errors.New("conn reset")
	cases := []struct {
		name     string
		affected rows
		execErr  error
		code     perr.ErrorCode
		wantErr  error
	}{
		{"one row", 1, nil, 0, nil},
		{"no rows", 0, nil, perr.ErrorCodeConflict, nil},
		{"two rows", 2, nil, perr.ErrorCodeConflict, nil},
		{"exec error", 0, down, perr.ErrorCodeUnknown, down},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := &scripted{affected: tc.affected, execErr: tc.execErr}
			err := ExecOne(context.Background(), q, "UPDATE processed_messages SET processed_at = now()")
			switch {
			case tc.code == 0 && tc.wantErr == nil:
				if err != nil {
					t.Fatalf("err = %v", err)
				}
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v", err)
				}
			default:
				if perr.CodeOf(err) != tc.code {
					t.Fatalf("err = %v", err)
				}
			}
		})
	}
}

func TestScalar(t *testing.T) {
	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	found := &scripted{scan: func(dest ...any) error {
		*dest[0].(*time.Time) = at
		return nil
	}}
	v, ok, err := Scalar[time.Time](context.Background(), found, "SELECT processed_at")
	if err != nil || !ok || !v.Equal(at) {
		t.Fatalf("found = %v %v %v", v, ok, err)
	}

	missing := &scripted{scan: func(...any) error { return fmt.Errorf("scan: %w", pgx.ErrNoRows) }}
	if v, ok, err := Scalar[int](context.Background(), missing, "SELECT count(*)"); err != nil || ok || v != 0 {
		t.Fatalf("missing = %v %v %v", v, ok, err)
	}

	boom := errors.New("boom")
	failing := &scripted{scan: func(...any) error { return boom }}
	if _, ok, err := Scalar[int](context.Background(), failing, "SELECT 1"); !errors.Is(err, boom) || ok {
		t.Fatalf("failing = %v %v", ok, err)
	}
}
