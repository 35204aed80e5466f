package errors

import (
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the dedup store can hit
const (
	pgUniqueViolation      = "23505"
	pgNotNullViolation     = "23502"
	pgCheckViolation       = "23514"
	pgStringTooLong        = "22001"
	pgSerializationFailure = "40001"
	pgDeadlock             = "40P01"
	pgLockNotAvailable     = "55P03"
	pgReadOnly             = "25006"
	pgCannotConnectNow     = "57P03"
	pgAdminShutdown        = "57P01"
)

// FromPostgres classifies a pgx error under msg. Contention and server
// availability states become Unavailable so callers retry them; anything else
// is DB unless the SQLSTATE says the input was wrong. Errors that already
// carry a code keep it. nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		if e, ok := As(err); ok {
			return WithField(Wrap(err, e.Code(), msg), e.Field())
		}
		if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
			return Wrap(err, ErrorCodeUnavailable, msg)
		}
		return Wrap(err, ErrorCodeDB, msg)
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return WithField(Wrap(err, ErrorCodeConflict, msg), pgErr.ColumnName)
	case pgNotNullViolation, pgCheckViolation, pgStringTooLong:
		return WithField(Wrap(err, ErrorCodeInvalidArgument, msg), pgErr.ColumnName)
	case pgSerializationFailure, pgDeadlock, pgLockNotAvailable, pgReadOnly, pgCannotConnectNow, pgAdminShutdown:
		return Wrap(err, ErrorCodeUnavailable, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// pgTransient catches contention that reached Retryable without going
// through FromPostgres, including pgx's commit-time rollback text
func pgTransient(err error) bool {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlock, pgLockNotAvailable:
			return true
		}
		return false
	}
	root := Root(err)
	return root != nil && strings.Contains(root.Error(), "commit unexpectedly resulted in rollback")
}
