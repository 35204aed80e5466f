package errors

import (
	"context"
	stderrs "errors"
)

// Retryable reports whether trying the same call again could succeed.
// Unavailable and TooManyRequests qualify, as do per-call deadlines and
// Postgres contention. Caller cancellation and rejections of the input
// itself never do
func Retryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) {
		return false
	}
	switch CodeOf(err) {
	case ErrorCodeUnavailable, ErrorCodeTooManyRequests:
		return true
	case ErrorCodeInvalidCode, ErrorCodeUnsupportedPair, ErrorCodeUnauthorized, ErrorCodeForbidden,
		ErrorCodeValidation, ErrorCodeJSON, ErrorCodeInvalidArgument:
		return false
	}
	if stderrs.Is(err, context.DeadlineExceeded) {
		return true
	}
	return pgTransient(err)
}
