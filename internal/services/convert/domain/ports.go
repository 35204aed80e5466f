// Package domain defines the conversion ports
package domain

import (
	"context"

	"flexcode/internal/core/assemble"
)

// Converter performs one conversion call against the external service.
// from and to are platform slugs. Errors carry perr codes: InvalidCode and
// UnsupportedPair are final, anything perr.Retryable is transient
type Converter interface {
	Convert(ctx context.Context, code, from, to string) (string, error)
}

// OrchestratorPort converts every complete request of one message
type OrchestratorPort interface {
	ConvertAll(ctx context.Context, reqs []assemble.Request) []assemble.Outcome
}
