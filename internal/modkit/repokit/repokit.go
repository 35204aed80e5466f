// Package repokit binds repositories to a store seam and wraps transactions
package repokit

import (
	"context"
	"fmt"
	"time"

	"flexcode/internal/platform/store"
)

type (
	// Queryer is what a bound repository runs statements against
	Queryer = store.RowQuerier

	// TxRunner is a Queryer that can open a transaction
	TxRunner = store.TxRunner

	// Row is one scanned result row
	Row = store.Row

	// CommandTag reports what a write touched
	CommandTag = store.CommandTag
)

// Binder builds a repository over a Queryer, either the pool or a tx
type Binder[T any] interface {
	Bind(Queryer) T
}

// MustBind binds b to q and panics when q is nil, which is a wiring bug
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return b.Bind(q)
}

// WithTx runs fn inside one transaction on tx
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	return tx.Tx(ctx, fn)
}

// BeginHook runs first inside every transaction opened through WithBeginHooks
type BeginHook func(ctx context.Context, q Queryer) error

// WithBeginHooks returns a TxRunner whose transactions run hooks, in order,
// before the caller's function. A failing hook aborts the transaction
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	return hooked{TxRunner: inner, hooks: hooks}
}

type hooked struct {
	TxRunner
	hooks []BeginHook
}

func (h hooked) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, hook := range h.hooks {
			if err := hook(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}

// guardTimeout bounds MustGuard when ctx carries no deadline
const guardTimeout = 5 * time.Second

// MustGuard runs st.Guard and panics on error, so a process with an
// unreachable backend dies before it starts polling
func MustGuard(ctx context.Context, st interface{ Guard(context.Context) error }) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, guardTimeout)
		defer cancel()
	}
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}
