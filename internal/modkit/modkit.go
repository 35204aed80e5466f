// Package modkit assembles service modules. Each module exposes
// New(deps Deps, opts ...Option), resolves its options with Build, and
// hands other modules what they need through its Ports bundle
package modkit

import (
	"flexcode/internal/modkit/module"
	"flexcode/internal/modkit/repokit"
	"flexcode/internal/platform/config"
	"flexcode/internal/platform/logger"
)

// Module is what the stack wires together and the API mounts
type Module = module.Module

// Deps is shared by every module in a process. PG is nil unless the
// postgres store was opened
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
}

// Named is Log tagged with a component
func (d Deps) Named(component string) logger.Logger {
	return d.Log.With().Str("component", component).Logger()
}
