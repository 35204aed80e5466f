// Package module mounts the bot ops and webhook endpoints
package module

import (
	"flexcode/internal/modkit"
	"flexcode/internal/modkit/httpkit"

	bothttp "flexcode/internal/services/bot/http"
)

// Module serves the bot routes directly under the versioned API
type Module struct {
	built modkit.Built
	deps  bothttp.Deps
}

// New builds the module. Its collaborators are injected with
// modkit.WithPorts(Requires{...}); a missing one panics
func New(_ modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("bot")}, opts...)...)
	req, ok := b.Ports.(Requires)
	if !ok || req.Scheduler == nil || req.Pipeline == nil || req.Tracker == nil || req.Dispatcher == nil {
		panic("bot module requires Scheduler, Pipeline, Tracker and Dispatcher ports")
	}
	return &Module{built: b, deps: bothttp.Deps(req)}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) { bothttp.Register(rr, m.deps) })
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.built.Name }

// Ports implements modkit.Module. The bot only consumes ports
func (m *Module) Ports() any { return nil }
