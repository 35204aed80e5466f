// Package module mounts the probe and info endpoints
package module

import (
	"time"

	"flexcode/internal/modkit"
	"flexcode/internal/modkit/httpkit"
	"flexcode/internal/modkit/module"

	metahttp "flexcode/internal/services/api/meta/http"
)

// Info is injected with modkit.WithPorts to describe the running pipeline
type Info = metahttp.Pipeline

// Module serves /meta
type Module struct {
	built modkit.Built
	deps  metahttp.Deps
}

// New builds the module. The postgres check is skipped when deps.PG is nil
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	info, _ := b.Ports.(Info)
	checks := map[string]metahttp.Pinger{"pg": nil}
	if p, ok := deps.PG.(metahttp.Pinger); ok {
		checks["pg"] = p
	}

	return &Module{
		built: b,
		deps: metahttp.Deps{
			Service:   "flexcode-api",
			StartedAt: time.Now(),
			Checks:    checks,
			Pipeline:  info,
			Modules:   module.Names,
			Log:       deps.Named("meta"),
		},
	}
}

// MountRoutes mounts /meta/*
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, m.deps) })
}

// MountRoot mounts /health outside the versioned API
func (m *Module) MountRoot(r httpkit.Router) { metahttp.RegisterRoot(r, m.deps) }

// Name implements modkit.Module
func (m *Module) Name() string { return m.built.Name }

// Ports implements modkit.Module. Meta exports nothing
func (m *Module) Ports() any { return nil }
