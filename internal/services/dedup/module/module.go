// Package module wires the dedup tracker over its configured store
package module

import (
	"context"
	"strings"

	"flexcode/internal/modkit"
	"flexcode/internal/modkit/httpkit"
	"flexcode/internal/modkit/repokit"
	perr "flexcode/internal/platform/errors"
	dom "flexcode/internal/services/dedup/domain"
	"flexcode/internal/services/dedup/repo"
	"flexcode/internal/services/dedup/service"
)

// Module defines the dedup module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the dedup module. The pg backend needs deps.PG; the schema
// is applied on start when Migrate is set
func New(ctx context.Context, deps modkit.Deps, overrides Options) (*Module, error) {
	opts := FromConfig(deps.Cfg)
	if overrides.Backend != "" {
		opts.Backend = overrides.Backend
	}
	if overrides.MaxAge != 0 {
		opts.MaxAge = overrides.MaxAge
	}
	if overrides.MaxCount != 0 {
		opts.MaxCount = overrides.MaxCount
	}

	var st dom.Store
	switch strings.ToLower(opts.Backend) {
	case "pg":
		if deps.PG == nil {
			return nil, perr.InvalidArgf("dedup: pg backend needs a postgres store")
		}
		if opts.Migrate {
			if err := repo.Migrate(ctx, deps.PG); err != nil {
				return nil, err
			}
		}
		st = repokit.MustBind(repo.NewPG(), deps.PG)
	default:
		opts.Backend = "memory"
		st = service.NewMemory()
	}

	svc := service.New(st, service.Config{
		Backend:  strings.ToLower(opts.Backend),
		MaxAge:   opts.MaxAge,
		MaxCount: opts.MaxCount,
	})
	return &Module{deps: deps, ports: Ports{Tracker: svc}}, nil
}

// Ports returns the module ports (Tracker)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "dedup" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
