// Package module wires the message pipeline
package module

import (
	"flexcode/internal/adapters/hfner"
	"flexcode/internal/core/extract"
	"flexcode/internal/core/platform"
	"flexcode/internal/modkit"
	"flexcode/internal/modkit/httpkit"
	"flexcode/internal/services/pipeline/service"
)

// Module defines the pipeline module
type Module struct {
	deps      modkit.Deps
	ports     Ports
	extractor string
}

// New constructs the pipeline module. The convert and dedup ports must be
// injected with modkit.WithPorts(Requires{...})
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("pipeline")}, opts...)...)
	in, ok := b.Ports.(Requires)
	if !ok || in.Orchestrator == nil || in.Tracker == nil {
		panic("pipeline module requires Orchestrator and Tracker ports")
	}

	o := FromConfig(deps.Cfg)
	if overrides.Extractor != "" {
		o.Extractor = overrides.Extractor
	}
	if overrides.HFAPIKey != "" {
		o.HFAPIKey = overrides.HFAPIKey
	}
	if overrides.HFModelURL != "" {
		o.HFModelURL = overrides.HFModelURL
	}
	if overrides.AliasesFile != "" {
		o.AliasesFile = overrides.AliasesFile
	}

	reg, err := platform.LoadWithOverrides(o.AliasesFile)
	if err != nil {
		return nil, err
	}

	var x extract.Extractor = extract.NewRules(reg)
	if o.Extractor == "hf" {
		x = extract.NewOracleExtractor(hfner.NewClient(hfner.Options{
			ModelURL: o.HFModelURL,
			APIKey:   o.HFAPIKey,
			Timeout:  o.HFTimeout,
		}), reg)
	} else {
		o.Extractor = "rules"
	}

	svc := service.New(x, in.Orchestrator, in.Tracker)
	return &Module{
		deps:      deps,
		ports:     Ports{Pipeline: svc, Registry: reg},
		extractor: o.Extractor,
	}, nil
}

// Extractor reports rules or hf
func (m *Module) Extractor() string { return m.extractor }

// Ports returns the module ports (Pipeline, Registry)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "pipeline" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
