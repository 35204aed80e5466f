// Package module wires the conversion client and orchestrator
package module

import (
	"strings"

	"flexcode/internal/adapters/convertbet"
	"flexcode/internal/modkit"
	"flexcode/internal/modkit/httpkit"
	dom "flexcode/internal/services/convert/domain"
	"flexcode/internal/services/convert/service"
)

// Module defines the convert module
type Module struct {
	deps  modkit.Deps
	ports Ports
	mode  string
}

// New constructs the convert module. Non-zero overrides win over config
func New(deps modkit.Deps, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)

	if overrides.Mode != "" {
		opts.Mode = overrides.Mode
	}
	if overrides.APIKey != "" {
		opts.APIKey = overrides.APIKey
	}
	if overrides.BaseURL != "" {
		opts.BaseURL = overrides.BaseURL
	}
	if overrides.RatePerSec != 0 {
		opts.RatePerSec = overrides.RatePerSec
	}
	if overrides.Burst != 0 {
		opts.Burst = overrides.Burst
	}
	if len(overrides.Supported) != 0 {
		opts.Supported = overrides.Supported
	}
	if overrides.Concurrency != 0 {
		opts.Concurrency = overrides.Concurrency
	}
	if overrides.MaxRetries != 0 {
		opts.MaxRetries = overrides.MaxRetries
	}
	if overrides.RetryBase != 0 {
		opts.RetryBase = overrides.RetryBase
	}
	if overrides.CallTimeout != 0 {
		opts.CallTimeout = overrides.CallTimeout
	}
	if overrides.Budget != 0 {
		opts.Budget = overrides.Budget
	}

	var conv dom.Converter
	if strings.EqualFold(opts.Mode, "simulate") {
		conv = convertbet.NewSimulator(opts.Supported...)
	} else {
		conv = convertbet.NewClient(convertbet.Options{
			BaseURL:    opts.BaseURL,
			APIKey:     opts.APIKey,
			Timeout:    opts.CallTimeout,
			RatePerSec: opts.RatePerSec,
			Burst:      opts.Burst,
			Supported:  opts.Supported,
		})
	}

	svc := service.New(conv, service.Config{
		Concurrency: opts.Concurrency,
		MaxRetries:  opts.MaxRetries,
		RetryBase:   opts.RetryBase,
		CallTimeout: opts.CallTimeout,
		Budget:      opts.Budget,
	})

	m := &Module{deps: deps, mode: strings.ToLower(opts.Mode)}
	m.ports = Ports{Orchestrator: svc, Converter: conv}
	return m
}

// Mode reports live or simulate
func (m *Module) Mode() string { return m.mode }

// Ports returns the module ports (Orchestrator, Converter)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "convert" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
