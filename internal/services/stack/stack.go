// Package stack composes the bot modules in dependency order:
// convert, dedup, pipeline, poller. Every cmd and the HTTP API share it
package stack

import (
	"context"

	"flexcode/internal/core/platform"
	"flexcode/internal/modkit"
	"flexcode/internal/modkit/module"
	"flexcode/internal/platform/config"
	"flexcode/internal/platform/logger"
	"flexcode/internal/platform/store"

	convertmod "flexcode/internal/services/convert/module"
	dedupdom "flexcode/internal/services/dedup/domain"
	dedupmod "flexcode/internal/services/dedup/module"
	pdom "flexcode/internal/services/pipeline/domain"
	pipemod "flexcode/internal/services/pipeline/module"
	polldom "flexcode/internal/services/poller/domain"
	pollmod "flexcode/internal/services/poller/module"
)

// Overrides are passed to each module's New; zero values defer to config
type Overrides struct {
	Convert  convertmod.Options
	Dedup    dedupmod.Options
	Pipeline pipemod.Options
	Poller   pollmod.Options
}

// Stack holds the constructed modules and the ports callers use
type Stack struct {
	Convert  *convertmod.Module
	Dedup    *dedupmod.Module
	Pipeline *pipemod.Module
	Poller   *pollmod.Module

	Pipe       pdom.PipelinePort
	Tracker    dedupdom.TrackerPort
	Scheduler  polldom.SchedulerPort
	Dispatcher pdom.Dispatcher
	Registry   *platform.Registry
}

// Build wires the modules and registers their ports by name
func Build(ctx context.Context, deps modkit.Deps, ov Overrides) (*Stack, error) {
	conv := convertmod.New(deps, ov.Convert)
	convPorts := module.MustPortsOf[convertmod.Ports](conv)

	dd, err := dedupmod.New(ctx, deps, ov.Dedup)
	if err != nil {
		return nil, err
	}
	ddPorts := module.MustPortsOf[dedupmod.Ports](dd)

	pipe, err := pipemod.New(deps, ov.Pipeline, modkit.WithPorts(pipemod.Requires{
		Orchestrator: convPorts.Orchestrator,
		Tracker:      ddPorts.Tracker,
	}))
	if err != nil {
		return nil, err
	}
	pipePorts := module.MustPortsOf[pipemod.Ports](pipe)

	poll, err := pollmod.New(deps, ov.Poller, modkit.WithPorts(pipePorts.Pipeline))
	if err != nil {
		return nil, err
	}
	pollPorts := module.MustPortsOf[pollmod.Ports](poll)

	s := &Stack{
		Convert:    conv,
		Dedup:      dd,
		Pipeline:   pipe,
		Poller:     poll,
		Pipe:       pipePorts.Pipeline,
		Tracker:    ddPorts.Tracker,
		Scheduler:  pollPorts.Scheduler,
		Dispatcher: pollPorts.Dispatcher,
		Registry:   pipePorts.Registry,
	}
	for _, m := range s.Modules() {
		module.Register(m.Name(), m.Ports())
	}
	return s, nil
}

// Modules lists the stack in construction order
func (s *Stack) Modules() []module.Module {
	return []module.Module{s.Convert, s.Dedup, s.Pipeline, s.Poller}
}

// OpenStore opens postgres only when the dedup backend needs it. The returned
// store is never nil
func OpenStore(ctx context.Context, root config.Conf) (*store.Store, error) {
	if dedupmod.FromConfig(root).Backend != "pg" {
		return &store.Store{}, nil
	}
	pgCfg := root.Prefix("PG_")
	return store.Open(ctx, store.Config{
		PG: store.PGConfig{
			Enabled:  true,
			URL:      pgCfg.MustString("URL"),
			MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowMs:   pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:   pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*logger.Get()))
}

// Deps builds the shared module deps from config and an opened store
func Deps(root config.Conf, st *store.Store) modkit.Deps {
	d := modkit.Deps{Cfg: root, Log: *logger.Get()}
	if st != nil && st.PG != nil {
		d.PG = st.PG
	}
	return d
}
