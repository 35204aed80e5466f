// Package api mounts the HTTP surface: the root liveness probe, the
// versioned module routes, and the optional docs and profiler
package api

import (
	"time"

	"flexcode/internal/platform/config"
	"flexcode/internal/platform/logger"
	phttp "flexcode/internal/platform/net/http"
	"flexcode/internal/platform/net/middleware"
	"flexcode/internal/platform/store"

	"flexcode/internal/modkit"
	"flexcode/internal/modkit/httpkit"
	"flexcode/internal/modkit/swaggerkit"

	metamod "flexcode/internal/services/api/meta/module"
	botmod "flexcode/internal/services/bot/module"
	"flexcode/internal/services/stack"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Stack          *stack.Stack
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool

	// AdminToken guards the bot ops routes when set
	AdminToken string
}

// Mount mounts every route onto r
func Mount(r phttp.Router, opt Options) {
	deps := stack.Deps(opt.Config, opt.Store)
	s := opt.Stack

	meta := metamod.New(deps, modkit.WithPorts(metamod.Info{
		Extractor:   s.Pipeline.Extractor(),
		ConvertMode: s.Convert.Mode(),
		Dedup:       s.Tracker.Stats().Backend,
		Source:      s.Scheduler.Status().Source,
		Platforms:   platformIDs(s),
	}))

	var auth middleware.AuthPort
	if opt.AdminToken != "" {
		auth = httpkit.NewPortFunc(httpkit.StaticToken("admin", opt.AdminToken))
	} else if opt.Logger != nil {
		opt.Logger.Warn().Msg("API_ADMIN_TOKEN unset, bot ops routes are open")
	}

	// webhook bursts queue briefly instead of fanning out to the conversion service
	bot := botmod.New(deps, modkit.WithMiddlewares(middleware.Throttle(32, 128, 10*time.Second)), modkit.WithPorts(botmod.Requires{
		Scheduler:   s.Scheduler,
		Pipeline:    s.Pipe,
		Tracker:     s.Tracker,
		Dispatcher:  s.Dispatcher,
		ConvertMode: s.Convert.Mode(),
		Extractor:   s.Pipeline.Extractor(),
		Auth:        auth,
	}))

	meta.MountRoot(r)
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, middleware.Common(middleware.FromConfig(opt.Config)), func(api httpkit.Router) {
		for _, m := range []modkit.Module{meta, bot} {
			m.MountRoutes(api)
		}
	})
}

func platformIDs(s *stack.Stack) []string {
	all := s.Registry.All()
	out := make([]string, 0, len(all))
	for _, p := range all {
		out = append(out, string(p.ID))
	}
	return out
}
