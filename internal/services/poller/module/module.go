// Package module wires the polling scheduler to its social source
package module

import (
	"context"

	"flexcode/internal/adapters/social/telegram"
	"flexcode/internal/adapters/social/x"
	"flexcode/internal/modkit"
	"flexcode/internal/modkit/httpkit"
	perr "flexcode/internal/platform/errors"
	pdom "flexcode/internal/services/pipeline/domain"
	pipesvc "flexcode/internal/services/pipeline/service"
	dom "flexcode/internal/services/poller/domain"
	"flexcode/internal/services/poller/service"
)

// Module defines the poller module
type Module struct {
	deps      modkit.Deps
	ports     Ports
	svc       *service.Svc
	autostart bool
}

// New constructs the poller module. The pipeline port must be injected with
// modkit.WithPorts(pdom.PipelinePort)
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("poller")}, opts...)...)
	pipe, ok := b.Ports.(pdom.PipelinePort)
	if !ok || pipe == nil {
		panic("poller module requires the Pipeline port")
	}

	o := FromConfig(deps.Cfg)
	if overrides.Source != "" {
		o.Source = overrides.Source
	}
	if overrides.MentionsEvery != 0 {
		o.MentionsEvery = overrides.MentionsEvery
	}
	if overrides.DirectEvery != 0 {
		o.DirectEvery = overrides.DirectEvery
	}
	if overrides.Autostart {
		o.Autostart = true
	}

	var src dom.Source
	switch o.Source {
	case "x":
		if o.XBearerToken == "" || o.XUserID == "" {
			return nil, perr.InvalidArgf("poller: x source needs X_BEARER_TOKEN and X_USER_ID")
		}
		src = x.NewClient(x.Options{BaseURL: o.XBaseURL, BearerToken: o.XBearerToken, UserID: o.XUserID})
	case "telegram":
		if o.TelegramToken == "" {
			return nil, perr.InvalidArgf("poller: telegram source needs TELEGRAM_BOT_TOKEN")
		}
		bot, err := telegram.New(telegram.Options{Token: o.TelegramToken})
		if err != nil {
			return nil, err
		}
		src = bot
	}

	svc := service.New(src, pipe, service.Config{
		MentionsEvery: o.MentionsEvery,
		DirectEvery:   o.DirectEvery,
		HandleTimeout: o.HandleTimeout,
	})

	var out pdom.Dispatcher = pipesvc.LogDispatcher{Max: x.TweetLimit}
	if src != nil {
		out = src
	}
	return &Module{
		deps:      deps,
		ports:     Ports{Scheduler: svc, Dispatcher: out},
		svc:       svc,
		autostart: o.Autostart,
	}, nil
}

// Autostart starts polling when POLL_AUTOSTART is set
func (m *Module) Autostart(ctx context.Context) error {
	if !m.autostart {
		return nil
	}
	return m.svc.Start(ctx)
}

// Ports returns the module ports (Scheduler, Dispatcher)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "poller" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
