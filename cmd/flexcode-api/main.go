// Command flexcode-api serves the bot's webhook, preview and ops endpoints
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"flexcode/internal/modkit/repokit"
	"flexcode/internal/platform/config"
	"flexcode/internal/platform/logger"
	phttp "flexcode/internal/platform/net/http"
	"flexcode/internal/platform/telemetry"

	"flexcode/internal/services/api"
	"flexcode/internal/services/stack"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env is optional; real env wins
	_ = godotenv.Load()

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(telemetry.FromConfig(root, "flexcode-api"))
	if err != nil {
		l.Panic().Err(err).Msg("tracer init failed")
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	// postgres only when DEDUP_BACKEND=pg
	st, err := stack.OpenStore(ctx, root)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	repokit.MustGuard(ctx, st)
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	s, err := stack.Build(ctx, stack.Deps(root, st), stack.Overrides{})
	if err != nil {
		l.Panic().Err(err).Msg("stack build failed")
	}

	// http server (reads API_PORT)
	srv := phttp.NewServer(root)
	api.Mount(srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Stack:          s,
		Logger:         l,
		EnableSwagger:  root.MayBool("API_SWAGGER", true),
		EnableProfiler: root.MayBool("API_PROFILER", false),
		AdminToken:     root.MayString("API_ADMIN_TOKEN", ""),
	})

	if err := s.Poller.Autostart(ctx); err != nil {
		l.Warn().Err(err).Msg("poller autostart skipped")
	}

	// Run drains in-flight requests itself once gctx is done
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Scheduler.Stop(sctx); err != nil {
			l.Error().Err(err).Msg("scheduler stop failed")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	l.Info().Msg("shutdown complete")
}
