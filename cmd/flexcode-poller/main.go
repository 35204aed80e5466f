package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"flexcode/internal/modkit/repokit"
	"flexcode/internal/platform/config"
	"flexcode/internal/platform/logger"
	"flexcode/internal/platform/telemetry"

	pollmod "flexcode/internal/services/poller/module"
	"flexcode/internal/services/stack"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		fSource   = flag.String("source", "", "social source: x | telegram (default from POLL_SOURCE or credentials)")
		fMentions = flag.Duration("mentions-every", 0, "mention polling interval (default POLL_MENTIONS_EVERY or 30s)")
		fDMs      = flag.Duration("dms-every", 0, "direct message polling interval (default POLL_DMS_EVERY or 60s)")
		fOnce     = flag.Bool("once", false, "poll both jobs once and exit")
	)
	flag.Parse()

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(telemetry.FromConfig(root, "flexcode-poller"))
	if err != nil {
		l.Panic().Err(err).Msg("tracer init failed")
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

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

	s, err := stack.Build(ctx, stack.Deps(root, st), stack.Overrides{
		Poller: pollmod.Options{
			Source:        *fSource,
			MentionsEvery: *fMentions,
			DirectEvery:   *fDMs,
		},
	})
	if err != nil {
		l.Panic().Err(err).Msg("stack build failed")
	}

	if *fOnce {
		if err := s.Scheduler.RunOnce(ctx); err != nil {
			l.Error().Err(err).Msg("poll cycle failed")
		}
		ps := s.Pipe.Stats()
		l.Info().Int64("processed", ps.Processed).Int64("replied", ps.Replied).Int64("duplicates", ps.Duplicates).Msg("poll cycle done")
		return
	}

	if err := s.Scheduler.Start(ctx); err != nil {
		l.Panic().Err(err).Msg("scheduler start failed")
	}
	l.Info().Str("source", s.Scheduler.Status().Source).Msg("poller running")

	<-ctx.Done()
	sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Scheduler.Stop(sctx); err != nil {
		l.Error().Err(err).Msg("scheduler stop failed")
	}
	l.Info().Msg("poller stopped")
}
